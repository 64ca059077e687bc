package web

import (
	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/artifact"
	"github.com/ankit-chaubey/picscrub/core/classify"
	"github.com/ankit-chaubey/picscrub/core/job"
)

type resultView struct {
	*core.Result
	OriginalSizeText string `json:"original_size_text"`
	CleanedSizeText  string `json:"cleaned_size_text"`
}

type jobView struct {
	ID           string                   `json:"id"`
	Name         string                   `json:"name"`
	MIME         string                   `json:"mime"`
	Size         int64                    `json:"size"`
	SizeText     string                   `json:"size_text"`
	State        job.State                `json:"state"`
	Meta         job.MetaState            `json:"meta"`
	PreviewURL   string                   `json:"preview_url"`
	Applicable   []core.OptionKey         `json:"applicable"`
	Options      core.Options             `json:"options,omitempty"`
	Result       *resultView              `json:"result,omitempty"`
	DownloadURL  string                   `json:"download_url,omitempty"`
	DownloadName string                   `json:"download_name,omitempty"`
	Downloaded   bool                     `json:"downloaded"`
	Metadata     *classify.Classification `json:"metadata,omitempty"`
}

type listView struct {
	Jobs   []jobView  `json:"jobs"`
	Counts job.Counts `json:"counts"`
	Error  string     `json:"error,omitempty"`
}

type eventView struct {
	Type  job.EventType `json:"type"`
	JobID string        `json:"job_id,omitempty"`
	Job   *jobView      `json:"job,omitempty"`
	Error string        `json:"error,omitempty"`
}

func blobURL(h artifact.Handle) string {
	if h == "" {
		return ""
	}
	return "/blob/" + h.ID()
}

// newJobView projects a job for the browser. Metadata is attached only when
// detail is requested and tags were found.
func newJobView(j job.Job, detail bool) jobView {
	v := jobView{
		ID:         j.ID.String(),
		Name:       j.Source.Name,
		MIME:       j.Source.MIME,
		Size:       j.Source.Size(),
		SizeText:   core.FormatSize(j.Source.Size()),
		State:      j.State,
		Meta:       j.Meta,
		PreviewURL: blobURL(j.Preview),
		Applicable: j.Applicable.Keys(),
		Downloaded: j.Downloaded,
	}
	if v.Applicable == nil {
		v.Applicable = []core.OptionKey{}
	}
	if j.State == job.StatePending {
		v.Options = j.Options
	}
	if j.Result != nil {
		v.Result = &resultView{
			Result:           j.Result,
			OriginalSizeText: core.FormatSize(j.Result.OriginalSize),
			CleanedSizeText:  core.FormatSize(j.Result.CleanedSize),
		}
		v.DownloadName = artifact.FileName(j.Source.Name, j.Result.OutputFormat)
		if j.Download != "" {
			v.DownloadURL = blobURL(j.Download) + "?download=1"
		}
	}
	if detail && j.Meta == job.MetaLoaded {
		c := classify.Classify(j.Tags)
		v.Metadata = &c
	}
	return v
}

func newEventView(evt job.Event) eventView {
	v := eventView{Type: evt.Type, Error: evt.Error}
	if evt.Type != job.EventReset && evt.Type != job.EventError {
		v.JobID = evt.JobID.String()
	}
	if evt.Job != nil {
		jv := newJobView(*evt.Job, true)
		v.Job = &jv
	}
	return v
}

package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/artifact"
	"github.com/ankit-chaubey/picscrub/core/classify"
	"github.com/ankit-chaubey/picscrub/core/report"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (a *App) list() listView {
	jobs := a.jobs.List()
	out := listView{
		Jobs:   make([]jobView, 0, len(jobs)),
		Counts: a.jobs.Counts(),
		Error:  a.jobs.Err(),
	}
	for _, j := range jobs {
		out.Jobs = append(out.Jobs, newJobView(j, false))
	}
	return out
}

func (a *App) listJobs(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.list())
}

func jobID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, core.ErrJobNotFound
	}
	return id, nil
}

type uploadResponse struct {
	Jobs     []jobView `json:"jobs"`
	Rejected []string  `json:"rejected"`
}

func (a *App) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes+1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		a.logger.Warn("invalid multipart upload", "error", err)
		a.respondJSON(w, http.StatusBadRequest, errorBody{
			Error: fmt.Sprintf("invalid upload or larger than %s", core.FormatSize(a.maxUploadBytes)),
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		a.respondJSON(w, http.StatusBadRequest, errorBody{Error: "at least one file is required"})
		return
	}

	var (
		files    []core.SourceFile
		rejected = []string{}
	)
	for _, hdr := range headers {
		name := filepath.Base(strings.TrimSpace(hdr.Filename))
		mime := hdr.Header.Get("Content-Type")
		if mime == "application/octet-stream" {
			mime = ""
		}
		if !core.Accepts(name, mime) {
			rejected = append(rejected, name)
			continue
		}
		if mime == "" {
			mime = core.MIMEForName(name)
		}
		data, err := readPart(hdr)
		if err != nil {
			a.logger.Warn("failed to read upload", "file", name, "error", err)
			rejected = append(rejected, name)
			continue
		}
		if len(data) == 0 {
			rejected = append(rejected, name)
			continue
		}
		files = append(files, core.SourceFile{Name: name, MIME: mime, Data: data})
	}

	if len(files) == 0 {
		a.respondJSON(w, http.StatusUnsupportedMediaType, uploadResponse{Jobs: []jobView{}, Rejected: rejected})
		return
	}

	added := a.jobs.AddFiles(files)
	resp := uploadResponse{Jobs: make([]jobView, 0, len(added)), Rejected: rejected}
	for _, j := range added {
		resp.Jobs = append(resp.Jobs, newJobView(j, false))
	}
	a.respondJSON(w, http.StatusCreated, resp)
}

func readPart(hdr *multipart.FileHeader) ([]byte, error) {
	f, err := hdr.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (a *App) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	j, ok := a.jobs.Get(id)
	if !ok {
		a.respondError(w, core.ErrJobNotFound)
		return
	}
	a.respondJSON(w, http.StatusOK, newJobView(j, true))
}

func (a *App) setOptions(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxOptionsBody))
	if err != nil {
		a.respondError(w, fmt.Errorf("%w: %v", core.ErrInvalidInput, err))
		return
	}
	changes, err := decodeOptions(a.optionsSchema, body)
	if err != nil {
		a.respondError(w, err)
		return
	}
	for _, k := range core.OptionKeys {
		v, ok := changes[k]
		if !ok {
			continue
		}
		if err := a.jobs.SetOption(id, k, v); err != nil {
			a.respondError(w, err)
			return
		}
	}
	j, _ := a.jobs.Get(id)
	a.respondJSON(w, http.StatusOK, newJobView(j, false))
}

func (a *App) runOne(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if err := a.jobs.RunOne(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrJobNotFound) || errors.Is(err, core.ErrNotPending) {
			a.respondError(w, err)
			return
		}
		a.respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: a.jobs.Err()})
		return
	}
	j, ok := a.jobs.Get(id)
	if !ok {
		// removed while processing
		w.WriteHeader(http.StatusNoContent)
		return
	}
	a.respondJSON(w, http.StatusOK, newJobView(j, false))
}

func (a *App) runAll(w http.ResponseWriter, r *http.Request) {
	if err := a.jobs.RunAll(r.Context()); err != nil {
		a.logger.Warn("batch finished with failures", "error", err)
	}
	a.respondJSON(w, http.StatusOK, a.list())
}

type downloadResponse struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func (a *App) download(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	dl, err := a.jobs.Download(r.Context(), id)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, downloadResponse{URL: blobURL(dl.Handle) + "?download=1", Name: dl.Name})
}

func (a *App) removeJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if err := a.jobs.Remove(id); err != nil {
		a.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) reset(w http.ResponseWriter, r *http.Request) {
	a.jobs.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) report(w http.ResponseWriter, r *http.Request) {
	id, err := jobID(r)
	if err != nil {
		a.respondError(w, err)
		return
	}
	j, ok := a.jobs.Get(id)
	if !ok {
		a.respondError(w, core.ErrJobNotFound)
		return
	}
	data, err := report.Bytes([]report.Entry{{
		File:           j.Source.Name,
		Format:         core.DetectFormat(j.Source.Data),
		Size:           j.Source.Size(),
		Classification: classify.Classify(j.Tags),
		Result:         j.Result,
	}})
	if err != nil {
		a.respondError(w, err)
		return
	}
	name := strings.TrimSuffix(j.Source.Name, filepath.Ext(j.Source.Name)) + "-metadata.xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", attachment(name))
	_, _ = w.Write(data)
}

// blob serves a preview or download artifact. ?download=1 asks the browser
// to save it under its derived name.
func (a *App) blob(w http.ResponseWriter, r *http.Request) {
	h, ok := artifact.ParseHandle(chi.URLParam(r, "handle"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	b, ok := a.store.Open(h)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if b.MIME != "" {
		w.Header().Set("Content-Type", b.MIME)
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if b.MIME == "image/svg+xml" {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	}
	if r.URL.Query().Get("download") == "1" && b.Name != "" {
		w.Header().Set("Content-Disposition", attachment(b.Name))
	}
	http.ServeContent(w, r, "", time.Time{}, bytes.NewReader(b.Data))
}

func attachment(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	return `attachment; filename="` + name + `"`
}

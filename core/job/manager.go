package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/artifact"
	"github.com/ankit-chaubey/picscrub/core/meta"
	"github.com/google/uuid"
)

// Manager owns the job collection. Records are addressed by ID, never by
// position, so removals cannot misdirect an in-flight completion.
type Manager struct {
	extractor Extractor
	cleaner   Cleaner
	store     *artifact.Store
	download  DownloadFunc
	logger    *slog.Logger
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	jobs  map[uuid.UUID]Job
	order []uuid.UUID
	err   string

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDownload sets the sink that receives automatic and repeat downloads.
func WithDownload(fn DownloadFunc) Option {
	return func(m *Manager) {
		if fn != nil {
			m.download = fn
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a Manager. Call Close to stop background extraction.
func NewManager(ex Extractor, cl Cleaner, store *artifact.Store, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		extractor: ex,
		cleaner:   cl,
		store:     store,
		download:  func(context.Context, Download) error { return nil },
		logger:    slog.Default(),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[uuid.UUID]Job),
		subs:      make(map[int]chan Event),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Close cancels pending extractions and waits for them to return.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}

// Wait blocks until every started extraction has settled.
func (m *Manager) Wait() { m.wg.Wait() }

// ─── reads ───────────────────────────────────────────────────────────────────

// snapshot returns a copy safe to hand out. Tags and Applicable are never
// mutated after being set, so only Options needs copying.
func snapshot(j Job) Job {
	if j.Options != nil {
		j.Options = j.Options.Clone()
	}
	return j
}

// Get returns the job with the given ID.
func (m *Manager) Get(id uuid.UUID) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return snapshot(j), true
}

// List returns every job in insertion order.
func (m *Manager) List() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, snapshot(m.jobs[id]))
	}
	return out
}

// Counts tallies jobs by state.
func (m *Manager) Counts() Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c Counts
	for _, j := range m.jobs {
		switch j.State {
		case StatePending:
			c.Pending++
		case StateProcessing:
			c.Processing++
		case StateProcessed:
			c.Processed++
		}
	}
	return c
}

// Err returns the current user-visible error line, if any.
func (m *Manager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// ClearErr dismisses the user-visible error.
func (m *Manager) ClearErr() {
	m.mu.Lock()
	m.err = ""
	m.mu.Unlock()
}

// ─── writes ──────────────────────────────────────────────────────────────────

// replace stores next as the record for its ID and publishes the change.
// Callers hold m.mu.
func (m *Manager) replace(next Job) {
	m.jobs[next.ID] = next
	snap := snapshot(next)
	m.publish(Event{Type: EventUpdated, JobID: next.ID, Job: &snap})
}

func (m *Manager) fail(name string, err error) {
	m.err = "Failed to process " + name
	m.publish(Event{Type: EventError, Error: m.err})
	m.logger.Error("processing failed", "file", name, "error", err)
}

// AddFiles creates a pending job per file, each with a preview handle, and
// starts metadata extraction for each in the background.
func (m *Manager) AddFiles(files []core.SourceFile) []Job {
	added := make([]Job, 0, len(files))

	m.mu.Lock()
	m.err = ""
	for _, src := range files {
		mime := src.MIME
		if mime == "" {
			mime = core.MIMEType(core.DetectFormat(src.Data))
		}
		j := Job{
			ID:         uuid.New(),
			Source:     src,
			Preview:    m.store.CreateNamed(src.Data, mime, src.Name),
			AddedAt:    m.now(),
			State:      StatePending,
			Meta:       MetaLoading,
			Applicable: core.OptionSet{},
			Options:    core.Options{},
		}
		m.jobs[j.ID] = j
		m.order = append(m.order, j.ID)
		snap := snapshot(j)
		m.publish(Event{Type: EventAdded, JobID: j.ID, Job: &snap})
		added = append(added, snap)
		m.logger.Info("file added", "job_id", j.ID, "file", src.Name, "size", src.Size())
	}
	m.mu.Unlock()

	for _, j := range added {
		m.wg.Add(1)
		go m.extract(j.ID, j.Source)
	}
	return added
}

func (m *Manager) extract(id uuid.UUID, src core.SourceFile) {
	defer m.wg.Done()

	tags := m.extractor.Extract(m.ctx, src)
	applicable := meta.Applicable(tags, src)

	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[id]
	if !ok {
		m.logger.Debug("job removed before metadata settled", "job_id", id)
		return
	}
	next := cur
	next.Meta = MetaNone
	if len(tags) > 0 {
		next.Meta = MetaLoaded
		next.Tags = tags
	}
	next.Applicable = applicable
	if cur.State == StatePending {
		next.Options = mergeDefaults(applicable, cur.Options)
	}
	m.replace(next)
}

// mergeDefaults enables every applicable option, then applies choices the
// user already made.
func mergeDefaults(applicable core.OptionSet, chosen core.Options) core.Options {
	out := meta.Defaults(applicable)
	for k, v := range chosen {
		out[k] = v
	}
	return out
}

// SetOption changes one option of a pending job. It is a no-op, reported
// as ErrNotPending, for jobs in any other state.
func (m *Manager) SetOption(id uuid.UUID, key core.OptionKey, value bool) error {
	if _, ok := core.ParseOptionKey(string(key)); !ok {
		return fmt.Errorf("%w: unknown option %q", core.ErrInvalidInput, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[id]
	if !ok {
		return core.ErrJobNotFound
	}
	if cur.State != StatePending {
		return core.ErrNotPending
	}
	next := cur
	next.Options = cur.Options.Clone()
	next.Options[key] = value
	m.replace(next)
	return nil
}

// RunOne cleans a pending job. On success the job becomes processed and its
// result is delivered through the download sink; on failure it returns to
// pending with its options intact. Jobs that are not pending are left alone.
func (m *Manager) RunOne(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	cur, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return core.ErrJobNotFound
	}
	if cur.State != StatePending {
		m.mu.Unlock()
		return core.ErrNotPending
	}
	opts := cur.Options.Clone()
	metaAtStart := cur.Meta
	next := cur
	next.State = StateProcessing
	next.Options = nil
	m.replace(next)
	m.mu.Unlock()

	m.logger.Info("processing", "job_id", id, "file", cur.Source.Name)
	res, err := m.cleaner.Clean(ctx, cur.Source.Data, opts)

	m.mu.Lock()
	cur, ok = m.jobs[id]
	if !ok {
		m.mu.Unlock()
		m.logger.Info("job removed while processing, result discarded", "job_id", id)
		return nil
	}
	next = cur
	if err != nil {
		next.State = StatePending
		next.Options = opts
		if metaAtStart == MetaLoading && cur.Meta != MetaLoading {
			next.Options = mergeDefaults(cur.Applicable, opts)
		}
		m.replace(next)
		m.fail(cur.Source.Name, err)
		m.mu.Unlock()
		return fmt.Errorf("process %s: %w", cur.Source.Name, err)
	}

	dl := m.newDownload(cur, res)
	next.State = StateProcessed
	next.Result = res
	next.Download = dl.Handle
	next.Downloaded = true
	m.replace(next)
	m.mu.Unlock()

	m.logger.Info("processed", "job_id", id, "file", cur.Source.Name,
		"format", res.OriginalFormat, "output_format", res.OutputFormat,
		"original_size", res.OriginalSize, "cleaned_size", res.CleanedSize)
	return m.deliver(ctx, dl)
}

// RunAll cleans every currently pending job, one at a time, in insertion
// order. A failure does not stop the batch; all failures are returned
// joined.
func (m *Manager) RunAll(ctx context.Context) error {
	m.mu.Lock()
	var ids []uuid.UUID
	for _, id := range m.order {
		if m.jobs[id].State == StatePending {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := m.RunOne(ctx, id)
		if err == nil || errors.Is(err, core.ErrJobNotFound) || errors.Is(err, core.ErrNotPending) {
			continue
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Download re-delivers a processed job's result under a fresh handle and
// revokes the previous one.
func (m *Manager) Download(ctx context.Context, id uuid.UUID) (Download, error) {
	m.mu.Lock()
	cur, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return Download{}, core.ErrJobNotFound
	}
	if cur.State != StateProcessed {
		m.mu.Unlock()
		return Download{}, core.ErrNotProcessed
	}
	dl := m.newDownload(cur, cur.Result)
	if cur.Download != "" {
		m.store.Revoke(cur.Download)
	}
	next := cur
	next.Download = dl.Handle
	next.Downloaded = true
	m.replace(next)
	m.mu.Unlock()

	return dl, m.deliver(ctx, dl)
}

func (m *Manager) newDownload(j Job, res *core.Result) Download {
	name := artifact.FileName(j.Source.Name, res.OutputFormat)
	mime := core.MIMEType(res.OutputFormat)
	return Download{
		JobID:  j.ID,
		Name:   name,
		MIME:   mime,
		Handle: m.store.CreateNamed(res.Data, mime, name),
		Data:   res.Data,
	}
}

func (m *Manager) deliver(ctx context.Context, dl Download) error {
	if err := m.download(ctx, dl); err != nil {
		m.logger.Error("download failed", "job_id", dl.JobID, "file", dl.Name, "error", err)
		return fmt.Errorf("download %s: %w", dl.Name, err)
	}
	return nil
}

// Remove drops a job in any state and releases its handles. A cleaning
// call still in flight for it finishes, but its result is discarded.
func (m *Manager) Remove(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.jobs[id]
	if !ok {
		return core.ErrJobNotFound
	}
	delete(m.jobs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = slices.Delete(m.order, i, i+1)
			break
		}
	}
	m.release(cur)
	m.publish(Event{Type: EventRemoved, JobID: id})
	m.logger.Info("file removed", "job_id", id, "file", cur.Source.Name, "state", cur.State)
	return nil
}

// Reset removes every job and releases every handle.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		m.release(m.jobs[id])
	}
	n := len(m.order)
	m.jobs = make(map[uuid.UUID]Job)
	m.order = nil
	m.err = ""
	m.publish(Event{Type: EventReset})
	m.logger.Info("reset", "removed", n)
}

func (m *Manager) release(j Job) {
	m.store.Revoke(j.Preview)
	if j.Download != "" {
		m.store.Revoke(j.Download)
	}
}

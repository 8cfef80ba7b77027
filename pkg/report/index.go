package report

import (
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// progressDebounce is how long step updates are batched before a write.
const progressDebounce = 100 * time.Millisecond

// IndexWriter provides thread-safe updates to the report index.
// Every job goroutine updates the same index.
type IndexWriter struct {
	mu        sync.Mutex
	outputDir string
	path      string
	index     *Index
	log       *zap.Logger
	html      bool

	// Debouncing for progress updates
	pending   map[string]*ScenarioUpdate
	timer     *time.Timer
	immediate chan struct{}
	done      chan struct{}
	loopDone  chan struct{}
	closeOnce sync.Once
}

// IndexOption configures an IndexWriter.
type IndexOption func(*IndexWriter)

// WithLogger logs write failures.
func WithLogger(log *zap.Logger) IndexOption {
	return func(w *IndexWriter) { w.log = log }
}

// WithoutHTML disables report.html regeneration on flush.
func WithoutHTML() IndexOption {
	return func(w *IndexWriter) { w.html = false }
}

// NewIndexWriter creates a new IndexWriter. Close must be called to stop
// its flush goroutine.
func NewIndexWriter(outputDir string, index *Index, opts ...IndexOption) *IndexWriter {
	w := &IndexWriter{
		outputDir: outputDir,
		path:      filepath.Join(outputDir, "report.json"),
		index:     index,
		log:       zap.NewNop(),
		html:      true,
		pending:   make(map[string]*ScenarioUpdate),
		immediate: make(chan struct{}, 1),
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	go w.flushLoop()
	return w
}

// Start marks the run as started.
func (w *IndexWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.Status = StatusRunning
	w.index.StartTime = now
	w.flushLocked()
}

// UpdateScenario updates a job entry in the index.
// Terminal states flush immediately; progress updates are debounced.
func (w *IndexWriter) UpdateScenario(id string, update *ScenarioUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if prev, ok := w.pending[id]; ok {
		update = merge(prev, update)
	}
	w.pending[id] = update

	if update.Status.IsTerminal() {
		w.flushLocked()
		return
	}

	if w.timer == nil {
		w.timer = time.AfterFunc(progressDebounce, w.requestFlush)
	}
}

// merge keeps timing fields of an unflushed update when a later one
// leaves them unset.
func merge(prev, next *ScenarioUpdate) *ScenarioUpdate {
	out := *next
	if out.StartTime == nil {
		out.StartTime = prev.StartTime
	}
	if out.EndTime == nil {
		out.EndTime = prev.EndTime
	}
	if out.Duration == nil {
		out.Duration = prev.Duration
	}
	if out.Error == nil {
		out.Error = prev.Error
	}
	return &out
}

// RecordAttempt records a finished attempt of a retried job. The write is
// asynchronous.
func (w *IndexWriter) RecordAttempt(id string, attempt int, status Status, duration int64, errMsg, dataFile string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e := w.entry(id); e != nil {
		e.Attempts = attempt
		e.AttemptHistory = append(e.AttemptHistory, AttemptEntry{
			Attempt:  attempt,
			DataFile: dataFile,
			Status:   status,
			Duration: duration,
			Error:    errMsg,
		})
	}
	w.requestFlush()
}

// End marks the run as complete.
func (w *IndexWriter) End() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.EndTime = &now
	w.applyPending()
	w.index.Status = w.computeRunStatus()
	w.flushLocked()
}

// Close stops the flush goroutine and flushes any pending updates.
// It is safe to call more than once.
func (w *IndexWriter) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		<-w.loopDone
		w.flush()
	})
}

// Snapshot returns a copy of the current index.
func (w *IndexWriter) Snapshot() Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := *w.index
	cp.Scenarios = append([]ScenarioEntry(nil), w.index.Scenarios...)
	return cp
}

func (w *IndexWriter) requestFlush() {
	select {
	case w.immediate <- struct{}{}:
	default:
	}
}

// flushLoop handles asynchronous flush requests.
func (w *IndexWriter) flushLoop() {
	defer close(w.loopDone)
	for {
		select {
		case <-w.immediate:
			w.flush()
		case <-w.done:
			return
		}
	}
}

func (w *IndexWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
}

func (w *IndexWriter) applyPending() {
	for id, update := range w.pending {
		w.applyUpdate(id, update)
	}
	w.pending = make(map[string]*ScenarioUpdate)
}

// flushLocked applies pending updates and writes to disk.
func (w *IndexWriter) flushLocked() {
	w.applyPending()

	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	w.index.Summary = w.computeSummary()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	if err := atomicWriteJSON(w.path, w.index); err != nil {
		w.log.Warn("report index write failed", zap.Error(err))
		return
	}

	// Regenerate HTML for live file:// viewing
	if w.html {
		if err := renderIndexHTML(w.outputDir, w.index); err != nil {
			w.log.Warn("report html write failed", zap.Error(err))
		}
	}
}

func (w *IndexWriter) entry(id string) *ScenarioEntry {
	for i := range w.index.Scenarios {
		if w.index.Scenarios[i].ID == id {
			return &w.index.Scenarios[i]
		}
	}
	return nil
}

func (w *IndexWriter) applyUpdate(id string, update *ScenarioUpdate) {
	e := w.entry(id)
	if e == nil {
		return
	}
	e.Status = update.Status
	if update.StartTime != nil {
		e.StartTime = update.StartTime
	}
	if update.EndTime != nil {
		e.EndTime = update.EndTime
	}
	if update.Duration != nil {
		e.Duration = update.Duration
	}
	e.Steps = update.Steps
	e.Flaky = update.Flaky
	if update.Error != nil {
		e.Error = update.Error
	}
	e.UpdateSeq++
	now := time.Now()
	e.LastUpdated = &now
}

func (w *IndexWriter) computeSummary() Summary {
	var s Summary
	for _, e := range w.index.Scenarios {
		s.Total++
		switch e.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		case StatusPending:
			s.Pending++
		}
		if e.Flaky {
			s.Flaky++
		}
	}
	return s
}

// computeRunStatus determines overall run status from the jobs.
func (w *IndexWriter) computeRunStatus() Status {
	return runStatus(w.index.Scenarios)
}

func runStatus(entries []ScenarioEntry) Status {
	hasFailure := false
	for _, e := range entries {
		if !e.Status.IsTerminal() {
			return StatusRunning
		}
		if e.Status == StatusFailed {
			hasFailure = true
		}
	}
	if hasFailure {
		return StatusFailed
	}
	return StatusPassed
}

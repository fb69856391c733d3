package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/leiDanielAguila/recruiter-first/internal/platform/errs"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/requestid"
	"github.com/leiDanielAguila/recruiter-first/internal/resume"
)

// ErrBusy is returned by Submit while an analysis is outstanding.
var ErrBusy = errors.New("session: an analysis is already in progress")

const noFileMessage = "Please select a resume file."

// Machine drives one session through Upload, Loading, and Results.
//
// Each submission gets a generation number. A resolution whose generation is
// no longer current (the user went back, or the session was closed) is dropped.
type Machine struct {
	analyzer resume.Analyzer
	inspect  func(*resume.File) (resume.Summary, error)
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	state   State
	gen     uint64
	cancel  context.CancelFunc
	changed chan struct{}
}

// NewMachine returns a Machine in the Upload state.
func NewMachine(analyzer resume.Analyzer, logger *slog.Logger) *Machine {
	return &Machine{
		analyzer: analyzer,
		inspect:  resume.Inspect,
		logger:   logger,
		now:      time.Now,
		state:    Upload{},
		changed:  make(chan struct{}),
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Changed returns a channel that is closed on the next transition.
func (m *Machine) Changed() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changed
}

// Submit starts an analysis and moves to Loading. Without a selected file it
// stays in Upload with an error and returns that error. While Loading it
// returns ErrBusy and changes nothing.
//
// The analysis outlives ctx's cancellation (an HTTP handler returns right
// after submitting) but keeps its values, such as the request ID. Use Back or
// Close to cancel it.
func (m *Machine) Submit(ctx context.Context, file *resume.File, jobDescription string) error {
	hasFile := file != nil && len(file.Data) > 0

	// Parsing happens outside the lock so state polls are not held up by it.
	var summary resume.Summary
	if hasFile {
		var err error
		if summary, err = m.inspect(file); err != nil {
			m.logger.Debug("resume inspection failed", "file", file.Name, "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, loading := m.state.(Loading); loading {
		return ErrBusy
	}

	if !hasFile {
		m.transition(Upload{Err: noFileMessage, JobDescription: jobDescription})
		return errs.Invalid(noFileMessage)
	}

	m.gen++
	gen := m.gen
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel

	m.transition(Loading{Started: m.now(), FileName: file.Name, Pages: summary.Pages})
	go m.run(runCtx, gen, file, summary.Pages, jobDescription)
	return nil
}

// Back returns to an empty form. From Results it discards the result; from
// Loading it cancels the outstanding analysis; from Upload it clears the error.
func (m *Machine) Back() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.abort()
	m.transition(Upload{})
}

// Close cancels any outstanding analysis. The machine stays usable.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, loading := m.state.(Loading); loading {
		m.abort()
		m.transition(Upload{})
	}
}

// Wait blocks until the machine is not Loading and returns that state.
func (m *Machine) Wait(ctx context.Context) (State, error) {
	for {
		m.mu.Lock()
		s, ch := m.state, m.changed
		m.mu.Unlock()

		if _, loading := s.(Loading); !loading {
			return s, nil
		}

		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-ch:
		}
	}
}

func (m *Machine) run(ctx context.Context, gen uint64, file *resume.File, pages int, jobDescription string) {
	result, err := m.analyzer.Analyze(ctx, file, jobDescription)
	m.resolve(ctx, gen, Results{Result: result, FileName: file.Name, Pages: pages}, jobDescription, err)
}

func (m *Machine) resolve(ctx context.Context, gen uint64, done Results, jobDescription string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, loading := m.state.(Loading); gen != m.gen || !loading {
		m.logger.Debug("dropping stale analysis", "generation", gen, "request_id", requestid.FromContext(ctx))
		return
	}

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	if err != nil {
		m.transition(Upload{Err: errs.UserMessage(err), JobDescription: jobDescription})
		return
	}
	m.transition(done)
}

// abort cancels and invalidates the outstanding analysis, if any. m.mu must be held.
func (m *Machine) abort() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
}

// transition sets the state and wakes waiters. m.mu must be held.
func (m *Machine) transition(next State) {
	m.logger.Debug("session transition", "from", Name(m.state), "to", Name(next))
	m.state = next
	close(m.changed)
	m.changed = make(chan struct{})
}

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leiDanielAguila/recruiter-first/internal/model"
	"github.com/leiDanielAguila/recruiter-first/internal/resume"
	"github.com/leiDanielAguila/recruiter-first/internal/session"
)

const (
	sessionCookie = "rf_session"

	// formOverhead is allowed on top of the file size for the job description
	// and multipart framing.
	formOverhead = 1 << 20

	// visitCountTimeout bounds how long the landing page waits for the
	// analytics count before showing the local fallback.
	visitCountTimeout = 1500 * time.Millisecond
)

var errFileTooLarge = errors.New("resume exceeds the upload limit")

// VisitTracker is the analytics surface the landing page needs.
type VisitTracker interface {
	TrackVisit(ctx context.Context, userAgent, referrer string)
	VisitCount(ctx context.Context) int
}

// Handler serves the browser UI: landing page, upload form, loading screen,
// and results dashboard.
type Handler struct {
	sessions     *session.Registry
	tracker      VisitTracker
	pages        *template.Template
	maxUpload    int64
	countTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewHandler returns a Handler. maxUpload bounds the resume file size.
func NewHandler(sessions *session.Registry, tracker VisitTracker, maxUpload int64, logger *slog.Logger) *Handler {
	return &Handler{
		sessions:     sessions,
		tracker:      tracker,
		pages:        parsePages(),
		maxUpload:    maxUpload,
		countTimeout: visitCountTimeout,
		logger:       logger,
		now:          time.Now,
	}
}

// RegisterRoutes attaches the handler's routes to the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleLanding)
	mux.HandleFunc("GET /upload", h.handleView)
	mux.HandleFunc("POST /upload", h.handleSubmit)
	mux.HandleFunc("POST /back", h.handleBack)
	mux.HandleFunc("GET /report.json", h.handleReport)
	mux.HandleFunc("GET /health", h.handleHealth)
}

func (h *Handler) handleLanding(w http.ResponseWriter, r *http.Request) {
	// Analytics never hold up the page: the visit is recorded in the
	// background and the count falls back locally once the deadline passes.
	go h.tracker.TrackVisit(context.WithoutCancel(r.Context()), r.UserAgent(), r.Referer())

	ctx, cancel := context.WithTimeout(r.Context(), h.countTimeout)
	defer cancel()
	count := h.tracker.VisitCount(ctx)

	h.render(w, http.StatusOK, "landing", landingView{
		page:       page{Title: "Home"},
		VisitCount: count,
	})
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	m := h.session(w, r)

	switch s := m.State().(type) {
	case session.Loading:
		h.render(w, http.StatusOK, "loading", newLoadingView(s, h.now()))
	case session.Results:
		h.render(w, http.StatusOK, "results", newResultsView(s))
	case session.Upload:
		h.render(w, http.StatusOK, "upload", uploadView{
			page:           page{Title: "Post a New Job"},
			Error:          s.Err,
			JobDescription: s.JobDescription,
		})
	}
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	m := h.session(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+formOverhead)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.rejectForm(w, "", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	jobDescription := r.FormValue("job_description")

	file, err := readUpload(r, h.maxUpload)
	if err != nil {
		h.rejectForm(w, jobDescription, err)
		return
	}

	// Validation failures are already on the form via the session state. A
	// replayed POST while loading is dropped and lands back on the loading screen.
	if err := m.Submit(r.Context(), file, jobDescription); errors.Is(err, session.ErrBusy) {
		h.logger.Info("submission ignored while analysis is outstanding")
	}

	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

func (h *Handler) handleBack(w http.ResponseWriter, r *http.Request) {
	h.session(w, r).Back()
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	m := h.session(w, r)

	s, ok := m.State().(session.Results)
	if !ok {
		h.renderJSON(w, http.StatusNotFound, model.ErrorResponse{
			Error:      http.StatusText(http.StatusNotFound),
			StatusCode: http.StatusNotFound,
			Message:    "No analysis results to export.",
		})
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="match-report.json"`)
	h.renderJSON(w, http.StatusOK, s.Result)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.renderJSON(w, http.StatusOK, model.HealthStatus{Status: "healthy", Message: "Service is running"})
}

// rejectForm re-renders the form when the browser's upload could not be read
// at all. The session state is left untouched.
func (h *Handler) rejectForm(w http.ResponseWriter, jobDescription string, err error) {
	status := http.StatusBadRequest
	message := "The upload could not be read. Please try again."

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, errFileTooLarge) {
		status = http.StatusRequestEntityTooLarge
		message = "The selected file is too large."
	}
	h.logger.Warn("rejected upload", "error", err, "status", status)

	h.render(w, status, "upload", uploadView{
		page:           page{Title: "Post a New Job"},
		Error:          message,
		JobDescription: jobDescription,
	})
}

// readUpload returns the submitted resume, or nil when no file was chosen.
func readUpload(r *http.Request, limit int64) (*resume.File, error) {
	f, hdr, err := r.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if hdr.Size > limit {
		return nil, errFileTooLarge
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return resume.NewFile(hdr.Filename, hdr.Header.Get("Content-Type"), data), nil
}

// session resolves the caller's state machine and refreshes the cookie.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *session.Machine {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}

	m, id := h.sessions.Get(id)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return m
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leiDanielAguila/recruiter-first/internal/model"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/config"
)

const (
	keyVisitorID  = "visitor_id"
	keyLastVisit  = "last_visit"
	keyVisitCount = "visit_count"

	// SeedCount is the local visit count reported before anything was recorded.
	SeedCount = 1247

	visitInterval  = 24 * time.Hour
	requestTimeout = 5 * time.Second
)

// Tracker counts landing page visits against the analytics service, falling
// back to a local counter whenever the service cannot be reached. It never
// returns errors; failures are logged as warnings.
type Tracker struct {
	client    *http.Client
	endpoints config.Endpoints
	store     Store
	logger    *slog.Logger
	now       func() time.Time

	mu sync.Mutex // guards the eligibility check with its stamp, and the local counter
}

// NewTracker returns a Tracker using store for device-local state.
func NewTracker(endpoints config.Endpoints, store Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		client:    &http.Client{Timeout: requestTimeout},
		endpoints: endpoints,
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// VisitorID returns the persisted visitor identifier, generating it on first use.
func (t *Tracker) VisitorID() string {
	if id, ok := t.store.Get(keyVisitorID); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	if err := t.store.Set(keyVisitorID, id); err != nil {
		t.logger.Warn("failed to persist visitor id", "error", err)
	}
	return id
}

// TrackVisit records a visit at most once per 24 hours. An eligible visit is
// stamped first and then posted to the service; if the post fails the local
// counter is incremented instead. The network call runs without the lock, so
// callers that are not eligible return immediately.
func (t *Tracker) TrackVisit(ctx context.Context, userAgent, referrer string) {
	visit, ok := t.claimVisit(userAgent, referrer)
	if !ok {
		return
	}

	if err := t.postVisit(ctx, visit); err != nil {
		t.logger.Warn("failed to track visit, counting locally", "error", err)
		t.mu.Lock()
		t.incrementLocal()
		t.mu.Unlock()
	}
}

// claimVisit checks eligibility and stamps the last visit in one step, so
// concurrent landings in the same window produce a single visit.
func (t *Tracker) claimVisit(userAgent, referrer string) (model.Visit, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.eligible(now) {
		return model.Visit{}, false
	}

	if referrer == "" {
		referrer = "direct"
	}
	visit := model.Visit{
		VisitorID: t.VisitorID(),
		Timestamp: now.UTC().Format(time.RFC3339),
		UserAgent: userAgent,
		Referrer:  referrer,
	}

	if err := t.store.Set(keyLastVisit, visit.Timestamp); err != nil {
		t.logger.Warn("failed to persist last visit", "error", err)
	}
	return visit, true
}

// VisitCount returns the service's visit count, or the local counter when the
// service cannot be reached.
func (t *Tracker) VisitCount(ctx context.Context) int {
	count, err := t.fetchCount(ctx)
	if err != nil {
		t.logger.Warn("failed to fetch visit count, using local count", "error", err)
		return t.localCount()
	}
	return count
}

func (t *Tracker) eligible(now time.Time) bool {
	raw, ok := t.store.Get(keyLastVisit)
	if !ok {
		return true
	}
	last, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return true
	}
	return now.Sub(last) >= visitInterval
}

func (t *Tracker) postVisit(ctx context.Context, visit model.Visit) error {
	body, err := json.Marshal(visit)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoints.Visit, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("visit endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (t *Tracker) fetchCount(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoints.Visits, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("visits endpoint returned status %d", resp.StatusCode)
	}

	var vc model.VisitCount
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&vc); err != nil {
		return 0, fmt.Errorf("decode visit count: %w", err)
	}
	return vc.Count, nil
}

func (t *Tracker) localCount() int {
	raw, ok := t.store.Get(keyVisitCount)
	if !ok {
		return SeedCount
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return SeedCount
	}
	return n
}

func (t *Tracker) incrementLocal() {
	n := t.localCount() + 1
	if err := t.store.Set(keyVisitCount, strconv.Itoa(n)); err != nil {
		t.logger.Warn("failed to persist local visit count", "error", err)
	}
}

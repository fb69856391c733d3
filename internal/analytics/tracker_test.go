package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leiDanielAguila/recruiter-first/internal/model"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/config"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/logger"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type analyticsServer struct {
	*httptest.Server
	posts     atomic.Int32
	visitCode int
	countBody string
	countCode int
	mu        sync.Mutex
	lastVisit model.Visit
}

func newAnalyticsServer(t *testing.T) *analyticsServer {
	t.Helper()
	s := &analyticsServer{visitCode: http.StatusOK, countCode: http.StatusOK, countBody: `{"count": 5120}`}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analytics/visit", func(w http.ResponseWriter, r *http.Request) {
		s.posts.Add(1)
		var v model.Visit
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			t.Errorf("decode visit: %v", err)
		}
		s.mu.Lock()
		s.lastVisit = v
		s.mu.Unlock()
		w.WriteHeader(s.visitCode)
	})
	mux.HandleFunc("GET /api/analytics/visits", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(s.countCode)
		_, _ = w.Write([]byte(s.countBody))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestTracker(baseURL string, store Store, clock *fakeClock) *Tracker {
	tr := NewTracker(config.NewEndpoints(baseURL), store, logger.Discard())
	tr.now = clock.Now
	return tr
}

func startClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func TestTrackVisit_OncePerDay(t *testing.T) {
	srv := newAnalyticsServer(t)
	clock := startClock()
	tr := newTestTracker(srv.URL, NewMemoryStore(), clock)
	ctx := context.Background()

	tr.TrackVisit(ctx, "test-agent", "")
	clock.Advance(23 * time.Hour)
	tr.TrackVisit(ctx, "test-agent", "")

	if n := srv.posts.Load(); n != 1 {
		t.Fatalf("posts after two visits within 24h = %d, want 1", n)
	}

	clock.Advance(time.Hour)
	tr.TrackVisit(ctx, "test-agent", "")

	if n := srv.posts.Load(); n != 2 {
		t.Errorf("posts after crossing 24h = %d, want 2", n)
	}
}

func TestTrackVisit_Payload(t *testing.T) {
	srv := newAnalyticsServer(t)
	clock := startClock()
	store := NewMemoryStore()
	tr := newTestTracker(srv.URL, store, clock)

	tr.TrackVisit(context.Background(), "Mozilla/5.0", "")

	srv.mu.Lock()
	v := srv.lastVisit
	srv.mu.Unlock()

	if v.Referrer != "direct" {
		t.Errorf("Referrer = %q, want direct", v.Referrer)
	}
	if v.UserAgent != "Mozilla/5.0" {
		t.Errorf("UserAgent = %q, want Mozilla/5.0", v.UserAgent)
	}
	if v.Timestamp != "2026-03-01T09:00:00Z" {
		t.Errorf("Timestamp = %q, want 2026-03-01T09:00:00Z", v.Timestamp)
	}
	if id, _ := store.Get(keyVisitorID); v.VisitorID == "" || v.VisitorID != id {
		t.Errorf("VisitorID = %q, want persisted id %q", v.VisitorID, id)
	}
}

func TestTrackVisit_ReferrerKept(t *testing.T) {
	srv := newAnalyticsServer(t)
	tr := newTestTracker(srv.URL, NewMemoryStore(), startClock())

	tr.TrackVisit(context.Background(), "ua", "https://news.example.com/")

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.lastVisit.Referrer != "https://news.example.com/" {
		t.Errorf("Referrer = %q", srv.lastVisit.Referrer)
	}
}

func TestTrackVisit_FallbackOnServerError(t *testing.T) {
	srv := newAnalyticsServer(t)
	srv.visitCode = http.StatusInternalServerError
	clock := startClock()
	store := NewMemoryStore()
	tr := newTestTracker(srv.URL, store, clock)

	tr.TrackVisit(context.Background(), "ua", "")

	if got := tr.localCount(); got != SeedCount+1 {
		t.Errorf("local count = %d, want %d", got, SeedCount+1)
	}
	if _, ok := store.Get(keyLastVisit); !ok {
		t.Error("expected last visit to be stamped after a failed post")
	}

	clock.Advance(time.Hour)
	tr.TrackVisit(context.Background(), "ua", "")
	if n := srv.posts.Load(); n != 1 {
		t.Errorf("posts = %d, want 1 (no retry within 24h)", n)
	}
	if got := tr.localCount(); got != SeedCount+1 {
		t.Errorf("local count = %d, want unchanged %d", got, SeedCount+1)
	}
}

func TestTrackVisit_FallbackOnUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := NewMemoryStore()
	tr := newTestTracker(url, store, startClock())
	tr.TrackVisit(context.Background(), "ua", "")

	if got := tr.localCount(); got != SeedCount+1 {
		t.Errorf("local count = %d, want %d", got, SeedCount+1)
	}
}

func TestVisitorID_Stable(t *testing.T) {
	store := NewMemoryStore()
	tr := newTestTracker("http://localhost:1", store, startClock())

	first := tr.VisitorID()
	second := tr.VisitorID()
	if first == "" || first != second {
		t.Errorf("VisitorID() = %q then %q, want a stable non-empty id", first, second)
	}
}

func TestVisitCount(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		body  string
		local string
		want  int
	}{
		{name: "server count", code: http.StatusOK, body: `{"count": 5120}`, want: 5120},
		{name: "count absent", code: http.StatusOK, body: `{}`, want: 0},
		{name: "server error uses seed", code: http.StatusInternalServerError, body: ``, want: SeedCount},
		{name: "server error uses local", code: http.StatusBadGateway, body: ``, local: "1300", want: 1300},
		{name: "bad json uses seed", code: http.StatusOK, body: `nope`, want: SeedCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newAnalyticsServer(t)
			srv.countCode = tt.code
			srv.countBody = tt.body

			store := NewMemoryStore()
			if tt.local != "" {
				_ = store.Set(keyVisitCount, tt.local)
			}
			tr := newTestTracker(srv.URL, store, startClock())

			if got := tr.VisitCount(context.Background()); got != tt.want {
				t.Errorf("VisitCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTrackVisit_DoesNotWaitForInflightPost(t *testing.T) {
	release := make(chan struct{})
	var posts atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		posts.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { close(release) })

	tr := newTestTracker(ts.URL, NewMemoryStore(), startClock())
	go tr.TrackVisit(context.Background(), "ua", "")

	deadline := time.Now().Add(2 * time.Second)
	for posts.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first visit was never posted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		tr.TrackVisit(context.Background(), "ua", "")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TrackVisit blocked behind an outstanding post")
	}

	if n := posts.Load(); n != 1 {
		t.Errorf("posts = %d, want 1", n)
	}
}

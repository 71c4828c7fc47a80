package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingClient struct {
	calls atomic.Int32
}

func (c *failingClient) Do(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, errors.New("connection refused")
}

func newTestFollower(t *testing.T, client HTTPClient, tracker *ChainTracker) *RedirectFollower {
	t.Helper()
	return NewRedirectFollower(client, newTestClassifier(t, nil), tracker, DefaultMaxHops, http.MethodHead, zap.NewNop())
}

func TestFollow_SelfRedirectIsAbandonedAfterTenHops(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	}))
	defer srv.Close()

	tracker := NewChainTracker()
	f := newTestFollower(t, NewNoRedirectClient(2*time.Second), tracker)

	res := f.Follow(context.Background(), srv.URL+"/loop", DefaultCategories(), CheckContext{}, uuid.Nil)

	assert.Equal(t, OutcomeAbandoned, res.Outcome)
	assert.Equal(t, Result{}, res.Result)
	assert.Equal(t, int32(DefaultMaxHops), requests.Load())
	assert.Len(t, res.Trace, DefaultMaxHops)
	assert.Equal(t, 0, tracker.Len(), "minted chain must be removed")
}

func TestFollow_ResolvesPhishingTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "http://steamcommunnity.ru/tradeoffer/new")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer srv.Close()

	f := newTestFollower(t, NewNoRedirectClient(2*time.Second), NewChainTracker())
	res := f.Follow(context.Background(), srv.URL+"/short", DefaultCategories(), CheckContext{}, uuid.Nil)

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, flagged(CategoryPhishing, "steamcommunnity.ru"), res.Result)
	require.Len(t, res.Trace, 1)
	assert.Equal(t, http.StatusMovedPermanently, res.Trace[0].Status)
	assert.Equal(t, "http://steamcommunnity.ru/tradeoffer/new", res.Trace[0].Location)
}

func TestFollow_MultiHopRelativeLocations(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "c", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/c", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://grabify.link/XYZ")
		w.WriteHeader(http.StatusSeeOther)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newTestFollower(t, NewNoRedirectClient(2*time.Second), NewChainTracker())
	res := f.Follow(context.Background(), srv.URL+"/a", DefaultCategories(), CheckContext{}, uuid.Nil)

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, CategoryIPGrabber, res.Result.Category)
	require.Len(t, res.Trace, 3)
	assert.Equal(t, srv.URL+"/b", res.Trace[0].Location)
	assert.Equal(t, srv.URL+"/c", res.Trace[1].Location)
}

func TestFollow_NoLocationEndsChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFollower(t, NewNoRedirectClient(2*time.Second), NewChainTracker())
	res := f.Follow(context.Background(), srv.URL, DefaultCategories(), CheckContext{}, uuid.Nil)

	assert.Equal(t, OutcomeChainEnded, res.Outcome)
	assert.Equal(t, Result{}, res.Result)
	require.Len(t, res.Trace, 1)
	assert.Equal(t, http.StatusOK, res.Trace[0].Status)
}

func TestFollow_WhitelistedTargetStopsChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://www.youtube.com/watch?v=x", http.StatusFound)
	}))
	defer srv.Close()

	f := newTestFollower(t, NewNoRedirectClient(2*time.Second), NewChainTracker())
	res := f.Follow(context.Background(), srv.URL, AllCategories(), CheckContext{}, uuid.Nil)

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, VerdictWhitelisted, res.Result.Verdict)
}

func TestFollow_TransportFailure(t *testing.T) {
	client := &failingClient{}
	tracker := NewChainTracker()
	f := newTestFollower(t, client, tracker)

	res := f.Follow(context.Background(), "http://unreachable.invalid/", DefaultCategories(), CheckContext{}, uuid.Nil)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, Result{}, res.Result)
	assert.Equal(t, int32(1), client.calls.Load())
	assert.Equal(t, 0, tracker.Len())
}

func TestFollow_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := newTestFollower(t, NewNoRedirectClient(100*time.Millisecond), NewChainTracker())
	res := f.Follow(context.Background(), srv.URL, DefaultCategories(), CheckContext{}, uuid.Nil)

	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestFollow_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFollower(t, NewNoRedirectClient(2*time.Second), NewChainTracker())
	res := f.Follow(ctx, "http://127.0.0.1:1/", DefaultCategories(), CheckContext{}, uuid.Nil)

	assert.Equal(t, OutcomeCancelled, res.Outcome)
}

func TestFollow_SuppliedChainContinuesCounting(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Redirect(w, r, "/again", http.StatusFound)
	}))
	defer srv.Close()

	tracker := NewChainTracker()
	id := uuid.New()
	tracker.Track(id)
	for i := 0; i < DefaultMaxHops-3; i++ {
		tracker.Advance(id, DefaultMaxHops)
	}

	f := newTestFollower(t, NewNoRedirectClient(2*time.Second), tracker)
	res := f.Follow(context.Background(), srv.URL, DefaultCategories(), CheckContext{}, id)

	assert.Equal(t, OutcomeAbandoned, res.Outcome)
	assert.Equal(t, id, res.ChainID)
	assert.Equal(t, int32(3), requests.Load())
	assert.Equal(t, DefaultMaxHops, tracker.Hops(id), "caller owns supplied chains")
}

func TestNewRedirectFollower_Defaults(t *testing.T) {
	f := NewRedirectFollower(&failingClient{}, newTestClassifier(t, nil), NewChainTracker(), 0, "POST", zap.NewNop())

	assert.Equal(t, DefaultMaxHops, f.maxHops)
	assert.Equal(t, http.MethodHead, f.method)
}

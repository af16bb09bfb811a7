package poller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"iot-anomaly-engine/analytics"
	"iot-anomaly-engine/cache"
	"iot-anomaly-engine/models"
	"iot-anomaly-engine/thresholds"
)

func newTestEngine(t *testing.T) *analytics.Engine {
	t.Helper()
	store, err := thresholds.NewStore(context.Background(), cache.NewMemoryStore(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return analytics.NewEngine(analytics.NewDefaultPipeline(), store, nil, zap.NewNop(), nil)
}

func sourceSnapshot(n int) []models.SeriesPoint {
	base := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	points := make([]models.SeriesPoint, n)
	for i := range points {
		points[i] = models.SeriesPoint{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Value:     50,
		}
	}
	return points
}

func TestPollerFeedsEngine(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sourceSnapshot(25))
	}))
	defer src.Close()

	engine := newTestEngine(t)
	p := New(src.URL, time.Minute, engine, zap.NewNop())

	p.poll(context.Background())

	if got := engine.Summary().TotalPoints; got != 25 {
		t.Fatalf("engine holds %d points after poll, want 25", got)
	}
}

func TestPollerToleratesSourceErrors(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer src.Close()

	engine := newTestEngine(t)
	p := New(src.URL, time.Minute, engine, zap.NewNop())

	p.poll(context.Background())

	if got := engine.Summary().TotalPoints; got != 0 {
		t.Fatalf("failed poll must not feed the engine, got %d points", got)
	}
}

func TestPollerRunStopsOnCancel(t *testing.T) {
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(sourceSnapshot(5))
	}))
	defer src.Close()

	engine := newTestEngine(t)
	p := New(src.URL, 10*time.Millisecond, engine, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}

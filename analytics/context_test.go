package analytics

import (
	"testing"
	"time"

	"iot-anomaly-engine/models"
	"iot-anomaly-engine/thresholds"
)

func scoredSeries(t *testing.T, values []float64) []models.ScoredPoint {
	t.Helper()
	scored, _, err := NewDefaultPipeline().Run(makeSeries(values), thresholds.Normal())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return scored
}

func flatValues(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 50
	}
	return values
}

func TestContextWindowAtStart(t *testing.T) {
	series := scoredSeries(t, flatValues(20))

	window := ContextWindow(series, series[0].Timestamp)
	if len(window) != 6 {
		t.Fatalf("window length = %d, want 6", len(window))
	}
	for i := 0; i < 6; i++ {
		if !window[i].Timestamp.Equal(series[i].Timestamp) {
			t.Fatalf("window[%d] is not series[%d]", i, i)
		}
	}
}

func TestContextWindowAtEnd(t *testing.T) {
	series := scoredSeries(t, flatValues(20))

	window := ContextWindow(series, series[19].Timestamp)
	if len(window) != 6 {
		t.Fatalf("window length = %d, want 6", len(window))
	}
	if !window[len(window)-1].Timestamp.Equal(series[19].Timestamp) {
		t.Fatal("window must end exactly at the series boundary")
	}
}

func TestContextWindowInMiddle(t *testing.T) {
	series := scoredSeries(t, flatValues(20))

	window := ContextWindow(series, series[10].Timestamp)
	if len(window) != 11 {
		t.Fatalf("window length = %d, want 11", len(window))
	}
	if !window[5].Timestamp.Equal(series[10].Timestamp) {
		t.Fatal("anchor must sit in the middle of a full window")
	}
}

func TestContextWindowUnknownAnchor(t *testing.T) {
	series := scoredSeries(t, flatValues(20))

	window := ContextWindow(series, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	if len(window) != 0 {
		t.Fatalf("unknown anchor must produce an empty window, got %d points", len(window))
	}
}

func TestDefaultAnchorIsFirstAnomaly(t *testing.T) {
	values := flatValues(30)
	values[12] = 200
	values[22] = 200
	series := scoredSeries(t, values)

	anchor, ok := DefaultAnchor(series)
	if !ok {
		t.Fatal("expected a default anchor")
	}
	if !anchor.Equal(series[12].Timestamp) {
		t.Fatalf("default anchor = %v, want first anomaly at index 12", anchor)
	}
}

func TestDefaultAnchorNoAnomalies(t *testing.T) {
	series := scoredSeries(t, flatValues(30))

	if _, ok := DefaultAnchor(series); ok {
		t.Fatal("flat series must have no default anchor")
	}
}

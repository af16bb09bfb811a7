package analytics

import (
	"testing"
)

func TestMedianEmpty(t *testing.T) {
	if got := Median(nil); got != 0 {
		t.Fatalf("Median(nil) = %v, want 0", got)
	}
	if got := Median([]float64{}); got != 0 {
		t.Fatalf("Median([]) = %v, want 0", got)
	}
}

func TestMedianOdd(t *testing.T) {
	if got := Median([]float64{1, 3, 2}); got != 2 {
		t.Fatalf("Median([1,3,2]) = %v, want 2", got)
	}
}

func TestMedianEven(t *testing.T) {
	if got := Median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Fatalf("Median([1,2,3,4]) = %v, want 2.5", got)
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Fatalf("Median mutated input: %v", values)
	}
}

func TestRobustDeviation(t *testing.T) {
	// медиана 3, отклонения [2,1,0,1,97], их медиана 1
	if got := RobustDeviation([]float64{1, 2, 3, 4, 100}); got != 1 {
		t.Fatalf("RobustDeviation = %v, want 1", got)
	}
}

func TestRobustDeviationEmpty(t *testing.T) {
	if got := RobustDeviation(nil); got != 0 {
		t.Fatalf("RobustDeviation(nil) = %v, want 0", got)
	}
}

func TestRobustDeviationFromCenter(t *testing.T) {
	if got := RobustDeviationFrom([]float64{1, 2, 3}, 2); got != 1 {
		t.Fatalf("RobustDeviationFrom = %v, want 1", got)
	}
}

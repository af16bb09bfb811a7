package analytics

import (
	"math"
	"testing"
)

func TestRateOfChange(t *testing.T) {
	scores, flags := rateDetector{}.Run([]float64{50, 55, 53, 90, 91}, 20)

	if scores[0] != 0 || flags[0] {
		t.Fatalf("index 0: score %v flag %v, want 0/false", scores[0], flags[0])
	}
	if scores[3] != 37 || !flags[3] {
		t.Fatalf("index 3: score %v flag %v, want 37/true", scores[3], flags[3])
	}
	if scores[4] != 1 || flags[4] {
		t.Fatalf("index 4: score %v flag %v, want 1/false", scores[4], flags[4])
	}
}

func TestEwmaRecursion(t *testing.T) {
	d := ewmaDetector{alpha: 0.5, lambda: 0.5}
	scores, flags := d.Run([]float64{10, 20}, 2)

	if scores[0] != 0 || flags[0] {
		t.Fatalf("first point must have score 0 and no flag, got %v/%v", scores[0], flags[0])
	}

	// mean=15, std=5; ewma=17.5, diff=2.5, ewmstd=sqrt(0.5*25+0.5*6.25)
	want := 2.5 / math.Sqrt(15.625)
	if math.Abs(scores[1]-want) > 1e-9 {
		t.Fatalf("index 1 score = %v, want %v", scores[1], want)
	}
	if math.Abs(scores[1]-0.632) > 1e-3 {
		t.Fatalf("index 1 score = %v, want ≈0.632", scores[1])
	}
	if flags[1] {
		t.Fatal("index 1 must not be flagged at threshold 2")
	}
}

func TestEwmaShortSeries(t *testing.T) {
	d := ewmaDetector{alpha: DefaultEwmaAlpha, lambda: DefaultEwmaLambda}
	scores, flags := d.Run([]float64{42}, 2)
	if len(scores) != 1 || scores[0] != 0 || flags[0] {
		t.Fatalf("series of one point: %v/%v, want zero score and no flag", scores, flags)
	}
}

func TestHampelDeviationFloor(t *testing.T) {
	d := hampelDetector{window: 3}
	scores, flags := d.Run([]float64{10, 10, 10, 10, 10, 100, 10, 10}, 3)

	// окно индекса 5 это [10,100,10]: MAD 0, срабатывает нижняя граница 1e-6
	if !flags[5] {
		t.Fatal("index 5 must be flagged")
	}
	if scores[5] < 1e6 {
		t.Fatalf("index 5 score = %v, want very large (floored deviation)", scores[5])
	}
}

func TestHampelBoundaryWindows(t *testing.T) {
	d := hampelDetector{window: 7}
	values := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}
	scores, flags := d.Run(values, 3)

	// плоский ряд: каждая точка равна медиане окна, все оценки нулевые
	for i := range values {
		if scores[i] != 0 || flags[i] {
			t.Fatalf("index %d: score %v flag %v on flat series", i, scores[i], flags[i])
		}
	}
}

func TestHampelSeriesShorterThanWindow(t *testing.T) {
	d := hampelDetector{window: 7}
	scores, flags := d.Run([]float64{1, 2, 3, 4, 100, 6}, 3)

	for i := range scores {
		if scores[i] != 0 || flags[i] {
			t.Fatalf("series shorter than window must produce no anomalies, got index %d: %v/%v",
				i, scores[i], flags[i])
		}
	}
}

func TestZScoreDetector(t *testing.T) {
	scores, flags := zScoreDetector{}.Run([]float64{1, 1, 1, 100}, 1.5)

	if !flags[3] {
		t.Fatalf("index 3 must be flagged, score %v", scores[3])
	}
	// оценка знаковая: точки ниже среднего отрицательные
	if scores[0] >= 0 {
		t.Fatalf("index 0 score = %v, want negative", scores[0])
	}
	if flags[0] || flags[1] || flags[2] {
		t.Fatal("points near the mean must not be flagged")
	}
}

func TestZScoreFlatSeriesDoesNotPanic(t *testing.T) {
	scores, flags := zScoreDetector{}.Run([]float64{5, 5, 5, 5}, 2)
	for i := range scores {
		if scores[i] != 0 || flags[i] {
			t.Fatalf("flat series: index %d score %v flag %v", i, scores[i], flags[i])
		}
	}
}

func TestZScoreShortSeries(t *testing.T) {
	scores, flags := zScoreDetector{}.Run([]float64{7}, 2)
	if scores[0] != 0 || flags[0] {
		t.Fatal("series of one point must produce no anomalies")
	}
}

func TestMadDetector(t *testing.T) {
	scores, flags := madDetector{}.Run([]float64{1, 2, 3, 4, 100}, 3.5)

	// медиана 3, MAD 1: оценка точки 100 равна 97
	if scores[4] != 97 || !flags[4] {
		t.Fatalf("index 4: score %v flag %v, want 97/true", scores[4], flags[4])
	}
	if flags[0] || flags[1] || flags[2] || flags[3] {
		t.Fatal("inliers must not be flagged")
	}
}

func TestMadDetectorFlatSeriesFloor(t *testing.T) {
	scores, flags := madDetector{}.Run([]float64{5, 5, 5}, 3.5)
	for i := range scores {
		if scores[i] != 0 || flags[i] {
			t.Fatalf("flat series: index %d score %v flag %v", i, scores[i], flags[i])
		}
	}
}

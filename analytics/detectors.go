package analytics

import (
	"math"
)

// Константы деления на ноль: вместо ошибки подставляется нижняя граница,
// оценка становится очень большой, но детектор не падает на плоском ряду
const (
	stdDevFloor = 0.1
	madFloor    = 1e-6

	// hampelScale приводит MAD к масштабу стандартного отклонения
	// нормального распределения
	hampelScale = 1.4826
)

// Параметры по умолчанию
const (
	DefaultEwmaAlpha    = 0.1
	DefaultEwmaLambda   = 0.94
	DefaultHampelWindow = 7
)

// Detector одна из пяти независимых функций оценки. Каждая получает
// весь снимок значений и порог, возвращает оценку и флаг на каждую точку.
// Для вырожденного входа (короткий ряд) — нулевые оценки без аномалий,
// не ошибка.
type Detector interface {
	Name() string
	Run(values []float64, threshold float64) (scores []float64, flags []bool)
}

// Detectors фиксированный набор из пяти детекторов для конвейера
func Detectors(ewmaAlpha, ewmaLambda float64, hampelWindow int) []Detector {
	return []Detector{
		zScoreDetector{},
		madDetector{},
		ewmaDetector{alpha: ewmaAlpha, lambda: ewmaLambda},
		hampelDetector{window: hampelWindow},
		rateDetector{},
	}
}

// DefaultDetectors набор с параметрами по умолчанию
func DefaultDetectors() []Detector {
	return Detectors(DefaultEwmaAlpha, DefaultEwmaLambda, DefaultHampelWindow)
}

type zScoreDetector struct{}

func (zScoreDetector) Name() string { return "zScore" }

func (zScoreDetector) Run(values []float64, threshold float64) ([]float64, []bool) {
	scores := make([]float64, len(values))
	flags := make([]bool, len(values))
	if len(values) < 2 {
		return scores, flags
	}

	mean := meanOf(values)
	stdDev := stdDevOf(values, mean)
	if stdDev == 0 {
		stdDev = stdDevFloor
	}

	for i, v := range values {
		score := (v - mean) / stdDev
		scores[i] = score
		flags[i] = math.Abs(score) > threshold
	}
	return scores, flags
}

type madDetector struct{}

func (madDetector) Name() string { return "mad" }

func (madDetector) Run(values []float64, threshold float64) ([]float64, []bool) {
	scores := make([]float64, len(values))
	flags := make([]bool, len(values))
	if len(values) < 2 {
		return scores, flags
	}

	median := Median(values)
	deviation := RobustDeviationFrom(values, median)
	if deviation == 0 {
		deviation = madFloor
	}

	for i, v := range values {
		score := math.Abs(v-median) / deviation
		scores[i] = score
		flags[i] = score > threshold
	}
	return scores, flags
}

type ewmaDetector struct {
	alpha  float64
	lambda float64
}

func (ewmaDetector) Name() string { return "ewma" }

// Run строго последовательная рекурсия: состояние каждой точки зависит
// от предыдущей. Оценки среднего и дисперсии затравливаются глобальными
// mean/std снимка, чтобы начало ряда вело себя стабильно; первая точка
// всегда получает оценку 0.
func (d ewmaDetector) Run(values []float64, threshold float64) ([]float64, []bool) {
	scores := make([]float64, len(values))
	flags := make([]bool, len(values))
	if len(values) < 2 {
		return scores, flags
	}

	mean := meanOf(values)
	ewma := mean
	ewmstd := stdDevOf(values, mean)

	for i := 1; i < len(values); i++ {
		v := values[i]
		ewma = d.alpha*v + (1-d.alpha)*ewma
		diff := v - ewma
		ewmstd = math.Sqrt(d.lambda*ewmstd*ewmstd + (1-d.lambda)*diff*diff)

		score := math.Abs(v-ewma) / math.Max(ewmstd, stdDevFloor)
		scores[i] = score
		flags[i] = score > threshold
	}
	return scores, flags
}

type hampelDetector struct {
	window int
}

func (hampelDetector) Name() string { return "hampel" }

// Run скользящее окно [i-⌊w/2⌋, i+⌈w/2⌉); у краёв окна короче,
// без дополнения и заворачивания.
func (d hampelDetector) Run(values []float64, threshold float64) ([]float64, []bool) {
	n := len(values)
	scores := make([]float64, n)
	flags := make([]bool, n)
	if n < d.window {
		return scores, flags
	}

	half := d.window / 2
	for i, v := range values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + (d.window - half)
		if hi > n {
			hi = n
		}
		window := values[lo:hi]

		median := Median(window)
		deviation := RobustDeviationFrom(window, median)
		if deviation == 0 {
			deviation = madFloor
		}

		score := math.Abs(v-median) / (hampelScale * deviation)
		scores[i] = score
		flags[i] = score > threshold
	}
	return scores, flags
}

type rateDetector struct{}

func (rateDetector) Name() string { return "rate" }

// Run абсолютная разница с предыдущей точкой; первая точка всегда 0
func (rateDetector) Run(values []float64, threshold float64) ([]float64, []bool) {
	scores := make([]float64, len(values))
	flags := make([]bool, len(values))

	for i := 1; i < len(values); i++ {
		score := math.Abs(values[i] - values[i-1])
		scores[i] = score
		flags[i] = score > threshold
	}
	return scores, flags
}

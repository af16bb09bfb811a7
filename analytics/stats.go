package analytics

import (
	"math"
	"sort"
)

// Median возвращает медиану; для пустого среза определена как 0, не ошибка
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0.0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// RobustDeviation медиана абсолютных отклонений от медианы (MAD)
func RobustDeviation(values []float64) float64 {
	return RobustDeviationFrom(values, Median(values))
}

// RobustDeviationFrom то же, но с заранее вычисленным центром
func RobustDeviationFrom(values []float64, center float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - center)
	}
	return Median(deviations)
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDevOf стандартное отклонение генеральной совокупности
func stdDevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0.0
	}

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}

package models

import (
	"fmt"
	"math"
	"time"
)

// SeriesPoint одно показание датчика из внешнего источника
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ScoredPoint показание, обогащённое оценками всех пяти детекторов.
// Имена JSON-полей — контракт с потребителями (график, таблица), не менять.
type ScoredPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`

	ScoreZScore float64 `json:"scoreZScore"`
	ScoreMad    float64 `json:"scoreMad"`
	ScoreEwma   float64 `json:"scoreEwma"`
	ScoreHampel float64 `json:"scoreHampel"`
	ScoreRate   float64 `json:"scoreRate"`

	IsZScoreAnomaly bool `json:"isZScoreAnomaly"`
	IsMadAnomaly    bool `json:"isMadAnomaly"`
	IsEwmaAnomaly   bool `json:"isEwmaAnomaly"`
	IsHampelAnomaly bool `json:"isHampelAnomaly"`
	IsRateAnomaly   bool `json:"isRateAnomaly"`
}

// IsAnomaly true, если сработал хотя бы один детектор
func (p ScoredPoint) IsAnomaly() bool {
	return p.IsZScoreAnomaly || p.IsMadAnomaly || p.IsEwmaAnomaly ||
		p.IsHampelAnomaly || p.IsRateAnomaly
}

// DetectorCounts количество аномалий по каждому детектору за один прогон
type DetectorCounts struct {
	ZScore int `json:"zScore"`
	Mad    int `json:"mad"`
	Ewma   int `json:"ewma"`
	Hampel int `json:"hampel"`
	Rate   int `json:"rate"`
}

// DetectionSummary итог одного прогона конвейера
type DetectionSummary struct {
	SnapshotID  string         `json:"snapshot_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	TotalPoints int            `json:"total_points"`
	Counts      DetectorCounts `json:"counts"`
	// Anomalies объединение по всем детекторам, без дубликатов,
	// в исходном порядке по времени
	Anomalies []ScoredPoint `json:"anomalies"`
}

// ValidationError некорректные входные данные или повреждённая
// сохранённая конфигурация
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ValidateSeries проверяет инвариант упорядоченности снимка.
// Детекторы предполагают возрастающие временные метки и конечные значения.
func ValidateSeries(points []SeriesPoint) error {
	for i, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return NewValidationError("non-finite value at index %d", i)
		}
		if i > 0 && !points[i-1].Timestamp.Before(p.Timestamp) {
			return NewValidationError("series not in chronological order at index %d", i)
		}
	}
	return nil
}

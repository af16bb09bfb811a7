package analytics

import (
	"time"

	"iot-anomaly-engine/models"
)

// contextRadius точек до и после якоря; окно не длиннее 11 точек
const contextRadius = 5

// ContextWindow возвращает непрерывную окрестность точки с меткой anchor:
// срез [max(0,k-5), min(n,k+6)), у краёв ряда окно короче, без дополнения.
// Якорь ищется по точному равенству меток; если не найден — пустое окно.
func ContextWindow(series []models.ScoredPoint, anchor time.Time) []models.ScoredPoint {
	k := -1
	for i, p := range series {
		if p.Timestamp.Equal(anchor) {
			k = i
			break
		}
	}
	if k < 0 {
		return []models.ScoredPoint{}
	}

	lo := k - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := k + contextRadius + 1
	if hi > len(series) {
		hi = len(series)
	}

	window := make([]models.ScoredPoint, hi-lo)
	copy(window, series[lo:hi])
	return window
}

// DefaultAnchor якорь по умолчанию: первая аномалия снимка по времени.
// Если аномалий нет — якоря нет, ok=false.
func DefaultAnchor(series []models.ScoredPoint) (time.Time, bool) {
	for _, p := range series {
		if p.IsAnomaly() {
			return p.Timestamp, true
		}
	}
	return time.Time{}, false
}

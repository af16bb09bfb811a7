package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"iot-anomaly-engine/models"
	"iot-anomaly-engine/thresholds"
)

// AnomalyCallback вызывается после прогона, в котором найдены аномалии
type AnomalyCallback func(counts models.DetectorCounts)

// SummarySink внешний кэш последнего итога (Redis); может отсутствовать
type SummarySink interface {
	SaveSummary(ctx context.Context, summary models.DetectionSummary) error
}

// Engine держит последний размеченный снимок ряда. Каждый новый снимок —
// полностью новый вход: конвейер пересчитывает всё с нуля, прежний
// результат замещается целиком.
type Engine struct {
	pipeline  *Pipeline
	store     *thresholds.Store
	sink      SummarySink
	log       *zap.Logger
	onAnomaly AnomalyCallback
	onSummary func(models.DetectionSummary)

	mu      sync.RWMutex
	scored  []models.ScoredPoint
	summary models.DetectionSummary
}

func NewEngine(pipeline *Pipeline, store *thresholds.Store, sink SummarySink, log *zap.Logger, onAnomaly AnomalyCallback) *Engine {
	return &Engine{
		pipeline:  pipeline,
		store:     store,
		sink:      sink,
		log:       log,
		onAnomaly: onAnomaly,
	}
}

// SetSummaryHook подписка на каждый новый итог (push в websocket)
func (e *Engine) SetSummaryHook(fn func(models.DetectionSummary)) {
	e.onSummary = fn
}

// Ingest один синхронный прогон конвейера над свежим снимком.
// Активные пороги читаются атомарно перед запуском.
func (e *Engine) Ingest(ctx context.Context, points []models.SeriesPoint) (models.DetectionSummary, error) {
	active := e.store.Active()

	scored, summary, err := e.pipeline.Run(points, active)
	if err != nil {
		return models.DetectionSummary{}, err
	}
	summary.SnapshotID = uuid.NewString()
	summary.GeneratedAt = time.Now().UTC()

	e.mu.Lock()
	e.scored = scored
	e.summary = summary
	e.mu.Unlock()

	if len(summary.Anomalies) > 0 {
		e.log.Info("anomalies detected",
			zap.String("snapshot_id", summary.SnapshotID),
			zap.Int("points", summary.TotalPoints),
			zap.Int("anomalies", len(summary.Anomalies)))
		if e.onAnomaly != nil {
			e.onAnomaly(summary.Counts)
		}
	}

	if e.onSummary != nil {
		e.onSummary(summary)
	}

	if e.sink != nil {
		// сохраняем в кэш асинхронно, как и раньше при записи анализа
		go func(s models.DetectionSummary) {
			if err := e.sink.SaveSummary(context.Background(), s); err != nil {
				e.log.Warn("failed to cache detection summary", zap.Error(err))
			}
		}(summary)
	}

	return summary, nil
}

// Snapshot копия текущего размеченного ряда и итога
func (e *Engine) Snapshot() ([]models.ScoredPoint, models.DetectionSummary) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	scored := make([]models.ScoredPoint, len(e.scored))
	copy(scored, e.scored)
	return scored, e.summary
}

// Summary текущий итог
func (e *Engine) Summary() models.DetectionSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.summary
}

// ContextWindow окрестность якорной точки текущего снимка. Нулевой anchor
// означает "выбор не сделан": якорем становится первая аномалия,
// а при отсутствии аномалий окно пустое.
func (e *Engine) ContextWindow(anchor time.Time) []models.ScoredPoint {
	e.mu.RLock()
	scored := e.scored
	e.mu.RUnlock()

	if anchor.IsZero() {
		first, ok := DefaultAnchor(scored)
		if !ok {
			return []models.ScoredPoint{}
		}
		anchor = first
	}
	return ContextWindow(scored, anchor)
}

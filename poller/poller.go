package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"iot-anomaly-engine/analytics"
	"iot-anomaly-engine/models"
)

// Poller периодически забирает свежий снимок ряда у внешнего источника.
// Каждый снимок подаётся в движок как полностью новый вход.
type Poller struct {
	url      string
	interval time.Duration
	client   *http.Client
	engine   *analytics.Engine
	log      *zap.Logger
}

func New(url string, interval time.Duration, engine *analytics.Engine, log *zap.Logger) *Poller {
	return &Poller{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 15 * time.Second},
		engine:   engine,
		log:      log,
	}
}

// Run опрашивает источник до отмены контекста; первый опрос сразу
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("poller started",
		zap.String("url", p.url),
		zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	points, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.log.Warn("failed to fetch series snapshot", zap.Error(err))
		return
	}

	summary, err := p.engine.Ingest(ctx, points)
	if err != nil {
		p.log.Warn("snapshot rejected", zap.Error(err))
		return
	}

	p.log.Debug("snapshot processed",
		zap.String("snapshot_id", summary.SnapshotID),
		zap.Int("points", summary.TotalPoints),
		zap.Int("anomalies", len(summary.Anomalies)))
}

func (p *Poller) fetch(ctx context.Context) ([]models.SeriesPoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned status %d", resp.StatusCode)
	}

	var points []models.SeriesPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, err
	}
	return points, nil
}

package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"iot-anomaly-engine/analytics"
	"iot-anomaly-engine/models"
	"iot-anomaly-engine/thresholds"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	anomaliesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anomalies_detected_total",
			Help: "Total number of anomalies detected",
		},
		[]string{"detector"},
	)

	pointsIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "points_ingested_total",
			Help: "Total number of series points ingested",
		},
	)

	pipelineDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "Detection pipeline run duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// CountAnomalies колбэк движка: счётчики аномалий по детекторам
func CountAnomalies(counts models.DetectorCounts) {
	anomaliesDetectedTotal.WithLabelValues("zScore").Add(float64(counts.ZScore))
	anomaliesDetectedTotal.WithLabelValues("mad").Add(float64(counts.Mad))
	anomaliesDetectedTotal.WithLabelValues("ewma").Add(float64(counts.Ewma))
	anomaliesDetectedTotal.WithLabelValues("hampel").Add(float64(counts.Hampel))
	anomaliesDetectedTotal.WithLabelValues("rate").Add(float64(counts.Rate))
}

type ReadingHandler struct {
	engine *analytics.Engine
	store  *thresholds.Store
	log    *zap.Logger
}

func NewReadingHandler(engine *analytics.Engine, store *thresholds.Store, log *zap.Logger) *ReadingHandler {
	return &ReadingHandler{
		engine: engine,
		store:  store,
		log:    log,
	}
}

// HandleIngest принимает полный снимок ряда и запускает конвейер
func (h *ReadingHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	defer func() {
		duration := time.Since(start).Seconds()
		requestDurationSeconds.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	}()

	var points []models.SeriesPoint
	if err := json.NewDecoder(r.Body).Decode(&points); err != nil {
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	pipelineStart := time.Now()
	summary, err := h.engine.Ingest(r.Context(), points)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "500").Inc()
		http.Error(w, "Failed to run detection: "+err.Error(), http.StatusInternalServerError)
		return
	}
	pipelineDurationSeconds.Observe(time.Since(pipelineStart).Seconds())
	pointsIngestedTotal.Add(float64(len(points)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":      "accepted",
		"snapshot_id": summary.SnapshotID,
		"points":      summary.TotalPoints,
		"anomalies":   len(summary.Anomalies),
	})

	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "200").Inc()
}

// HandleSeries отдаёт текущий размеченный ряд
func (h *ReadingHandler) HandleSeries(w http.ResponseWriter, r *http.Request) {
	scored, _ := h.engine.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scored)
	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "200").Inc()
}

// HandleAnomalies отдаёт итог последнего прогона
func (h *ReadingHandler) HandleAnomalies(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.engine.Summary())
	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "200").Inc()
}

// HandleContext окрестность якорной аномалии; без параметра timestamp
// действует правило якоря по умолчанию
func (h *ReadingHandler) HandleContext(w http.ResponseWriter, r *http.Request) {
	var anchor time.Time
	if raw := r.URL.Query().Get("timestamp"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
			http.Error(w, "invalid timestamp, expected RFC3339", http.StatusBadRequest)
			return
		}
		anchor = t
	}

	window := h.engine.ContextWindow(anchor)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(window)
	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "200").Inc()
}

// HandleThresholds текущий режим, активный и custom-наборы
func (h *ReadingHandler) HandleThresholds(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"mode":   h.store.Mode(),
		"active": h.store.Active(),
		"custom": h.store.Custom(),
	})
	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "200").Inc()
}

// HandleSetMode переключает режим порогов
func (h *ReadingHandler) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	if err := h.store.SetMode(r.Context(), thresholds.Mode(body.Mode)); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "500").Inc()
		http.Error(w, "Failed to persist mode: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"mode":   h.store.Mode(),
		"active": h.store.Active(),
	})
	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "200").Inc()
}

// customFields фиксированный порядок применения полей custom-набора
var customFields = []string{"zScore", "mad", "ewma", "hampel", "rate"}

// HandleSetCustom обновляет поля custom-набора. Значения приходят строками;
// нечисловые отклоняются целиком, прежние значения сохраняются.
func (h *ReadingHandler) HandleSetCustom(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	// сначала проверяем весь запрос, чтобы не применить его частично
	for field, raw := range body {
		if !isCustomField(field) {
			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
			http.Error(w, "unknown threshold field "+field, http.StatusBadRequest)
			return
		}
		if value, err := strconv.ParseFloat(raw, 64); err != nil || value <= 0 ||
			math.IsNaN(value) || math.IsInf(value, 0) {
			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
			http.Error(w, "threshold "+field+" must be a positive number", http.StatusBadRequest)
			return
		}
	}

	for _, field := range customFields {
		raw, ok := body[field]
		if !ok {
			continue
		}
		if err := h.store.SetCustomValue(r.Context(), field, raw); err != nil {
			var verr *models.ValidationError
			if errors.As(err, &verr) {
				httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "400").Inc()
				http.Error(w, verr.Error(), http.StatusBadRequest)
				return
			}
			httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "500").Inc()
			http.Error(w, "Failed to persist thresholds: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"custom": h.store.Custom(),
	})
	httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, "200").Inc()
}

func isCustomField(field string) bool {
	for _, f := range customFields {
		if f == field {
			return true
		}
	}
	return false
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

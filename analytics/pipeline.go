package analytics

import (
	"sync"

	"iot-anomaly-engine/models"
	"iot-anomaly-engine/thresholds"
)

// Pipeline прогоняет пять детекторов по одному снимку ряда.
// Чистая функция от (снимок, активные пороги): одинаковый вход даёт
// побитно одинаковый выход, состояние между снимками не переносится.
type Pipeline struct {
	detectors []Detector
}

func NewPipeline(detectors []Detector) *Pipeline {
	return &Pipeline{detectors: detectors}
}

func NewDefaultPipeline() *Pipeline {
	return NewPipeline(DefaultDetectors())
}

type detectorOutput struct {
	scores []float64
	flags  []bool
}

// Run проверяет хронологический порядок снимка, запускает детекторы
// параллельно (каждый пишет в свои срезы, порядок между ними не важен)
// и сливает результаты в одну запись на точку
func (p *Pipeline) Run(points []models.SeriesPoint, set thresholds.Set) ([]models.ScoredPoint, models.DetectionSummary, error) {
	if err := models.ValidateSeries(points); err != nil {
		return nil, models.DetectionSummary{}, err
	}

	values := make([]float64, len(points))
	for i, pt := range points {
		values[i] = pt.Value
	}

	outputs := make([]detectorOutput, len(p.detectors))
	var wg sync.WaitGroup
	for i, d := range p.detectors {
		wg.Add(1)
		go func(i int, d Detector) {
			defer wg.Done()
			scores, flags := d.Run(values, thresholdFor(d.Name(), set))
			outputs[i] = detectorOutput{scores: scores, flags: flags}
		}(i, d)
	}
	wg.Wait()

	scored := make([]models.ScoredPoint, len(points))
	for i, pt := range points {
		sp := models.ScoredPoint{Timestamp: pt.Timestamp, Value: pt.Value}
		for j, d := range p.detectors {
			mergeDetector(&sp, d.Name(), outputs[j].scores[i], outputs[j].flags[i])
		}
		scored[i] = sp
	}

	summary := models.DetectionSummary{
		TotalPoints: len(scored),
		Anomalies:   []models.ScoredPoint{},
	}
	for _, sp := range scored {
		if sp.IsZScoreAnomaly {
			summary.Counts.ZScore++
		}
		if sp.IsMadAnomaly {
			summary.Counts.Mad++
		}
		if sp.IsEwmaAnomaly {
			summary.Counts.Ewma++
		}
		if sp.IsHampelAnomaly {
			summary.Counts.Hampel++
		}
		if sp.IsRateAnomaly {
			summary.Counts.Rate++
		}
		// объединение: точка попадает один раз, сколько бы детекторов
		// ни сработало
		if sp.IsAnomaly() {
			summary.Anomalies = append(summary.Anomalies, sp)
		}
	}

	return scored, summary, nil
}

func thresholdFor(name string, set thresholds.Set) float64 {
	switch name {
	case "zScore":
		return set.ZScore
	case "mad":
		return set.Mad
	case "ewma":
		return set.Ewma
	case "hampel":
		return set.Hampel
	case "rate":
		return set.Rate
	}
	return 0
}

func mergeDetector(sp *models.ScoredPoint, name string, score float64, flag bool) {
	switch name {
	case "zScore":
		sp.ScoreZScore, sp.IsZScoreAnomaly = score, flag
	case "mad":
		sp.ScoreMad, sp.IsMadAnomaly = score, flag
	case "ewma":
		sp.ScoreEwma, sp.IsEwmaAnomaly = score, flag
	case "hampel":
		sp.ScoreHampel, sp.IsHampelAnomaly = score, flag
	case "rate":
		sp.ScoreRate, sp.IsRateAnomaly = score, flag
	}
}

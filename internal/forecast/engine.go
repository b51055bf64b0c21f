// Package forecast implements the heat forecast model: a 7-day temperature
// projection with risk tiers and a retrainable bias.
package forecast

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
	"github.com/couchcryptid/heatwatch-service/internal/observability"
)

// ForecastDays is the number of points returned by Predict.
const ForecastDays = 7

// hotDatasetMeanC is the mean training temperature above which the model
// switches to the hot-climate bias.
const hotDatasetMeanC = 35.0

const (
	initialBias    = 1.2
	hotBias        = 1.5
	temperateBias  = 1.0
	initialWeightT = 0.6
	initialWeightH = 0.4
)

// Rand is the random source used for forecast noise, confidence and the
// simulated accuracy score. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// ModelState is the tunable part of the model.
type ModelState struct {
	Bias                float64 `json:"bias"`
	WeightTemp          float64 `json:"weight_temp"`
	WeightHumidity      float64 `json:"weight_humidity"`
	TrainingSampleCount int     `json:"training_sample_count"`
}

// TrainReport summarizes a training run. Accuracy is a simulated score drawn
// from [0.85, 0.95]; the dataset carries no labels to measure against, so
// Simulated is always true.
type TrainReport struct {
	Accuracy    float64 `json:"accuracy"`
	SampleCount int     `json:"sample_count"`
	Simulated   bool    `json:"simulated"`
}

// Engine owns the model state. It is safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	state   ModelState
	dataset []domain.HistoricalRecord

	rngMu sync.Mutex
	rng   Rand

	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEngine creates an untrained engine. A nil rng uses the process-wide
// math/rand/v2 source.
func NewEngine(rng Rand, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	if rng == nil {
		rng = globalRand{}
	}
	e := &Engine{
		state: ModelState{
			Bias:           initialBias,
			WeightTemp:     initialWeightT,
			WeightHumidity: initialWeightH,
		},
		rng:     rng,
		logger:  logger,
		metrics: metrics,
	}
	metrics.ModelBias.Set(initialBias)
	return e
}

// Train replaces the model state from a historical dataset.
func (e *Engine) Train(records []domain.HistoricalRecord) (TrainReport, error) {
	if len(records) == 0 {
		return TrainReport{}, fmt.Errorf("train model: %w: dataset is empty", domain.ErrInvalidInput)
	}

	var sum float64
	for i, r := range records {
		if !isFinite(r.AvgTemp) {
			return TrainReport{}, fmt.Errorf("train model: %w: record %d has non-finite avgTemp", domain.ErrInvalidInput, i)
		}
		sum += r.AvgTemp
	}
	mean := sum / float64(len(records))

	bias := temperateBias
	if mean > hotDatasetMeanC {
		bias = hotBias
	}

	dataset := make([]domain.HistoricalRecord, len(records))
	copy(dataset, records)

	e.mu.Lock()
	e.state.Bias = bias
	e.state.TrainingSampleCount = len(records)
	e.dataset = dataset
	e.mu.Unlock()

	report := TrainReport{
		Accuracy:    0.85 + e.draw()*0.1,
		SampleCount: len(records),
		Simulated:   true,
	}

	e.metrics.ModelTrainings.Inc()
	e.metrics.ModelBias.Set(bias)
	e.logger.Info("model trained",
		"samples", len(records),
		"mean_temp_c", mean,
		"bias", bias,
		"accuracy", report.Accuracy,
	)
	return report, nil
}

// Predict projects ForecastDays daily temperatures starting today. Each
// point's risk tier is classified from its rounded temperature.
func (e *Engine) Predict(currentTempC float64) ([]domain.PredictionPoint, error) {
	if !isFinite(currentTempC) {
		return nil, fmt.Errorf("predict: %w: temperature %v is not finite", domain.ErrInvalidInput, currentTempC)
	}

	bias := e.State().Bias
	now := domain.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	e.rngMu.Lock()
	defer e.rngMu.Unlock()

	points := make([]domain.PredictionPoint, ForecastDays)
	for i := range points {
		day := today.AddDate(0, 0, i)
		trend := math.Sin(float64(i)) * 2
		noise := e.rng.Float64() - 0.5
		temp := roundTenth(currentTempC + trend + noise + bias*0.5)

		points[i] = domain.PredictionPoint{
			DayLabel:     day.Format("Mon"),
			ISODate:      day.Format(time.DateOnly),
			TemperatureC: temp,
			RiskTier:     domain.Classify(temp),
			Confidence:   0.8 + e.rng.Float64()*0.15,
		}
	}

	e.metrics.Predictions.Inc()
	return points, nil
}

// Classify maps a temperature to its risk tier.
func (e *Engine) Classify(tempC float64) domain.RiskTier {
	return domain.Classify(tempC)
}

// State returns a copy of the current model state.
func (e *Engine) State() ModelState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Dataset returns a copy of the records from the last successful Train.
func (e *Engine) Dataset() []domain.HistoricalRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.HistoricalRecord, len(e.dataset))
	copy(out, e.dataset)
	return out
}

func (e *Engine) draw() float64 {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Float64()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func roundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}

package dataset

import (
	"math"
	"time"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
)

// MockSource labels generated records.
const MockSource = "Sentinel-3"

// Rand supplies uniform values in [0, 1).
type Rand interface {
	Float64() float64
}

// GenerateMock returns days of synthetic satellite readings ending the day
// before end, oldest first. Temperatures fall in [32, 37) and humidity in
// [60, 80), both rounded to one decimal.
func GenerateMock(end time.Time, days int, rng Rand) []domain.HistoricalRecord {
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	records := make([]domain.HistoricalRecord, days)
	for i := range records {
		day := end.AddDate(0, 0, i-days)
		records[i] = domain.HistoricalRecord{
			Date:     day.Format(time.DateOnly),
			AvgTemp:  roundTenth(32 + rng.Float64()*5),
			Humidity: roundTenth(60 + rng.Float64()*20),
			Source:   MockSource,
		}
	}
	return records
}

func roundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}

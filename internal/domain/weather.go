package domain

import "time"

// CurrentConditions is a point-in-time weather reading for a location.
type CurrentConditions struct {
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_pct"`
	UVIndex      float64   `json:"uv_index"`
	WindKph      float64   `json:"wind_kph"`
	ObservedAt   time.Time `json:"observed_at,omitempty"`
}

// HistoricalRecord is one day of a training dataset, typically derived from
// satellite observations.
type HistoricalRecord struct {
	Date     string  `json:"date"`
	AvgTemp  float64 `json:"avgTemp"`
	Humidity float64 `json:"humidity"`
	Source   string  `json:"recordedAt"`
}

// PredictionPoint is one day of a 7-day forecast.
type PredictionPoint struct {
	DayLabel     string   `json:"day"`
	ISODate      string   `json:"date"`
	TemperatureC float64  `json:"temp"`
	RiskTier     RiskTier `json:"riskLevel"`
	Confidence   float64  `json:"confidence"`
}

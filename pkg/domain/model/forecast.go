package model

import "time"

// ForecastPoint is a single step of a time-series forecast
type ForecastPoint struct {
	Timestamp      time.Time
	PointEstimate  float64
	StandardError  float64
	ConfidenceLow  float64
	ConfidenceHigh float64
}

// Forecast is the ordered output of the time-series forecast service
type Forecast struct {
	Horizon         int
	ConfidenceLevel float64
	Points          []ForecastPoint
}

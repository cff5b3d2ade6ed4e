package types

import "time"

// MeasurementCount is the length of the daily measurement vector.
const MeasurementCount = 16

// DataTypeSynoptic tags a summary derived from synoptic observations.
const DataTypeSynoptic = "SY"

// DailySummary is the 16-slot measurement vector of one station for one UTC
// calendar date. An empty slot means no usable data.
type DailySummary struct {
	ID           int64                    `json:"id,omitempty"`
	StationID    string                   `json:"stationId,omitempty"`
	StationNo    string                   `json:"stationNo"`
	Date         string                   `json:"date"`
	DataType     string                   `json:"dataType"`
	Year         int                      `json:"year"`
	Month        int                      `json:"month"`
	Day          int                      `json:"day"`
	Measurements [MeasurementCount]string `json:"measurements"`
	CreatedAt    time.Time                `json:"createdAt"`
}

type ComputeRequest struct {
	StationID string `json:"stationId"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
}

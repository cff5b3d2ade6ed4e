package types

import "time"

// Where a record came from.
const (
	SourceManual = "manual"
	SourceSensor = "sensor"
)

// SunshineRecord is the bright sunshine duration of a station on one date.
type SunshineRecord struct {
	StationID string    `json:"stationId"`
	Date      string    `json:"date"`
	Hours     float64   `json:"hours"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SoilMoistureRecord is one soil moisture reading at a depth.
type SoilMoistureRecord struct {
	StationID   string    `json:"stationId"`
	ObservedAt  time.Time `json:"observedAt"`
	DepthCM     int       `json:"depthCm"`
	MoisturePct float64   `json:"moisturePct"`
	Source      string    `json:"source"`
}

type SunshineInput struct {
	StationID string   `json:"stationId"`
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	Hours     *float64 `json:"hours" validate:"required,gte=0,lte=24"`
}

type SoilMoistureInput struct {
	StationID   string    `json:"stationId"`
	ObservedAt  time.Time `json:"observedAt" validate:"required"`
	DepthCM     int       `json:"depthCm" validate:"required,gt=0,lte=500"`
	MoisturePct *float64  `json:"moisturePct" validate:"required,gte=0,lte=100"`
}

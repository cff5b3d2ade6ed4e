package mqtt

import (
	"fmt"
	"time"
)

// Telemetry kinds published by automatic agro sensors.
const (
	KindSunshine     = "sunshine"
	KindSoilMoisture = "soil_moisture"
)

// Telemetry is one reading published by an automatic sensor. Which of the
// optional fields are set depends on Kind.
type Telemetry struct {
	StationNo string    `json:"station_no"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`

	// sunshine
	Date  string   `json:"date,omitempty"`
	Hours *float64 `json:"hours,omitempty"`

	// soil_moisture
	DepthCM     *int     `json:"depth_cm,omitempty"`
	MoisturePct *float64 `json:"moisture_pct,omitempty"`
}

func validateTelemetry(t Telemetry) error {
	if t.StationNo == "" {
		return fmt.Errorf("station_no is required")
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	switch t.Kind {
	case KindSunshine:
		if t.Hours == nil {
			return fmt.Errorf("hours is required for %s", t.Kind)
		}
		if *t.Hours < 0 || *t.Hours > 24 {
			return fmt.Errorf("hours out of range: %f (must be 0-24)", *t.Hours)
		}
		if t.Date != "" {
			if _, err := time.Parse(time.DateOnly, t.Date); err != nil {
				return fmt.Errorf("date %q is not YYYY-MM-DD", t.Date)
			}
		}
	case KindSoilMoisture:
		if t.DepthCM == nil || t.MoisturePct == nil {
			return fmt.Errorf("depth_cm and moisture_pct are required for %s", t.Kind)
		}
		if *t.DepthCM <= 0 {
			return fmt.Errorf("depth_cm must be positive: %d", *t.DepthCM)
		}
		if *t.MoisturePct < 0 || *t.MoisturePct > 100 {
			return fmt.Errorf("moisture_pct out of range: %f (must be 0-100)", *t.MoisturePct)
		}
	default:
		return fmt.Errorf("unknown kind %q (allowed: %s, %s)", t.Kind, KindSunshine, KindSoilMoisture)
	}
	return nil
}

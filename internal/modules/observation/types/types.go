package types

import "time"

// ObservingTime is one synoptic slot instance of a station. There is at most
// one per (StationID, UTCTime).
type ObservingTime struct {
	ID        string    `json:"id"`
	StationID string    `json:"stationId"`
	UTCTime   time.Time `json:"utcTime"`
	LocalTime time.Time `json:"localTime"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FirstStageFields are the instrument readings of the meteorological entry,
// kept exactly as the observer typed them.
type FirstStageFields struct {
	SubIndicator               string `json:"subIndicator" validate:"max=8"`
	AlteredThermometer         string `json:"alteredThermometer" validate:"max=8"`
	BarAsRead                  string `json:"barAsRead" validate:"omitempty,numeric"`
	CorrectedForIndex          string `json:"correctedForIndex" validate:"omitempty,numeric"`
	HeightDifferenceCorrection string `json:"heightDifferenceCorrection" validate:"omitempty,numeric"`
	StationLevelPressure       string `json:"stationLevelPressure" validate:"omitempty,numeric"`
	SeaLevelReduction          string `json:"seaLevelReduction" validate:"omitempty,numeric"`
	CorrectedSeaLevelPressure  string `json:"correctedSeaLevelPressure" validate:"omitempty,numeric"`
	AfternoonReading           string `json:"afternoonReading" validate:"omitempty,numeric"`
	PressureChange24h          string `json:"pressureChange24h" validate:"omitempty,numeric"`
	DryBulbAsRead              string `json:"dryBulbAsRead" validate:"omitempty,numeric"`
	WetBulbAsRead              string `json:"wetBulbAsRead" validate:"omitempty,numeric"`
	MaxMinTempAsRead           string `json:"maxMinTempAsRead" validate:"omitempty,numeric"`
	DryBulbCorrected           string `json:"dryBulbCorrected" validate:"omitempty,numeric"`
	WetBulbCorrected           string `json:"wetBulbCorrected" validate:"omitempty,numeric"`
	MaxMinTempCorrected        string `json:"maxMinTempCorrected" validate:"omitempty,numeric"`
	DewPoint                   string `json:"Td" validate:"omitempty,numeric"`
	RelativeHumidity           string `json:"relativeHumidity" validate:"omitempty,numeric"`
	HorizontalVisibility       string `json:"horizontalVisibility" validate:"omitempty,numeric"`
	PresentWeatherWW           string `json:"presentWeatherWW" validate:"max=8"`
	PastWeatherW1              string `json:"pastWeatherW1" validate:"max=8"`
	PastWeatherW2              string `json:"pastWeatherW2" validate:"max=8"`
}

// FirstStageEntry is the meteorological entry attached to an ObservingTime.
type FirstStageEntry struct {
	ID              string    `json:"id"`
	ObservingTimeID string    `json:"observingTimeId"`
	UserID          string    `json:"userId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	FirstStageFields
}

// SecondStageFields are the derived and observed values of the weather
// observation. Rainfall times are "HH:MM".
type SecondStageFields struct {
	LowCloudForm           string `json:"lowCloudForm" validate:"max=8"`
	LowCloudAmount         string `json:"lowCloudAmount" validate:"omitempty,numeric"`
	LowCloudHeight         string `json:"lowCloudHeight" validate:"max=8"`
	TotalCloudAmount       string `json:"totalCloudAmount" validate:"omitempty,numeric"`
	RainfallTimeStart      string `json:"rainfallTimeStart" validate:"max=25"`
	RainfallTimeEnd        string `json:"rainfallTimeEnd" validate:"max=25"`
	RainfallSincePrevious  string `json:"rainfallSincePrevious" validate:"omitempty,numeric"`
	RainfallDuringPrevious string `json:"rainfallDuringPrevious" validate:"omitempty,numeric"`
	RainfallLast24Hours    string `json:"rainfallLast24Hours" validate:"omitempty,numeric"`
	WindFirstAnemometer    string `json:"windFirstAnemometer" validate:"omitempty,numeric"`
	WindSecondAnemometer   string `json:"windSecondAnemometer" validate:"omitempty,numeric"`
	WindSpeed              string `json:"windSpeed" validate:"omitempty,numeric"`
	WindDirection          string `json:"windDirection" validate:"max=8"`
	ObserverInitial        string `json:"observerInitial" validate:"max=8"`
}

// SecondStageEntry is the weather observation attached to an ObservingTime.
// Creating it closes the slot.
type SecondStageEntry struct {
	ID              string    `json:"id"`
	ObservingTimeID string    `json:"observingTimeId"`
	UserID          string    `json:"userId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	SecondStageFields
}

// Slot is an ObservingTime together with what has been attached to it.
type Slot struct {
	Time              ObservingTime
	FirstStageCount   int
	SecondStageCount  int
	FirstStageEntries []FirstStageEntry
}

// ObservationRecord is one ObservingTime of a day with its entries.
type ObservationRecord struct {
	ObservingTime
	FirstStage  []FirstStageEntry  `json:"firstStage"`
	SecondStage []SecondStageEntry `json:"secondStage"`
}

type YesterdayData struct {
	FirstStageEntries []FirstStageEntry `json:"firstStageEntries"`
}

// SlotDecision answers which card may be submitted now for an hour.
type SlotDecision struct {
	AllowFirstCard  bool           `json:"allowFirstCard"`
	AllowSecondCard bool           `json:"allowSecondCard"`
	Message         string         `json:"message"`
	Time            *ObservingTime `json:"time,omitempty"`
	Yesterday       YesterdayData  `json:"yesterday"`
}

type TimeCheckRequest struct {
	Hour      string `json:"hour" validate:"required"`
	StationID string `json:"stationId"`
}

type FirstStageRequest struct {
	Hour      string `json:"hour" validate:"required"`
	StationID string `json:"stationId"`
	FirstStageFields
}

type SecondStageRequest struct {
	Hour      string `json:"hour" validate:"required"`
	StationID string `json:"stationId"`
	SecondStageFields
}

package types

type Station struct {
	ID        string   `json:"id"`
	StationNo string   `json:"stationNo"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Elevation *float64 `json:"elevation,omitempty"`
	Timezone  string   `json:"timezone"`
}

// StationInput is the body of create and update requests.
type StationInput struct {
	StationNo string   `json:"stationNo" validate:"required,max=16"`
	Name      string   `json:"name" validate:"required,max=128"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Elevation *float64 `json:"elevation"`
	Timezone  string   `json:"timezone" validate:"omitempty,timezone"`
}

func (in StationInput) Station(id string) Station {
	tz := in.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return Station{
		ID:        id,
		StationNo: in.StationNo,
		Name:      in.Name,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Elevation: in.Elevation,
		Timezone:  tz,
	}
}

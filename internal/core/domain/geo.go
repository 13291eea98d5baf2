package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// CoordinateError reports a coordinate outside its valid range.
type CoordinateError struct {
	Field string
	Value float64
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("%v is an invalid input for %s", e.Value, e.Field)
}

func (e *CoordinateError) Unwrap() error { return ErrInvalidRequest }

// ValidateLatitude checks lat is within [-90, 90].
func ValidateLatitude(lat float64) error {
	if lat < -90 || lat > 90 {
		return &CoordinateError{Field: string(FieldLatitude), Value: lat}
	}
	return nil
}

// ValidateLongitude checks lon is within [-180, 180].
func ValidateLongitude(lon float64) error {
	if lon < -180 || lon > 180 {
		return &CoordinateError{Field: string(FieldLongitude), Value: lon}
	}
	return nil
}

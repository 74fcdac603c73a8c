package models

import "strings"

// PlacePrediction is one autocomplete suggestion.
type PlacePrediction struct {
	PlaceID       string `json:"placeId"`
	Description   string `json:"description"`
	MainText      string `json:"mainText"`
	SecondaryText string `json:"secondaryText,omitempty"`
}

// PlaceDetails is the resolved location of a place id.
type PlaceDetails struct {
	PlaceID          string   `json:"placeId"`
	Name             string   `json:"name,omitempty"`
	FormattedAddress string   `json:"formattedAddress"`
	Location         GeoPoint `json:"location"`
	City             string   `json:"city,omitempty"`
	Country          string   `json:"country,omitempty"`
	CountryCode      string   `json:"countryCode,omitempty"`
}

// GeocodeResult is one forward or reverse geocoding match.
type GeocodeResult struct {
	PlaceID          string   `json:"placeId"`
	FormattedAddress string   `json:"formattedAddress"`
	Location         GeoPoint `json:"location"`
	City             string   `json:"city,omitempty"`
	Country          string   `json:"country,omitempty"`
	CountryCode      string   `json:"countryCode,omitempty"`
}

// IPLocation is an approximate location derived from the client IP.
type IPLocation struct {
	City        string   `json:"city"`
	Region      string   `json:"region,omitempty"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	Location    GeoPoint `json:"location"`
	Timezone    string   `json:"timezone,omitempty"`
	ISP         string   `json:"isp,omitempty"`
}

// MapsRequest is the body accepted by the maps proxy. Parameter bounds
// apply to the action that uses them.
type MapsRequest struct {
	Action      string   `json:"action" validate:"required,oneof=autocomplete placeDetails geocode reverseGeocode detectLocation"`
	Query       string   `json:"query,omitempty" validate:"required_if=Action autocomplete,omitempty,min=2,max=100"`
	CountryCode string   `json:"countryCode,omitempty" validate:"omitempty,len=2"`
	PlaceID     string   `json:"placeId,omitempty" validate:"required_if=Action placeDetails,omitempty,min=5,max=100"`
	Address     string   `json:"address,omitempty" validate:"required_if=Action geocode,omitempty,min=3,max=200"`
	Lat         *float64 `json:"lat,omitempty" validate:"required_if=Action reverseGeocode,omitempty,gte=-90,lte=90"`
	Lng         *float64 `json:"lng,omitempty" validate:"required_if=Action reverseGeocode,omitempty,gte=-180,lte=180"`
	Language    string   `json:"language,omitempty" validate:"omitempty,max=35"`
}

// Normalize trims the free-text parameters.
func (r *MapsRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)
	r.PlaceID = strings.TrimSpace(r.PlaceID)
	r.Address = strings.TrimSpace(r.Address)
	r.CountryCode = strings.TrimSpace(r.CountryCode)
}

// Package maps talks to the maps provider and the IP geolocation service on
// behalf of the maps proxy. Provider credentials never leave this package.
package maps

import (
	"context"
	"fmt"
	"strings"

	gmaps "googlemaps.github.io/maps"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// googleAPI is the subset of *gmaps.Client used by GoogleProvider.
type googleAPI interface {
	PlaceAutocomplete(ctx context.Context, r *gmaps.PlaceAutocompleteRequest) (gmaps.AutocompleteResponse, error)
	PlaceDetails(ctx context.Context, r *gmaps.PlaceDetailsRequest) (gmaps.PlaceDetailsResult, error)
	Geocode(ctx context.Context, r *gmaps.GeocodingRequest) ([]gmaps.GeocodingResult, error)
}

// GoogleProvider resolves places through the Google Maps web services.
type GoogleProvider struct {
	api      googleAPI
	language string
	logger   logger.Logger
}

// NewGoogleProvider creates a provider authenticated with cfg.APIKey.
func NewGoogleProvider(cfg config.MapsConfig, log logger.Logger) (*GoogleProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("maps API key is required")
	}
	client, err := gmaps.NewClient(gmaps.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return newGoogleProvider(client, cfg.Language, log), nil
}

func newGoogleProvider(api googleAPI, language string, log logger.Logger) *GoogleProvider {
	if language == "" {
		language = "es"
	}
	return &GoogleProvider{api: api, language: language, logger: log.WithComponent("maps")}
}

func (p *GoogleProvider) lang(l string) string {
	if l == "" {
		return p.language
	}
	return l
}

// Autocomplete returns city predictions for query, optionally restricted to a country.
func (p *GoogleProvider) Autocomplete(ctx context.Context, query, countryCode, language string) ([]models.PlacePrediction, error) {
	req := &gmaps.PlaceAutocompleteRequest{
		Input:    query,
		Types:    gmaps.AutocompletePlaceTypeCities,
		Language: p.lang(language),
	}
	if countryCode != "" {
		req.Components = map[gmaps.Component][]string{
			gmaps.ComponentCountry: {strings.ToLower(countryCode)},
		}
	}

	resp, err := p.api.PlaceAutocomplete(ctx, req)
	if err != nil {
		p.logger.Error(ctx, "Places autocomplete failed", err, logger.Int("query_len", len(query)))
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "maps provider error")
	}

	out := make([]models.PlacePrediction, 0, len(resp.Predictions))
	for _, pr := range resp.Predictions {
		out = append(out, models.PlacePrediction{
			PlaceID:       pr.PlaceID,
			Description:   pr.Description,
			MainText:      pr.StructuredFormatting.MainText,
			SecondaryText: pr.StructuredFormatting.SecondaryText,
		})
	}
	return out, nil
}

// PlaceDetails resolves a place id into coordinates, address, city and country.
func (p *GoogleProvider) PlaceDetails(ctx context.Context, placeID, language string) (*models.PlaceDetails, error) {
	res, err := p.api.PlaceDetails(ctx, &gmaps.PlaceDetailsRequest{
		PlaceID:  placeID,
		Language: p.lang(language),
		Fields: []gmaps.PlaceDetailsFieldMask{
			gmaps.PlaceDetailsFieldMaskGeometry,
			gmaps.PlaceDetailsFieldMaskFormattedAddress,
			gmaps.PlaceDetailsFieldMaskAddressComponent,
		},
	})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.ErrNotFound("place")
		}
		p.logger.Error(ctx, "Place details failed", err)
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "maps provider error")
	}

	city, country, code := locality(res.AddressComponents)
	return &models.PlaceDetails{
		PlaceID:          placeID,
		Name:             res.Name,
		FormattedAddress: res.FormattedAddress,
		Location:         models.GeoPoint{Lat: res.Geometry.Location.Lat, Lng: res.Geometry.Location.Lng},
		City:             city,
		Country:          country,
		CountryCode:      code,
	}, nil
}

// Geocode resolves a free-form address.
func (p *GoogleProvider) Geocode(ctx context.Context, address, language string) (*models.GeocodeResult, error) {
	return p.geocode(ctx, &gmaps.GeocodingRequest{Address: address, Language: p.lang(language)}, "address")
}

// ReverseGeocode resolves coordinates; the returned location echoes the input.
func (p *GoogleProvider) ReverseGeocode(ctx context.Context, lat, lng float64, language string) (*models.GeocodeResult, error) {
	res, err := p.geocode(ctx, &gmaps.GeocodingRequest{
		LatLng:   &gmaps.LatLng{Lat: lat, Lng: lng},
		Language: p.lang(language),
	}, "location")
	if err != nil {
		return nil, err
	}
	res.Location = models.GeoPoint{Lat: lat, Lng: lng}
	return res, nil
}

func (p *GoogleProvider) geocode(ctx context.Context, req *gmaps.GeocodingRequest, resource string) (*models.GeocodeResult, error) {
	results, err := p.api.Geocode(ctx, req)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.ErrNotFound(resource)
		}
		p.logger.Error(ctx, "Geocoding failed", err)
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "maps provider error")
	}
	if len(results) == 0 {
		return nil, errors.ErrNotFound(resource)
	}

	r := results[0]
	city, country, code := locality(r.AddressComponents)
	return &models.GeocodeResult{
		PlaceID:          r.PlaceID,
		FormattedAddress: r.FormattedAddress,
		Location:         models.GeoPoint{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		City:             city,
		Country:          country,
		CountryCode:      code,
	}, nil
}

// locality picks the city (locality, else administrative_area_level_2) and
// the country from address components.
func locality(components []gmaps.AddressComponent) (city, country, code string) {
	for _, c := range components {
		for _, t := range c.Types {
			switch t {
			case "locality":
				city = c.LongName
			case "administrative_area_level_2":
				if city == "" {
					city = c.LongName
				}
			case "country":
				country = c.LongName
				code = c.ShortName
			}
		}
	}
	return city, country, code
}

func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "NOT_FOUND") || strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "INVALID_REQUEST")
}

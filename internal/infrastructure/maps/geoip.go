package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/logger"
)

const (
	defaultGeoIPEndpoint = "https://ipapi.co"
	geoIPUserAgent       = "BocadoApp/1.0"
)

// ipapiResponse mirrors the ipapi.co JSON document.
type ipapiResponse struct {
	Error       bool    `json:"error"`
	Reason      string  `json:"reason"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	Org         string  `json:"org"`
}

// IPLocator resolves a client IP to an approximate location.
type IPLocator struct {
	endpoint string
	client   *http.Client
	logger   logger.Logger
}

// NewIPLocator creates a locator against cfg.GeoIPEndpoint.
func NewIPLocator(cfg config.MapsConfig, log logger.Logger) *IPLocator {
	endpoint := strings.TrimRight(cfg.GeoIPEndpoint, "/")
	if endpoint == "" {
		endpoint = defaultGeoIPEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &IPLocator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   log.WithComponent("geoip"),
	}
}

// IsPrivateIP reports whether ip cannot be geolocated.
func IsPrivateIP(ip string) bool {
	return ip == "" || ip == "unknown" || ip == "::1" ||
		strings.HasPrefix(ip, "127.") ||
		strings.HasPrefix(ip, "192.168.") ||
		strings.HasPrefix(ip, "10.")
}

// Locate returns the location of ip, or nil when it cannot be determined.
// Lookup failures are logged and reported as nil.
func (l *IPLocator) Locate(ctx context.Context, ip string) *models.IPLocation {
	ip = strings.TrimPrefix(strings.TrimSpace(ip), "::ffff:")
	if IsPrivateIP(ip) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s/json/", l.endpoint, ip), nil)
	if err != nil {
		l.logger.Warn(ctx, "Failed to build geolocation request", logger.Err(err))
		return nil
	}
	req.Header.Set("User-Agent", geoIPUserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Warn(ctx, "Geolocation request failed", logger.Err(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		l.logger.Warn(ctx, "Geolocation service returned an error status", logger.Int("status", resp.StatusCode))
		return nil
	}

	var body ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		l.logger.Warn(ctx, "Undecodable geolocation response", logger.Err(err))
		return nil
	}
	if body.Error {
		l.logger.Debug(ctx, "Geolocation lookup rejected", logger.String("reason", body.Reason))
		return nil
	}

	return &models.IPLocation{
		City:        body.City,
		Region:      body.Region,
		Country:     body.CountryName,
		CountryCode: body.CountryCode,
		Location:    models.GeoPoint{Lat: body.Latitude, Lng: body.Longitude},
		Timezone:    body.Timezone,
		ISP:         body.Org,
	}
}

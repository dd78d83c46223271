package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"import-claim-service/internal/contextkeys"
	"import-claim-service/internal/core/domain"
	"import-claim-service/internal/core/port"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
)

// Config - настройки геокодера.
type Config struct {
	BaseURL      string
	FetchTimeout time.Duration
}

// GeocoderAdapter реализует GeocoderPort поверх Nominatim-совместимого
// HTTP API. Вызывается только когда источник не дал координат;
// любая неудача не фатальна для импортируемой записи.
type GeocoderAdapter struct {
	collector *colly.Collector
	baseURL   string
}

func NewGeocoderAdapter(cfg Config) (*GeocoderAdapter, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("GeocoderAdapter: invalid base URL %q", cfg.BaseURL)
	}

	c := colly.NewCollector(colly.AllowedDomains(parsed.Host), colly.AllowURLRevisit())

	// Публичные геокодеры требуют не больше одного запроса в секунду
	err = c.Limit(&colly.LimitRule{
		DomainGlob:  parsed.Host,
		Parallelism: 1,
		Delay:       time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("GeocoderAdapter: failed to set limit rule: %w", err)
	}

	if cfg.FetchTimeout > 0 {
		c.SetRequestTimeout(cfg.FetchTimeout)
	}
	extensions.RandomUserAgent(c)

	return &GeocoderAdapter{
		collector: c,
		baseURL:   cfg.BaseURL,
	}, nil
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode возвращает (nil, nil), если адрес не найден.
func (a *GeocoderAdapter) Geocode(ctx context.Context, address, city, state, zip string) (*domain.GeoPoint, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	geoLogger := logger.WithFields(port.Fields{"component": "GeocoderAdapter"})

	query := strings.TrimSpace(strings.Join([]string{address, city, state, zip}, " "))
	if query == "" {
		return nil, nil
	}

	u, err := url.Parse(a.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("geocoder: failed to build URL: %w", err)
	}
	q := u.Query()
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", query)
	u.RawQuery = q.Encode()

	collector := a.collector.Clone()

	var point *domain.GeoPoint
	var responseErr error

	collector.OnResponse(func(r *colly.Response) {
		var results []geocodeResult
		if jsonErr := json.Unmarshal(r.Body, &results); jsonErr != nil {
			responseErr = fmt.Errorf("geocoder: failed to parse response: %w", jsonErr)
			return
		}
		if len(results) == 0 {
			return // адрес не найден - это не ошибка
		}

		lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
		lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
		if latErr != nil || lngErr != nil {
			responseErr = fmt.Errorf("geocoder: malformed coordinates in response")
			return
		}
		point = &domain.GeoPoint{Latitude: lat, Longitude: lng}
	})

	collector.OnError(func(r *colly.Response, err error) {
		responseErr = fmt.Errorf("geocoder: request failed with status %d: %w", r.StatusCode, err)
	})

	visitErr := collector.Visit(u.String())
	if visitErr != nil {
		return nil, fmt.Errorf("geocoder: failed to visit %s: %w", u.String(), visitErr)
	}
	collector.Wait()

	if responseErr != nil {
		geoLogger.Warn("Geocoding request failed", port.Fields{"query": query, "error": responseErr.Error()})
		return nil, responseErr
	}

	if point == nil {
		geoLogger.Debug("Address not found by geocoder", port.Fields{"query": query})
	}
	return point, nil
}

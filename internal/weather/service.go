package weather

import (
	"context"
	"strings"
	"time"

	"github.com/m3rciful/weatherbot/internal/errs"
)

// Service turns a city query into a rendered forecast message.
type Service struct {
	source Source
	loc    *time.Location
	now    func() time.Time
}

// NewService renders forecasts from source with the report time in loc.
func NewService(source Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{source: source, loc: loc, now: time.Now}
}

// Forecast returns the Markdown forecast for city. Any failure, including
// an empty query, is reported as CITY_NOT_FOUND.
func (s *Service) Forecast(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", errs.ErrCityNotFound
	}
	f, err := s.source.Fetch(ctx, city)
	if err != nil {
		if errs.CodeOf(err) == errs.CodeCityNotFound {
			return "", err
		}
		return "", errs.Wrap(errs.CodeCityNotFound, "fetch forecast", err)
	}
	if len(f.Entries) < minEntries {
		return "", errs.Wrap(errs.CodeCityNotFound, "fetch forecast", errShortPayload)
	}
	return Format(f, s.now(), s.loc), nil
}

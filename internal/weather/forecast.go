// Package weather fetches OpenWeatherMap 3-hour forecasts and renders them
// as Telegram Markdown.
package weather

import (
	"context"
	"time"
)

// Entry is one 3-hour forecast interval.
type Entry struct {
	At          time.Time `json:"at"`
	Temp        float64   `json:"temp"`
	Humidity    int       `json:"humidity"`
	Wind        float64   `json:"wind"`
	Description string    `json:"description"`
}

// Forecast is the decoded part of a provider response. Entries[0] is
// rendered as the current conditions.
type Forecast struct {
	City    string  `json:"city"`
	Country string  `json:"country"`
	Entries []Entry `json:"entries"`
}

// Source returns a decoded forecast for a city.
type Source interface {
	Fetch(ctx context.Context, city string) (Forecast, error)
}

// minEntries is the current interval plus three upcoming ones.
const minEntries = 4

package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/netutil"
	"github.com/m3rciful/weatherbot/internal/errs"
)

// BackoffConfig controls the retry schedule for 429, 5xx and transient
// network failures.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ClientOptions configures Client. APIKey is required.
type ClientOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Backoff    BackoffConfig
	Breaker    gobreaker.Settings
}

// Client talks to the OpenWeatherMap forecast endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoAPIKey     = errors.New("weather api key is not configured")
	errShortPayload = errors.New("forecast has too few entries")
)

// statusError carries the provider HTTP status for logging and retry decisions.
type statusError struct {
	code int
	base error
}

func (e *statusError) Error() string { return fmt.Sprintf("%v: %d", e.base, e.code) }
func (e *statusError) Unwrap() error { return e.base }

// NewClient builds a Client. A nil HTTPClient gets a netutil client without
// transport level retries; retries happen in the breaker loop instead.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openweathermap.org/data/2.5/forecast"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = netutil.NewHTTPClient(netutil.ClientOptions{
			Timeout:       opts.Timeout,
			RetryAttempts: -1,
		})
	}
	if opts.Backoff.InitialInterval <= 0 {
		opts.Backoff.InitialInterval = 500 * time.Millisecond
	}
	if opts.Backoff.MaxInterval <= 0 {
		opts.Backoff.MaxInterval = 5 * time.Second
	}
	if opts.Backoff.MaxRetries < 0 {
		opts.Backoff.MaxRetries = 0
	}

	st := opts.Breaker
	if st.Name == "" {
		st.Name = "openweather"
	}
	if st.MaxRequests == 0 {
		st.MaxRequests = 5
	}
	if st.Interval == 0 {
		st.Interval = time.Minute
	}
	if st.Timeout == 0 {
		st.Timeout = 2 * time.Minute
	}
	if st.OnStateChange == nil {
		st.OnStateChange = func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), logger.CompWeather, "weather.breaker",
				slog.String("breaker", to.String()),
				slog.String("from_state", from.String()),
				slog.String("name", name),
			)
		}
	}

	return &Client{
		apiKey:  opts.APIKey,
		baseURL: opts.BaseURL,
		http:    opts.HTTPClient,
		backoff: opts.Backoff,
		circuit: gobreaker.NewCircuitBreaker(st),
	}
}

// BreakerState reports the circuit breaker state ("closed", "half-open", "open").
func (c *Client) BreakerState() string {
	return c.circuit.State().String()
}

// Fetch queries the provider for city. Every failure is returned as a
// CITY_NOT_FOUND error wrapping the cause.
func (c *Client) Fetch(ctx context.Context, city string) (Forecast, error) {
	start := time.Now()
	fc, attempts, err := c.fetch(ctx, city)
	attrs := []slog.Attr{
		slog.String("city", logger.SanitizeLimit(city, 64)),
		slog.Duration("duration", time.Since(start)),
		slog.Int("attempts", attempts),
	}
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			attrs = append(attrs, slog.Int("http_code", se.code))
		}
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))
		logger.Warn(ctx, logger.CompWeather, "weather.fetch", attrs...)
		return Forecast{}, errs.Wrap(errs.CodeCityNotFound, "fetch forecast", err)
	}
	logger.Info(ctx, logger.CompWeather, "weather.fetch", append(attrs, slog.String("status", "ok"))...)
	return fc, nil
}

func (c *Client) fetch(ctx context.Context, city string) (Forecast, int, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return Forecast{}, 0, errNoAPIKey
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return Forecast{}, 0, fmt.Errorf("empty city")
	}

	build := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")
		return http.NewRequest(http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	}

	resp, attempts, err := c.doWithResilience(ctx, build)
	if err != nil {
		return Forecast{}, attempts, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Forecast{}, attempts, &statusError{code: resp.StatusCode, base: errors.New("unexpected status code")}
	}
	fc, err := decodeForecast(resp.Body)
	return fc, attempts, err
}

// doWithResilience runs the request through the breaker, retrying with
// exponential backoff. Client errors other than 429 are returned as a
// response so they do not count against the breaker.
func (c *Client) doWithResilience(ctx context.Context, build func() (*http.Request, error)) (*http.Response, int, error) {
	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, attempt, err
		}
		req, err := build()
		if err != nil {
			return nil, attempt, err
		}
		req = req.WithContext(ctx)
		attempt++

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, doErr := c.http.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				drain(resp)
				return nil, &statusError{code: resp.StatusCode, base: errRateLimited}
			case resp.StatusCode >= 500:
				drain(resp)
				return nil, &statusError{code: resp.StatusCode, base: errServerError}
			}
			return resp, nil
		})
		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, attempt, fmt.Errorf("unexpected breaker result %T", result)
			}
			return resp, attempt, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, attempt, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if !retryable(err) || attempt > c.backoff.MaxRetries {
			return nil, attempt, err
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt-1)))
		if delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}
		logger.Debug(ctx, logger.CompWeather, "weather.retry",
			slog.String("status", "retry"),
			slog.Int("attempts", attempt),
			slog.Duration("backoff_ms", delay),
			slog.String("err", err.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, attempt, ctx.Err()
		case <-timer.C:
		}
	}
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return netutil.ShouldRetryStatus(se.code)
	}
	return netutil.ShouldRetry(err)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}

// apiCode accepts both "200" and 200; the provider uses either form.
type apiCode string

func (c *apiCode) UnmarshalJSON(b []byte) error {
	*c = apiCode(strings.Trim(string(b), `"`))
	return nil
}

type apiResponse struct {
	Cod  apiCode `json:"cod"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

func decodeForecast(r io.Reader) (Forecast, error) {
	var payload apiResponse
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}
	if payload.Cod != "200" {
		return Forecast{}, fmt.Errorf("provider returned cod %q", string(payload.Cod))
	}
	if len(payload.List) < minEntries {
		return Forecast{}, errShortPayload
	}

	fc := Forecast{
		City:    payload.City.Name,
		Country: payload.City.Country,
		Entries: make([]Entry, 0, len(payload.List)),
	}
	for _, item := range payload.List {
		e := Entry{
			At:       time.Unix(item.Dt, 0).UTC(),
			Temp:     item.Main.Temp,
			Humidity: item.Main.Humidity,
			Wind:     item.Wind.Speed,
		}
		if len(item.Weather) > 0 {
			e.Description = item.Weather[0].Description
		}
		fc.Entries = append(fc.Entries, e)
	}
	return fc, nil
}

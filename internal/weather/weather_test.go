package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/weatherbot/internal/errs"
)

const okPayload = `{
  "cod": "200",
  "list": [
    {"dt": 1709294400, "main": {"temp": 11.26, "humidity": 81}, "wind": {"speed": 3.6}, "weather": [{"description": "light rain"}]},
    {"dt": 1709305200, "main": {"temp": 12, "humidity": 75}, "wind": {"speed": 4}, "weather": [{"description": "overcast clouds"}]},
    {"dt": 1709316000, "main": {"temp": 9.04, "humidity": 88}, "wind": {"speed": 2.1}, "weather": [{"description": "mist"}]},
    {"dt": 1709326800, "main": {"temp": 7.5, "humidity": 90}, "wind": {"speed": 1.25}, "weather": [{"description": "clear sky"}]}
  ],
  "city": {"name": "Paris", "country": "FR"}
}`

func testClient(url string, retries int) *Client {
	return NewClient(ClientOptions{
		APIKey:     "k",
		BaseURL:    url,
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
		Backoff:    BackoffConfig{MaxRetries: retries, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond},
	})
}

func TestClientFetchDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "k", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(okPayload))
	}))
	defer srv.Close()

	fc, err := testClient(srv.URL, 0).Fetch(context.Background(), "  Paris ")
	require.NoError(t, err)
	assert.Equal(t, "Paris", fc.City)
	assert.Equal(t, "FR", fc.Country)
	require.Len(t, fc.Entries, 4)
	assert.Equal(t, 81, fc.Entries[0].Humidity)
	assert.Equal(t, "light rain", fc.Entries[0].Description)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), fc.Entries[0].At)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okPayload))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, 3).Fetch(context.Background(), "Paris")
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestClientNotFoundIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	_, err := c.Fetch(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrCityNotFound)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.Equal(t, "closed", c.BreakerState())
}

func TestClientRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"cod":   `{"cod": 401, "message": "invalid key"}`,
		"short": `{"cod":"200","list":[{"dt":1}],"city":{"name":"X"}}`,
		"json":  `{"cod":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := testClient(srv.URL, 0).Fetch(context.Background(), "Paris")
			assert.ErrorIs(t, err, errs.ErrCityNotFound)
		})
	}
}

func TestClientBreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{
		APIKey:     "k",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Backoff:    BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond},
		Breaker: gobreaker.Settings{
			ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 1 },
			Timeout:     time.Hour,
		},
	})

	_, err := c.Fetch(context.Background(), "Paris")
	require.ErrorIs(t, err, errs.ErrCityNotFound)
	_, err = c.Fetch(context.Background(), "Paris")
	require.ErrorIs(t, err, errs.ErrCityNotFound)
	assert.ErrorIs(t, err, errCircuitOpen)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.Equal(t, "open", c.BreakerState())
}

func TestClientRequiresAPIKey(t *testing.T) {
	c := NewClient(ClientOptions{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Fetch(context.Background(), "Paris")
	assert.ErrorIs(t, err, errs.ErrCityNotFound)
	assert.ErrorIs(t, err, errNoAPIKey)
}

func sampleForecast() Forecast {
	return Forecast{
		City:    "Saint_Denis",
		Country: "FR",
		Entries: []Entry{
			{At: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), Temp: 11.26, Humidity: 81, Wind: 3.6, Description: "light rain"},
			{At: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC), Temp: 12, Humidity: 75, Wind: 4, Description: "overcast clouds"},
			{At: time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC), Temp: 9.04, Humidity: 88, Wind: 2.1, Description: "mist"},
			{At: time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC), Temp: 7.5, Humidity: 90, Wind: 1.25, Description: "clear sky"},
			{At: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Temp: 6, Humidity: 91, Wind: 1, Description: "never shown"},
		},
	}
}

func TestFormat(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	got := Format(sampleForecast(), now, time.UTC)

	want := "*Weather Forecast for Saint\\_Denis, FR* 🌍\n\n" +
		"*Current Weather Report:*\n" +
		"🌡️ Temperature: 11.3°C\n" +
		"💧 Humidity: 81%\n" +
		"🌬️ Wind Speed: 3.6 m/s\n" +
		"🌦️ Condition: Light rain\n" +
		"📅 Date and Time: Friday, March 1, 2024, 12:30:45\n\n" +
		"*Next 3-hour Forecast:*\n" +
		"\n*3/1/2024, 3:00:00 PM*\n" +
		"🌡️ Temp: 12.0°C | 💧 Humidity: 75% | 🌬️ Wind: 4 m/s\n" +
		"🌦️ Condition: Overcast clouds\n" +
		"\n*3/1/2024, 6:00:00 PM*\n" +
		"🌡️ Temp: 9.0°C | 💧 Humidity: 88% | 🌬️ Wind: 2.1 m/s\n" +
		"🌦️ Condition: Mist\n" +
		"\n*3/1/2024, 9:00:00 PM*\n" +
		"🌡️ Temp: 7.5°C | 💧 Humidity: 90% | 🌬️ Wind: 1.25 m/s\n" +
		"🌦️ Condition: Clear sky\n"
	assert.Equal(t, want, got)
}

func TestFormatUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	got := Format(sampleForecast(), now, loc)
	assert.Contains(t, got, "📅 Date and Time: Friday, March 1, 2024, 17:30:00\n")
	assert.Contains(t, got, "*3/1/2024, 8:30:00 PM*")
}

type stubSource struct {
	fc    Forecast
	err   error
	calls int
}

func (s *stubSource) Fetch(_ context.Context, _ string) (Forecast, error) {
	s.calls++
	return s.fc, s.err
}

func TestServiceForecast(t *testing.T) {
	src := &stubSource{fc: sampleForecast()}
	svc := NewService(src, time.UTC)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC) }

	text, err := svc.Forecast(context.Background(), "Paris")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "*Weather Forecast for Saint\\_Denis, FR*"))

	_, err = svc.Forecast(context.Background(), "   ")
	assert.ErrorIs(t, err, errs.ErrCityNotFound)
	assert.Equal(t, 1, src.calls)
}

func TestServiceMapsErrorsToCityNotFound(t *testing.T) {
	svc := NewService(&stubSource{err: errors.New("dial tcp: refused")}, nil)
	_, err := svc.Forecast(context.Background(), "Paris")
	assert.ErrorIs(t, err, errs.ErrCityNotFound)

	svc = NewService(&stubSource{fc: Forecast{City: "X", Entries: make([]Entry, 2)}}, nil)
	_, err = svc.Forecast(context.Background(), "X")
	assert.ErrorIs(t, err, errs.ErrCityNotFound)
}

type mapCache struct {
	items  map[string]Forecast
	getErr error
	setErr error
}

func (m *mapCache) Get(_ context.Context, key string) (Forecast, bool, error) {
	if m.getErr != nil {
		return Forecast{}, false, m.getErr
	}
	f, ok := m.items[key]
	return f, ok, nil
}

func (m *mapCache) Set(_ context.Context, key string, f Forecast, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.items[key] = f
	return nil
}

func TestCachedSource(t *testing.T) {
	src := &stubSource{fc: sampleForecast()}
	cache := &mapCache{items: map[string]Forecast{}}
	cs := NewCachedSource(src, cache, time.Minute)

	_, err := cs.Fetch(context.Background(), "New  York")
	require.NoError(t, err)
	_, err = cs.Fetch(context.Background(), " new york ")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)
	assert.Contains(t, cache.items, "new york")
}

func TestCachedSourceIgnoresCacheErrors(t *testing.T) {
	src := &stubSource{fc: sampleForecast()}
	cs := NewCachedSource(src, &mapCache{getErr: errors.New("down"), setErr: errors.New("down")}, time.Minute)

	f, err := cs.Fetch(context.Background(), "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Saint_Denis", f.City)

	src.err = errs.ErrCityNotFound
	_, err = cs.Fetch(context.Background(), "Paris")
	assert.ErrorIs(t, err, errs.ErrCityNotFound)
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := DialRedis(ctx, url)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer client.Close()

	cache := NewRedisCache(client)
	key := fmt.Sprintf("test-%d", time.Now().UnixNano())
	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, key, sampleForecast(), time.Minute))
	got, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Saint_Denis", got.City)
	assert.Len(t, got.Entries, 5)
	client.Del(ctx, "weather:"+key)
}

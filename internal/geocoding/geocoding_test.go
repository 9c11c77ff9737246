package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-history/internal/weather"
)

func newTestResolver(t *testing.T, fn func(geocoder.Address) (geocoder.Location, error)) *GoogleResolver {
	t.Helper()
	r, err := NewGoogleResolver("test-key")
	require.NoError(t, err)
	r.lookup = fn
	return r
}

// newStubbedResolver points the real geocoder library at a local server that
// always answers with body.
func newStubbedResolver(t *testing.T, body string) (*GoogleResolver, func() string) {
	t.Helper()
	origKey, origURL := geocoder.ApiKey, geocoder.ApiUrl
	t.Cleanup(func() { geocoder.ApiKey, geocoder.ApiUrl = origKey, origURL })

	var (
		mu     sync.Mutex
		gotKey string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		gotKey = req.URL.Query().Get("key")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	r, err := NewGoogleResolver("test-key")
	require.NoError(t, err)
	r.apiURL = srv.URL + "/maps/api/geocode/json?"
	return r, func() string {
		mu.Lock()
		defer mu.Unlock()
		return gotKey
	}
}

func TestNewGoogleResolverRequiresKey(t *testing.T) {
	r, err := NewGoogleResolver("")
	assert.Nil(t, r)
	assert.ErrorIs(t, err, weather.ErrConfiguration)
}

func TestResolve(t *testing.T) {
	t.Run("returns coordinates", func(t *testing.T) {
		var got geocoder.Address
		r := newTestResolver(t, func(a geocoder.Address) (geocoder.Location, error) {
			got = a
			assert.Equal(t, "test-key", geocoder.ApiKey)
			return geocoder.Location{Latitude: 8.62, Longitude: -70.21}, nil
		})

		lat, lon, err := r.Resolve(context.Background(), " Barinas ", "VE")
		require.NoError(t, err)
		assert.Equal(t, 8.62, lat)
		assert.Equal(t, -70.21, lon)
		assert.Equal(t, "Barinas", got.City)
		assert.Equal(t, "VE", got.Country)
	})

	t.Run("empty city", func(t *testing.T) {
		r := newTestResolver(t, func(geocoder.Address) (geocoder.Location, error) {
			t.Fatal("lookup must not be called")
			return geocoder.Location{}, nil
		})

		_, _, err := r.Resolve(context.Background(), "  ", "VE")
		assert.ErrorIs(t, err, weather.ErrInvalidRequest)
	})

	t.Run("cancelled context", func(t *testing.T) {
		r := newTestResolver(t, func(geocoder.Address) (geocoder.Location, error) {
			t.Fatal("lookup must not be called")
			return geocoder.Location{}, nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := r.Resolve(ctx, "Barinas", "VE")
		assert.ErrorIs(t, err, weather.ErrTransport)
	})
}

func TestResolve_GoogleResponses(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r, sentKey := newStubbedResolver(t, `{
			"status": "OK",
			"results": [{"geometry": {"location": {"lat": 8.6226, "lng": -70.2075}}}]
		}`)

		lat, lon, err := r.Resolve(context.Background(), "Barinas", "Venezuela")
		require.NoError(t, err)
		assert.Equal(t, 8.6226, lat)
		assert.Equal(t, -70.2075, lon)
		assert.Equal(t, "test-key", sentKey())
	})

	tests := []struct {
		name string
		body string
		kind error
	}{
		{"zero results", `{"status": "ZERO_RESULTS", "results": []}`, weather.ErrNoDataForLocation},
		{
			"invalid request",
			`{"status": "INVALID_REQUEST", "error_message": "Invalid request. Missing the 'address', 'components', 'latlng' or 'place_id' parameter.", "results": []}`,
			weather.ErrInvalidRequest,
		},
		{
			"request denied",
			`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid.", "results": []}`,
			weather.ErrTransport,
		},
		{"over query limit", `{"status": "OVER_QUERY_LIMIT", "results": []}`, weather.ErrTransport},
		{"ok without results", `{"status": "OK", "results": []}`, weather.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newStubbedResolver(t, tt.body)

			_, _, err := r.Resolve(context.Background(), "Nowhere", "")
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestResolve_UnhandledStatusDoesNotPanic(t *testing.T) {
	r, _ := newStubbedResolver(t, `{"status": "OVER_DAILY_LIMIT", "results": []}`)

	var err error
	require.NotPanics(t, func() {
		_, _, err = r.Resolve(context.Background(), "Barinas", "VE")
	})
	assert.ErrorIs(t, err, weather.ErrTransport)

	// The lookup slot was released; a second call is not blocked.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err = r.Resolve(ctx, "Barinas", "VE")
	assert.ErrorIs(t, err, weather.ErrTransport)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolve_TransportErrorHidesKey(t *testing.T) {
	r, _ := newStubbedResolver(t, `{}`)
	r.apiKey = "super-secret"
	r.apiURL = "http://127.0.0.1:1/json?"

	_, _, err := r.Resolve(context.Background(), "Barinas", "VE")
	require.ErrorIs(t, err, weather.ErrTransport)
	assert.NotContains(t, err.Error(), "super-secret")
}

func TestResolve_HonorsContextWhileLookupHangs(t *testing.T) {
	release := make(chan struct{})
	r := newTestResolver(t, func(geocoder.Address) (geocoder.Location, error) {
		<-release
		return geocoder.Location{Latitude: 1, Longitude: 2}, nil
	})

	// The first caller gives up while the lookup is still in flight.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, _, err := r.Resolve(ctx, "Barinas", "VE")
	assert.ErrorIs(t, err, weather.ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	// A second caller waiting for the hung lookup also returns on its deadline.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel2()
	start = time.Now()
	_, _, err = r.Resolve(ctx2, "Mérida", "VE")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)

	close(release)

	lat, lon, err := r.Resolve(context.Background(), "Barinas", "VE")
	require.NoError(t, err)
	assert.Equal(t, 1.0, lat)
	assert.Equal(t, 2.0, lon)
}

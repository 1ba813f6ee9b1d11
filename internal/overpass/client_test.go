package overpass

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResponse = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 41.5, "lon": -70.2, "tags": {"seamark:type": "rock"}},
    {"type": "way", "id": 2, "center": {"lat": 41.6, "lon": -70.1}, "tags": {"leisure": "marina"}},
    {"type": "way", "id": 3, "geometry": [{"lat": 41.7, "lon": -70.0}, {"lat": 41.8, "lon": -70.0}]}
  ]
}`

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultURL, c.baseURL)
	assert.Equal(t, DefaultUserAgent, c.userAgent)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.InDelta(t, 1.0, float64(c.limiter.Limit()), 1e-9)
}

func TestClient_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		assert.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("data"), `node["seamark:type"]`)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	c := NewClient(Config{URL: server.URL, UserAgent: "test-agent", RequestsPerSecond: 100})
	elements, err := c.Query(context.Background(), SeamarkQuery(41, -71, 42, -70))
	require.NoError(t, err)
	require.Len(t, elements, 3)

	assert.Equal(t, "node/1", elements[0].Key())
	assert.Equal(t, "rock", elements[0].Tags["seamark:type"])

	pos, ok := elements[0].Position()
	assert.True(t, ok)
	assert.Equal(t, LatLon{Lat: 41.5, Lon: -70.2}, pos)

	pos, ok = elements[1].Position()
	assert.True(t, ok)
	assert.Equal(t, LatLon{Lat: 41.6, Lon: -70.1}, pos)

	pos, ok = elements[2].Position()
	assert.True(t, ok)
	assert.Equal(t, 41.7, pos.Lat)

	_, ok = Element{Type: "way", ID: 9}.Position()
	assert.False(t, ok)
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(Config{URL: server.URL, RequestsPerSecond: 100})
	_, err := c.Query(context.Background(), "[out:json];")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>busy</html>"))
	}))
	defer server.Close()

	c := NewClient(Config{URL: server.URL, RequestsPerSecond: 100})
	_, err := c.Query(context.Background(), "[out:json];")
	assert.Error(t, err)
}

func TestClient_SharesConcurrentQueries(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write([]byte(`{"elements": []}`))
	}))
	defer server.Close()

	c := NewClient(Config{URL: server.URL, RequestsPerSecond: 100})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Query(context.Background(), "same query")
			assert.NoError(t, err)
		}()
	}

	// Give the goroutines time to join the in-flight call
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_ContextCancelled(t *testing.T) {
	c := NewClient(Config{URL: "http://127.0.0.1:1", RequestsPerSecond: 100})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Query(ctx, "[out:json];")
	assert.Error(t, err)
}

func TestQueries(t *testing.T) {
	q := SeamarkQuery(41.5, -70.5, 42, -70)
	assert.Contains(t, q, "41.500000,-70.500000,42.000000,-70.000000")
	assert.True(t, strings.HasSuffix(q, "out geom;"))

	m := MarinaQuery(41.68, -69.96, 18520)
	assert.Contains(t, m, `node["leisure"="marina"](around:18520,41.680000,-69.960000)`)
	assert.Contains(t, m, "out center")
}

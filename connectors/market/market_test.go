package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/dispatchopt/auth"
	"github.com/kilianp07/dispatchopt/core/model"
)

const pricesBody = `{"france_power_exchanges":[{"start_date":"2024-03-01T00:00:00+01:00","end_date":"2024-03-02T00:00:00+01:00","values":[
{"start_date":"2024-03-01T01:00:00+01:00","end_date":"2024-03-01T02:00:00+01:00","value":100,"price":42.5},
{"start_date":"2024-03-01T00:00:00+01:00","end_date":"2024-03-01T01:00:00+01:00","value":100,"price":40}
]}]}`

func marketServer(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var queries []string
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/prices", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		queries = append(queries, r.URL.RawQuery)
		if status != http.StatusOK {
			http.Error(w, "maintenance", status)
			return
		}
		_, _ = w.Write([]byte(pricesBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &queries
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{URL: srv.URL + "/prices", Auth: auth.Conf{ClientID: "id", ClientSecret: "s", AuthURL: srv.URL + "/token"}})
}

func TestEngine_QuarterHourSlots(t *testing.T) {
	srv, queries := marketServer(t, http.StatusOK)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600))
	e := Engine{Client: newTestClient(srv), Start: start, Step: 15 * time.Minute, Timeout: time.Second}

	s, err := e.Series(model.SignalPrice, 8)
	require.NoError(t, err)
	assert.Equal(t, model.SignalPrice, s.Kind)
	assert.Equal(t, []float64{40, 40, 40, 40, 42.5, 42.5, 42.5, 42.5}, s.Values)
	require.Len(t, *queries, 1)
	assert.Contains(t, (*queries)[0], "start_date=2024-03-01T00%3A00%3A00%2B01%3A00")
	assert.Contains(t, (*queries)[0], "end_date=2024-03-01T02%3A00%3A00%2B01%3A00")
}

func TestEngine_OnlyPrice(t *testing.T) {
	_, err := Engine{}.Series(model.SignalDemand, 4)
	assert.ErrorContains(t, err, "only provides price")
}

func TestClient_StatusError(t *testing.T) {
	srv, _ := marketServer(t, http.StatusServiceUnavailable)
	_, err := newTestClient(srv).Fetch(context.Background(), time.Now(), time.Now().Add(time.Hour))
	assert.ErrorContains(t, err, "503")
}

func TestResample_GapBeforeFirstPrice(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []PricePoint{{Start: start.Add(time.Hour), Price: 1}}
	_, err := Resample(points, start, 30*time.Minute, 4)
	assert.True(t, errors.Is(err, ErrNoPrice))

	v, err := Resample(points, start.Add(time.Hour), 30*time.Minute, 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1}, v)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, DefaultURL, c.URL)
	assert.Equal(t, 30, c.TimeoutSeconds)
	assert.Error(t, c.Validate())
}

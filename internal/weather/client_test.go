package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cc0ffee/greensim/internal/sim"
)

const forecastBody = `{
	"hourly": {
		"time": ["2025-10-01T00:00", "2025-10-01T01:00", "2025-10-01T02:00"],
		"temperature_2m": [11.5, 10.9, null],
		"shortwave_radiation": [0, 12.5, 80],
		"relative_humidity_2m": [82, null, 75]
	}
}`

func TestFetchHourly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Path; got != "/v1/forecast" {
			t.Errorf("path = %q, want /v1/forecast", got)
		}
		q := r.URL.Query()
		if q.Get("latitude") == "" || q.Get("hourly") == "" {
			t.Errorf("missing query parameters: %v", q)
		}
		w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	samples, err := client.FetchHourly(context.Background(), 39.9, 116.4, 3)
	if err != nil {
		t.Fatalf("FetchHourly: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("len(samples) = %d, want 3", len(samples))
	}

	if samples[0].Tout != 11.5 || samples[0].G != 0 {
		t.Errorf("sample 0 = %+v", samples[0])
	}
	if samples[0].RH == nil || *samples[0].RH != 0.82 {
		t.Errorf("sample 0 RH = %v, want 0.82 fraction", samples[0].RH)
	}
	if samples[1].RH != nil {
		t.Errorf("sample 1 RH = %v, want nil for null humidity", samples[1].RH)
	}
	if samples[2].Tout != 0 {
		t.Errorf("sample 2 Tout = %v, want 0 fallback for null temperature", samples[2].Tout)
	}
}

func TestFetchHourly_TruncatesToRequestedHours(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	samples, err := client.FetchHourly(context.Background(), 0, 0, 2)
	if err != nil {
		t.Fatalf("FetchHourly: %v", err)
	}
	if len(samples) != 2 {
		t.Errorf("len(samples) = %d, want 2", len(samples))
	}
}

func TestFetchHourly_ClientErrorIsPermanent(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad latitude", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	_, err := client.FetchHourly(context.Background(), 999, 0, 24)
	if err == nil {
		t.Fatal("expected error on 400")
	}
	if calls != 1 {
		t.Errorf("client retried a permanent failure: %d calls", calls)
	}
}

func TestFetchHourly_RetriesTransientFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	samples, err := client.FetchHourly(context.Background(), 0, 0, 3)
	if err != nil {
		t.Fatalf("FetchHourly after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(samples) != 3 {
		t.Errorf("len(samples) = %d, want 3", len(samples))
	}
}

func TestFetchHourly_EmptySeriesIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hourly": {"time": []}}`))
	}))
	defer srv.Close()

	client := NewClientWithBaseURL(srv.URL)
	_, err := client.FetchHourly(context.Background(), 0, 0, 24)
	var wErr *sim.WeatherDataError
	if !errors.As(err, &wErr) {
		t.Fatalf("err = %v, want WeatherDataError", err)
	}
}

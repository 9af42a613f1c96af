package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_PrivateAddresses(t *testing.T) {
	// внешний запрос для локальных адресов не выполняется
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected external lookup for %s", r.URL.Path)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	tests := []string{
		"127.0.0.1",
		"::1",
		"::ffff:127.0.0.1",
		"10.0.0.5",
		"172.16.1.1",
		"192.168.1.100",
	}
	for _, ip := range tests {
		t.Run(ip, func(t *testing.T) {
			loc := c.Lookup(context.Background(), ip)
			assert.Equal(t, "Local", loc.Country)
			assert.Equal(t, "XX", loc.CountryCode)
		})
	}
}

func TestLookup_External(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/8.8.8.8/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country_name":"United States","country_code":"US","city":"Mountain View","region":"California","latitude":37.4,"longitude":-122.07}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	loc := c.Lookup(context.Background(), "8.8.8.8")

	assert.Equal(t, "United States", loc.Country)
	assert.Equal(t, "US", loc.CountryCode)
	assert.Equal(t, "Mountain View", loc.City)
	assert.InDelta(t, 37.4, loc.Latitude, 0.001)
}

func TestLookup_FallbackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	loc := c.Lookup(context.Background(), "8.8.8.8")

	assert.Equal(t, "Unknown", loc.Country)
	assert.Equal(t, "XX", loc.CountryCode)
}

package iplog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupSkipsPrivateAddresses(t *testing.T) {
	c := NewClient(nil, time.Minute)

	for _, ip := range []string{"127.0.0.1", "10.0.0.5", "192.168.1.1", "169.254.0.1", "0.0.0.0", "::1", "240.0.0.1", "255.255.255.255"} {
		_, err := c.Lookup(context.Background(), ip)
		assert.ErrorIs(t, err, ErrPrivateAddress, ip)
	}
}

func TestLookup(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/8.8.8.8", r.URL.Path)
		w.Write([]byte(`{"status":"success","country":"United States","regionName":"Virginia","city":"Ashburn","isp":"Google LLC","org":"Google Public DNS","as":"AS15169 Google LLC"}`))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	c := NewClient(rc, time.Minute, WithBaseUrl(srv.URL))

	info, err := c.Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "United States", info.Country)
	assert.Equal(t, "Virginia", info.Region)
	assert.Equal(t, "Google LLC", info.Isp)

	// second lookup served from cache
	info2, err := c.Lookup(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, info, info2)
	assert.Equal(t, 1, calls)
}

func TestLookupFailStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"fail"}`))
	}))
	defer srv.Close()

	c := NewClient(nil, time.Minute, WithBaseUrl(srv.URL))

	_, err := c.Lookup(context.Background(), "203.0.113.9")
	assert.ErrorIs(t, err, ErrNotFound)
}

package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverNormalizesAndDegrades(t *testing.T) {
	ok := NewResolver("fake", LookupFunc(func(context.Context, string) (string, error) {
		return " jp ", nil
	}), time.Second)
	assert.Equal(t, "JP", ok.Resolve(context.Background(), "203.0.113.5"))

	failing := NewResolver("fake", LookupFunc(func(context.Context, string) (string, error) {
		return "", ErrUnavailable
	}), time.Second)
	assert.Equal(t, Default, failing.Resolve(context.Background(), "203.0.113.5"))

	garbage := NewResolver("fake", LookupFunc(func(context.Context, string) (string, error) {
		return "Japan", nil
	}), time.Second)
	assert.Equal(t, Default, garbage.Resolve(context.Background(), "203.0.113.5"))

	var nilResolver *Resolver
	assert.Equal(t, Default, nilResolver.Resolve(context.Background(), "203.0.113.5"))
}

func TestResolverAppliesTimeout(t *testing.T) {
	r := NewResolver("slow", LookupFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), 20*time.Millisecond)

	start := time.Now()
	assert.Equal(t, Default, r.Resolve(context.Background(), "1.2.3.4"))
	assert.Less(t, time.Since(start), time.Second)
}

func TestStaticLookup(t *testing.T) {
	s := NewStaticLookup(nil)
	ctx := context.Background()

	cc, err := s.LookupCountry(ctx, "192.168.1.10")
	require.NoError(t, err)
	assert.Equal(t, "US", cc)

	cc, err = s.LookupCountry(ctx, "16.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "JP", cc)

	_, err = s.LookupCountry(ctx, "203.0.113.5")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStaticLookupLongestPrefixWins(t *testing.T) {
	s := NewStaticLookup(map[string]string{"1.": "AU", "10.": "FR"})

	cc, err := s.LookupCountry(context.Background(), "10.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "FR", cc)
}

func TestAzureMapsLookup(t *testing.T) {
	var gotQuery atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		_, _ = w.Write([]byte(`{"countryRegion":{"isoCode":"JP"},"ipAddress":"203.0.113.5"}`))
	}))
	defer srv.Close()

	a := NewAzureMapsLookup(srv.URL, "k1", srv.Client())
	cc, err := a.LookupCountry(context.Background(), "203.0.113.5")
	require.NoError(t, err)
	assert.Equal(t, "JP", cc)

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, []string{"203.0.113.5"}, q["ip"])
	assert.Equal(t, []string{"k1"}, q["subscription-key"])
	assert.Equal(t, []string{"1.0"}, q["api-version"])
}

func TestAzureMapsLookupFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Query().Get("ip") {
		case "500":
			w.WriteHeader(http.StatusInternalServerError)
		case "empty":
			_, _ = w.Write([]byte(`{"ipAddress":"x"}`))
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	_, err := NewAzureMapsLookup(srv.URL, "", srv.Client()).LookupCountry(ctx, "1.2.3.4")
	assert.ErrorIs(t, err, ErrConfigMissing)
	assert.Equal(t, int32(0), calls.Load())

	a := NewAzureMapsLookup(srv.URL, "k", srv.Client())
	_, err = a.LookupCountry(ctx, "500")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = a.LookupCountry(ctx, "empty")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = a.LookupCountry(ctx, "bad")
	assert.ErrorIs(t, err, ErrUnavailable)

	r := NewResolver("azure", a, time.Second)
	assert.Equal(t, Default, r.Resolve(ctx, "500"))
}

func TestChainFirstSuccessWins(t *testing.T) {
	var secondCalled bool
	c := NewChain(
		nil,
		LookupFunc(func(context.Context, string) (string, error) { return "", ErrNotFound }),
		LookupFunc(func(context.Context, string) (string, error) { return "de", nil }),
		LookupFunc(func(context.Context, string) (string, error) {
			secondCalled = true
			return "FR", nil
		}),
	)

	cc, err := c.LookupCountry(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, "de", cc)
	assert.False(t, secondCalled)
}

func TestChainAllFail(t *testing.T) {
	c := NewChain(
		LookupFunc(func(context.Context, string) (string, error) { return "", ErrNotFound }),
		LookupFunc(func(context.Context, string) (string, error) { return "", ErrUnavailable }),
	)

	_, err := c.LookupCountry(context.Background(), "8.8.8.8")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))

	_, err = NewChain().LookupCountry(context.Background(), "8.8.8.8")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegionCountry(t *testing.T) {
	assert.Equal(t, "CN", regionCountry("中国|0|广东省|深圳市|电信"))
	assert.Equal(t, "US", regionCountry("美国|0|加利福尼亚|0|0"))
	assert.Equal(t, "JP", regionCountry("jp|Tokyo"))
	assert.Equal(t, "", regionCountry("0|0|0|内网IP|内网IP"))
	assert.Equal(t, "", regionCountry("火星|0|0|0|0"))
}

func TestOpenersRequirePaths(t *testing.T) {
	_, err := OpenMMDB("")
	assert.ErrorIs(t, err, ErrConfigMissing)
	_, err = OpenIP2Region("")
	assert.ErrorIs(t, err, ErrConfigMissing)
}

package sentiment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func TestBlend(t *testing.T) {
	assert.InDelta(t, 0.7*0.5+0.3*0.2, Blend(0.5, 0.2), 1e-12)
	assert.Equal(t, 1.0, Blend(2, 2))
	assert.Equal(t, -1.0, Blend(-2, -2))
}

func TestHTTPProviderBlendsComponents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sentiment", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("ticker"))
		assert.Equal(t, "2024-03-15", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`{"vader":0.4,"textblob":-0.2}`))
	}))
	defer srv.Close()

	v, err := NewHTTPProvider(srv.URL, time.Second).Sentiment(context.Background(), "AAPL", day)
	require.NoError(t, err)
	assert.InDelta(t, 0.22, v, 1e-12)
}

func TestHTTPProviderCombinedScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"sentiment":1.7}`))
	}))
	defer srv.Close()

	v, err := NewHTTPProvider(srv.URL, time.Second).Sentiment(context.Background(), "AAPL", day)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestHTTPProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ticker") == "EMPTY" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	_, err := p.Sentiment(context.Background(), "AAPL", day)
	assert.Error(t, err)
	_, err = p.Sentiment(context.Background(), "EMPTY", day)
	assert.Error(t, err)
}

func TestDeterministicIsStableAndBounded(t *testing.T) {
	d := NewDeterministic("seed")
	a, _ := d.Sentiment(context.Background(), "aapl", day)
	b, _ := d.Sentiment(context.Background(), "AAPL", day)
	assert.Equal(t, a, b)

	for i := 0; i < 50; i++ {
		v, err := d.Sentiment(context.Background(), "MSFT", day.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	other, _ := NewDeterministic("other").Sentiment(context.Background(), "AAPL", day)
	c, _ := d.Sentiment(context.Background(), "AAPL", day.AddDate(0, 0, 1))
	assert.False(t, other == a && c == a)
}

func TestStatic(t *testing.T) {
	v, err := Static(0.3).Sentiment(context.Background(), "X", day)
	require.NoError(t, err)
	assert.Equal(t, 0.3, v)
}

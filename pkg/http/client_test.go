package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendAndParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			var in map[string]interface{}
			_ = json.NewDecoder(r.Body).Decode(&in)
			in["q"] = r.URL.Query().Get("q")
			in["ct"] = r.Header.Get("Content-Type")
			_ = json.NewEncoder(w).Encode(in)
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}
	}))
	defer srv.Close()

	c := NewClient()
	var out map[string]interface{}
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL + "/echo",
		QueryParams: map[string][]string{"q": {"x"}},
		Body:        map[string]int{"n": 1},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["n"])
	assert.Equal(t, "x", out["q"])
	assert.Equal(t, "application/json", out["ct"])

	err = c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL + "/fail"}, &out)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "upstream down", se.Body)
	assert.True(t, se.Temporary())
}

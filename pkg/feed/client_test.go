package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func wrap(payload string) string {
	return CallbackPrefix + payload + CallbackSuffix
}

func TestWrapperLengths(t *testing.T) {
	assert.Len(t, CallbackPrefix, 21)
	assert.Len(t, CallbackSuffix, 2)
}

func TestParse(t *testing.T) {
	data, err := Parse([]byte(wrap(`{"600000":{"name":"Pudong Bank","price":10.5,"percent":0.012}}`)))
	require.NoError(t, err)

	entry, ok := data["600000"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Pudong Bank", entry["name"])
	assert.Equal(t, json.Number("10.5"), entry["price"])
}

func TestParseKeepsOutOfRangeNumbers(t *testing.T) {
	data, err := Parse([]byte(wrap(`{"600000":{"price":10.5},"000001":{"price":1e400}}`)))
	require.NoError(t, err)
	require.Len(t, data, 2)

	entry := data["000001"].(map[string]interface{})
	assert.Equal(t, json.Number("1e400"), entry["price"])
}

func TestFetchEscapesCodes(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(wrap(`{}`)))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	_, err := c.Fetch(context.Background(), "600000,60 01?x#y")
	require.NoError(t, err)
	assert.Equal(t, "/data/feed/600000,60%2001%3Fx%23y", gotPath)
}

func TestParseRejectsUnwrapped(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"html", "<html>error</html>"},
		{"empty", ""},
		{"prefix only", CallbackPrefix},
		{"bad json", wrap(`{"600000":`)},
		{"not an object", wrap(`[1,2]`)},
		{"trailing data", wrap(`{} {}`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.body))
			assert.True(t, errors.Is(err, ErrUpstreamFormat), "got %v", err)
		})
	}
}

func TestParseEmptyObject(t *testing.T) {
	data, err := Parse([]byte(wrap(`{}`)))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFetchRequestPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(wrap(`{}`)))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL + "/"))
	data, err := c.Quotes(context.Background(), "600000,000001")
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, "/data/feed/600000,000001", gotPath)
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(WithBaseURL(url), WithTimeout(time.Second))
	_, err := c.Fetch(context.Background(), "600000")

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "fetch quotes", te.Op)
	assert.NotNil(t, te.Unwrap())
}

func TestFetchGBK(t *testing.T) {
	encoded, err := simplifiedchinese.GBK.NewEncoder().String(wrap(`{"600000":{"name":"浦发银行"}}`))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(encoded))
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithCharset("GBK"))
	data, err := c.Quotes(context.Background(), "600000")
	require.NoError(t, err)
	assert.Equal(t, "浦发银行", data["600000"].(map[string]interface{})["name"])
}

func TestDefaults(t *testing.T) {
	c := New()
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.client.Timeout)
}

package searxng

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/capability"
	"github.com/iWorld-y/invest_radar/app/invest_radar/pkg/search"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/searx/search", r.URL.Path)
		assert.Equal(t, "news", r.URL.Query().Get("categories"))
		assert.Equal(t, "week", r.URL.Query().Get("time_range"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte(`{"query":"INFY","results":[
			{"title":"a","url":"https://a"},{"title":"b","url":"https://b"},{"title":"c","url":"https://c"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/searx", 5)
	resp, err := c.Search(context.Background(), &search.Request{Query: "INFY", Topic: "news", Days: 7, MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "https://b", resp.Results[1].URL)
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 5).Search(context.Background(), &search.Request{Query: "x"})
	assert.Equal(t, capability.KindTransient, capability.KindOf(err))
}

func TestTimeRange(t *testing.T) {
	assert.Equal(t, "", search.TimeRange(0))
	assert.Equal(t, "day", search.TimeRange(1))
	assert.Equal(t, "month", search.TimeRange(30))
	assert.Equal(t, "year", search.TimeRange(90))
}

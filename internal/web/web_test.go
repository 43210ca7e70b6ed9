package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bigcal/internal/config"
	"bigcal/internal/feed"
	"bigcal/internal/model"
)

func testServer(t *testing.T, cfg *config.Config, events []model.Occurrence) *httptest.Server {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Normalize()
	cfg.Timezone = "UTC"

	svc := feed.NewServiceWithLoader(cfg, func(context.Context, time.Time, time.Time) ([]model.Occurrence, error) {
		return events, nil
	})
	assert.NoError(t, svc.Refresh(context.Background()))

	server := httptest.NewServer(NewServer(cfg, svc).Handler())
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	assert.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func someOccurrences() []model.Occurrence {
	start := time.Now().UTC().Truncate(24 * time.Hour).Add(9 * time.Hour)
	return []model.Occurrence{
		{
			SourceID:    "test",
			UID:         "uid-1",
			InstanceKey: start.Format(time.RFC3339Nano),
			Summary:     "Team sync",
			Start:       start,
			End:         start.Add(time.Hour),
		},
	}
}

func TestHealth(t *testing.T) {
	server := testServer(t, nil, nil)
	resp := getJSON(t, server.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEventsEndpoint(t *testing.T) {
	server := testServer(t, nil, someOccurrences())

	var body struct {
		Occurrences []struct {
			UID   string `json:"uid"`
			Title string `json:"title"`
		} `json:"occurrences"`
		Revision uint64 `json:"revision"`
	}
	resp := getJSON(t, server.URL+"/api/events", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint64(1), body.Revision)
	assert.Len(t, body.Occurrences, 1)
	assert.Equal(t, "uid-1", body.Occurrences[0].UID)
	assert.Equal(t, "Team sync", body.Occurrences[0].Title)
}

func TestMonthEndpoint(t *testing.T) {
	server := testServer(t, nil, nil)

	t.Run("explicit date renders that month", func(t *testing.T) {
		var body struct {
			Title string  `json:"title"`
			Weeks [][]any `json:"weeks"`
		}
		resp := getJSON(t, server.URL+"/api/month?date=2026-02-01", &body)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "February 2026", body.Title)
		assert.NotEmpty(t, body.Weeks)
	})

	t.Run("bad date is a 400", func(t *testing.T) {
		resp := getJSON(t, server.URL+"/api/month?date=tomorrow", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("cell events carry the location", func(t *testing.T) {
		start := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
		server := testServer(t, nil, []model.Occurrence{{
			SourceID:    "test",
			UID:         "uid-loc",
			InstanceKey: start.Format(time.RFC3339Nano),
			Summary:     "Design review",
			Location:    "Room 4",
			Start:       start,
			End:         start.Add(time.Hour),
		}})

		var body struct {
			Weeks [][]struct {
				Date   string `json:"date"`
				Events []struct {
					Title    string `json:"title"`
					Location string `json:"location"`
				} `json:"events"`
			} `json:"weeks"`
		}
		resp := getJSON(t, server.URL+"/api/month?date=2026-03-01", &body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var found bool
		for _, week := range body.Weeks {
			for _, cell := range week {
				for _, ev := range cell.Events {
					if ev.Title == "Design review" {
						found = true
						assert.Equal(t, "Room 4", ev.Location)
					}
				}
			}
		}
		assert.True(t, found, "event must appear in its month cell")
	})
}

func TestPageEndpoint(t *testing.T) {
	server := testServer(t, nil, nil)

	var body struct {
		Mode        string `json:"mode"`
		TotalPages  int    `json:"total_pages"`
		CurrentPage int    `json:"current_page"`
		Page        struct {
			Title string `json:"title"`
		} `json:"page"`
	}
	resp := getJSON(t, server.URL+"/api/page", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "month", body.Mode)
	assert.Positive(t, body.TotalPages)
	assert.Equal(t, time.Now().UTC().Format("January 2006"), body.Page.Title)

	t.Run("index commits navigation", func(t *testing.T) {
		next := body.CurrentPage + 1
		var nav struct {
			CurrentPage int `json:"current_page"`
		}
		resp := getJSON(t, server.URL+"/api/page?index="+strconv.Itoa(next), &nav)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, next, nav.CurrentPage)
	})

	t.Run("bad index is a 400", func(t *testing.T) {
		resp := getJSON(t, server.URL+"/api/page?index=three", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestViewEndpoint(t *testing.T) {
	server := testServer(t, nil, nil)

	post := func(mode string) (*http.Response, map[string]any) {
		resp, err := http.Post(server.URL+"/api/view", "application/json",
			strings.NewReader(`{"mode":"`+mode+`"}`))
		assert.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]any
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp, body
	}

	t.Run("mode switch round trip", func(t *testing.T) {
		resp, body := post("day")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "day", body["mode"])

		resp, body = post("month")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "month", body["mode"])
	})

	t.Run("schedule mode blocks the pager", func(t *testing.T) {
		_, body := post("schedule")
		assert.Equal(t, "schedule", body["mode"])
		assert.Equal(t, float64(-1), body["current_page"])

		resp := getJSON(t, server.URL+"/api/page", nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		post("month")
	})

	t.Run("GET is rejected", func(t *testing.T) {
		resp := getJSON(t, server.URL+"/api/view", nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "user", Password: "secret"}
	server := testServer(t, cfg, nil)

	t.Run("unauthenticated API request is rejected", func(t *testing.T) {
		resp := getJSON(t, server.URL+"/api/events", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("health stays open", func(t *testing.T) {
		resp := getJSON(t, server.URL+"/health", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("valid credentials pass", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/api/events", nil)
		assert.NoError(t, err)
		req.SetBasicAuth("user", "secret")

		resp, err := http.DefaultClient.Do(req)
		assert.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/api/events", nil)
		assert.NoError(t, err)
		req.SetBasicAuth("user", "wrong")

		resp, err := http.DefaultClient.Do(req)
		assert.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestStaticUI(t *testing.T) {
	server := testServer(t, nil, nil)

	resp, err := http.Get(server.URL + "/")
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	t.Run("unknown API path is a 404", func(t *testing.T) {
		resp := getJSON(t, server.URL+"/api/nothing", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// Upstream is a fake launch catalog served over HTTP.
type Upstream struct {
	server *httptest.Server

	mu           sync.Mutex
	records      []map[string]any
	hits         map[string]int
	delay        time.Duration
	cacheControl string
	status       int
	rawBody      []byte
}

// NewUpstream starts a fake catalog serving records at /v2/launches.
// The server is closed when the test ends.
func NewUpstream(t testing.TB, records []map[string]any) *Upstream {
	t.Helper()

	u := &Upstream{
		records: records,
		hits:    make(map[string]int),
		status:  http.StatusOK,
	}
	u.server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.server.Close)
	return u
}

// BaseURL is the catalog base URL to configure the gateway with.
func (u *Upstream) BaseURL() string {
	return u.server.URL + "/v2/"
}

// SetDelay makes every response wait before being written.
func (u *Upstream) SetDelay(d time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.delay = d
}

// SetCacheControl sets the Cache-Control header on every response.
func (u *Upstream) SetCacheControl(v string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cacheControl = v
}

// SetStatus forces the response status code.
func (u *Upstream) SetStatus(code int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = code
}

// SetRawBody replaces the JSON listing with body. Nil restores the records.
func (u *Upstream) SetRawBody(body []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rawBody = body
}

// Hits returns the total number of requests served.
func (u *Upstream) Hits() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	total := 0
	for _, n := range u.hits {
		total += n
	}
	return total
}

// HitsFor returns the requests served for one raw query string ("" for the listing).
func (u *Upstream) HitsFor(rawQuery string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[rawQuery]
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits[r.URL.RawQuery]++
	delay := u.delay
	cacheControl := u.cacheControl
	status := u.status
	rawBody := u.rawBody
	records := u.records
	u.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if !strings.HasSuffix(r.URL.Path, "/launches") {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	w.WriteHeader(status)

	if rawBody != nil {
		_, _ = w.Write(rawBody)
		return
	}

	selected := records
	if flight := r.URL.Query().Get("flight_number"); flight != "" {
		selected = nil
		for _, rec := range records {
			if fmt.Sprint(rec["flight_number"]) == flight {
				selected = append(selected, rec)
			}
		}
	}
	if selected == nil {
		selected = []map[string]any{}
	}

	_ = json.NewEncoder(w).Encode(selected)
}

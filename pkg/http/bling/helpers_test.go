package bling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vpnda/bling-margin/pkg/models"
)

type fakeTokens struct {
	err   error
	calls atomic.Int32
}

func (f *fakeTokens) GetValidToken(_ context.Context, account models.AccountID) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return "token-" + account.String(), nil
}

// accountOf recovers the account from the bearer token handed out by
// fakeTokens.
func accountOf(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer token-")
}

// fakeUpstream is a Bling stand-in that counts requests per path.
type fakeUpstream struct {
	*httptest.Server

	mu       sync.Mutex
	hits     map[string]int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newFakeUpstream(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{hits: map[string]int{}}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		f.mu.Unlock()

		n := f.inFlight.Add(1)
		defer f.inFlight.Add(-1)
		for {
			seen := f.maxSeen.Load()
			if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
				break
			}
		}
		handler(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeUpstream) hitsFor(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeUpstream) hitsWithPrefix(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for path, n := range f.hits {
		if strings.HasPrefix(path, prefix) {
			total += n
		}
	}
	return total
}

func (f *fakeUpstream) client(account models.AccountID, tokens TokenSupplier) *Client {
	return NewClient(account, tokens, NewGate(0),
		WithBaseURL(f.URL),
		WithRetryDelays([]time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func listOf(items ...any) map[string]any {
	if items == nil {
		items = []any{}
	}
	return map[string]any{"data": items}
}

func detailOf(item any) map[string]any {
	return map[string]any{"data": item}
}

func billItem(id int64, status int, due string, amount float64) map[string]any {
	return map[string]any{"id": id, "situacao": status, "vencimento": due, "valor": amount}
}

func repeatBills(n int, startID int64) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = billItem(startID+int64(i), 1, "2026-01-10", 10)
	}
	return out
}

var testPeriod = models.Period{Month: 1, Year: 2026}

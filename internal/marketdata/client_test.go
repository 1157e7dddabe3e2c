package marketdata

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerStub struct {
	expirations     string
	chains          string
	quotes          string
	failPath        string
	lastAuth        string
	chainsRequested string
}

func (p *providerStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/markets/options/expirations", func(w http.ResponseWriter, r *http.Request) {
		p.lastAuth = r.Header.Get("Authorization")
		p.respond(w, r, p.expirations)
	})
	mux.HandleFunc("/v1/markets/options/chains", func(w http.ResponseWriter, r *http.Request) {
		p.chainsRequested = r.URL.Query().Get("expiration")
		p.respond(w, r, p.chains)
	})
	mux.HandleFunc("/v1/markets/quotes", func(w http.ResponseWriter, r *http.Request) {
		p.respond(w, r, p.quotes)
	})
	return mux
}

func (p *providerStub) respond(w http.ResponseWriter, r *http.Request, body string) {
	if r.URL.Path == p.failPath {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, body)
}

func newProviderStub() *providerStub {
	return &providerStub{
		expirations: `{"expirations":{"date":["2024-06-21","2024-06-28"]}}`,
		chains: `{"options":{"option":[
			{"symbol":"SPY240621C00440000","strike":440,"bid":2.05,"ask":2.10,"option_type":"call","expiration_date":"2024-06-21"},
			{"symbol":"SPY240621P00440000","strike":440,"bid":1.95,"ask":2.00,"option_type":"put","expiration_date":"2024-06-21"},
			{"symbol":"SPY240621C00442000","strike":442,"bid":1.30,"ask":1.35,"option_type":"call","expiration_date":"2024-06-21"}
		]}}`,
		quotes: `{"quotes":{"quote":{"symbol":"SPY","last":440.55,"close":440.5}}}`,
	}
}

func TestFetchChainSnapshot(t *testing.T) {
	stub := newProviderStub()
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	client := NewClient(ts.URL, "test-token")

	price, calls, err := client.FetchChainSnapshot("SPY")
	require.NoError(t, err)

	assert.Equal(t, 440.5, price)
	assert.Equal(t, "Bearer test-token", stub.lastAuth)
	assert.Equal(t, "2024-06-21", stub.chainsRequested, "nearest expiry is requested")

	// puts are dropped, provider order preserved
	require.Len(t, calls, 2)
	assert.Equal(t, "CALL", calls[0].Type)
	assert.Equal(t, 440.0, calls[0].Strike)
	assert.Equal(t, 2.10, calls[0].Price)
	assert.Equal(t, "2024-06-21", calls[0].Expiry)
	assert.Equal(t, 442.0, calls[1].Strike)
}

func TestFetchChainSnapshotFallsBackToLastPrice(t *testing.T) {
	stub := newProviderStub()
	stub.quotes = `{"quotes":{"quote":{"symbol":"SPY","last":440.55,"close":0}}}`
	ts := httptest.NewServer(stub.handler())
	defer ts.Close()

	price, _, err := NewClient(ts.URL, "").FetchChainSnapshot("SPY")
	require.NoError(t, err)
	assert.Equal(t, 440.55, price)
}

func TestFetchChainSnapshotCollapsesFailures(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*providerStub)
	}{
		{"expirations http error", func(p *providerStub) { p.failPath = "/v1/markets/options/expirations" }},
		{"chains http error", func(p *providerStub) { p.failPath = "/v1/markets/options/chains" }},
		{"quotes http error", func(p *providerStub) { p.failPath = "/v1/markets/quotes" }},
		{"no expirations", func(p *providerStub) { p.expirations = `{"expirations":{"date":[]}}` }},
		{"no calls in chain", func(p *providerStub) {
			p.chains = `{"options":{"option":[{"symbol":"SPY240621P00440000","strike":440,"bid":1.95,"ask":2.00,"option_type":"put","expiration_date":"2024-06-21"}]}}`
		}},
		{"no price", func(p *providerStub) { p.quotes = `{"quotes":{"quote":{"symbol":"SPY","last":0,"close":0}}}` }},
		{"malformed body", func(p *providerStub) { p.expirations = `not json` }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := newProviderStub()
			tc.mod(stub)
			ts := httptest.NewServer(stub.handler())
			defer ts.Close()

			price, calls, err := NewClient(ts.URL, "").FetchChainSnapshot("SPY")

			assert.True(t, errors.Is(err, ErrDataUnavailable))
			assert.Zero(t, price)
			assert.Nil(t, calls)
		})
	}
}

func TestFetchChainSnapshotUnreachableProvider(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "")

	_, _, err := client.FetchChainSnapshot("SPY")
	assert.True(t, errors.Is(err, ErrDataUnavailable))
}

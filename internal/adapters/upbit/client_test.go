package upbit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmbass/CoinButler/internal/adapters/upbit"
	"github.com/hmbass/CoinButler/internal/domain"
)

func newTestClient(srv *httptest.Server, maxMarkets int) *upbit.Client {
	return upbit.New(srv.URL, "test-access", "test-secret", maxMarkets)
}

func TestListMarketsFiltersAndCaps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/market/all", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"market":"KRW-BTC","korean_name":"비트코인","english_name":"Bitcoin"},
			{"market":"BTC-ETH","korean_name":"이더리움","english_name":"Ethereum"},
			{"market":"KRW-ETH","korean_name":"이더리움","english_name":"Ethereum"},
			{"market":"USDT-XRP","korean_name":"리플","english_name":"Ripple"},
			{"market":"KRW-XRP","korean_name":"리플","english_name":"Ripple"}
		]`))
	}))
	defer srv.Close()

	markets, err := newTestClient(srv, 2).ListMarkets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"KRW-BTC", "KRW-ETH"}, markets, "non-KRW pairs dropped, list capped")
}

func TestGetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/ticker", r.URL.Path)
		assert.Equal(t, "KRW-BTC", r.URL.Query().Get("markets"))
		w.Write([]byte(`[{"market":"KRW-BTC","trade_price":51230000.5}]`))
	}))
	defer srv.Close()

	price, err := newTestClient(srv, 10).GetPrice(context.Background(), "KRW-BTC")
	require.NoError(t, err)
	assert.Equal(t, 51230000.5, price)
}

func TestGetPriceEmptyBodyIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 10).GetPrice(context.Background(), "KRW-BTC")
	require.Error(t, err)
	assert.True(t, domain.IsPermanent(err))
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"market":"KRW-BTC","trade_price":100.0}]`))
	}))
	defer srv.Close()

	price, err := newTestClient(srv, 10).GetPrice(context.Background(), "KRW-BTC")
	require.NoError(t, err)
	assert.Equal(t, 100.0, price)
	assert.Equal(t, 2, calls, "one 503 then success")
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid market"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 10).GetPrice(context.Background(), "KRW-BTC")
	require.Error(t, err)
	assert.True(t, domain.IsPermanent(err))
	assert.Equal(t, 1, calls, "4xx is never retried")
}

func TestPlaceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "KRW-BTC", r.PostForm.Get("market"))
		assert.Equal(t, "bid", r.PostForm.Get("side"))
		assert.Equal(t, "limit", r.PostForm.Get("ord_type"))
		assert.Equal(t, "50000", r.PostForm.Get("price"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{
			"uuid":"9ca023a5-851b-4fec-9f0a-48cd83c2eaae",
			"market":"KRW-BTC","side":"bid",
			"price":"50000","volume":"1",
			"created_at":"2026-08-31T09:30:00+09:00"
		}`))
	}))
	defer srv.Close()

	conf, err := newTestClient(srv, 10).PlaceOrder(context.Background(), domain.OrderRequest{
		Market: "KRW-BTC",
		Side:   domain.SideBid,
		Price:  50000,
		Volume: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "9ca023a5-851b-4fec-9f0a-48cd83c2eaae", conf.UUID)
	assert.Equal(t, domain.SideBid, conf.Side)
	assert.Equal(t, 50000.0, conf.Price)
}

func TestPlaceOrderNeverRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 10).PlaceOrder(context.Background(), domain.OrderRequest{
		Market: "KRW-BTC", Side: domain.SideBid, Price: 100, Volume: 1,
	})
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
	assert.Equal(t, 1, calls, "a POST is submitted exactly once")
}

func TestPlaceOrderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"insufficient funds"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 10).PlaceOrder(context.Background(), domain.OrderRequest{
		Market: "KRW-BTC", Side: domain.SideBid, Price: 100, Volume: 1,
	})
	require.Error(t, err)
	assert.True(t, domain.IsPermanent(err))
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestGetBalances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "))
		w.Write([]byte(`[
			{"currency":"KRW","balance":"1000000.0","locked":"0.0","avg_buy_price":"0"},
			{"currency":"BTC","balance":"0.5","locked":"0.1","avg_buy_price":"48000000"}
		]`))
	}))
	defer srv.Close()

	balances, err := newTestClient(srv, 10).GetBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.Equal(t, "KRW", balances[0].Currency)
	assert.Equal(t, 1000000.0, balances[0].Available)
	assert.Equal(t, 0.1, balances[1].Locked)
	assert.Equal(t, 48000000.0, balances[1].AvgBuyPrice)
}

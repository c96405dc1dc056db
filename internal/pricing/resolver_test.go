package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"walletScope/internal/model"
	"walletScope/internal/tokenlist"
)

const (
	wethContract = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	linkContract = "0x514910771AF9Ca656af840dff83E8264EcF986CA"
)

func testList(t *testing.T) *tokenlist.List {
	t.Helper()
	list, err := tokenlist.New([]tokenlist.Entry{
		{Contract: wethContract, Symbol: "WETH"},
		{Contract: linkContract, Symbol: "LINK", PriceID: "chainlink"},
	})
	require.NoError(t, err)
	return list
}

func TestValueInNativeWrappedNative(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewResolver(Config{BaseURL: server.URL}, testList(t), nil)
	value := r.ValueInNative(context.Background(), model.TokenHolding{
		Contract: wethContract,
		Symbol:   "WETH",
		Balance:  2.5,
	})

	require.Equal(t, 2.5, value, "wrapped native converts 1:1")
	require.Zero(t, calls.Load(), "wrapped native must not hit the price service")
}

func TestValueInNativeUnknownContract(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	r := NewResolver(Config{BaseURL: server.URL}, testList(t), nil)
	value := r.ValueInNative(context.Background(), model.TokenHolding{
		Contract: "0x0000000000085d4780B73119b644AE5ecd22b376",
		Symbol:   "TUSD",
		Balance:  100,
	})

	require.Zero(t, value, "contract outside the curated table values to zero")
	require.Zero(t, calls.Load(), "unknown contract must not hit the price service")
}

func TestValueInNativeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/simple/price", r.URL.Path)
		require.Equal(t, "chainlink", r.URL.Query().Get("ids"))
		require.Equal(t, "eth", r.URL.Query().Get("vs_currencies"))
		fmt.Fprint(w, `{"chainlink":{"eth":0.005}}`)
	}))
	defer server.Close()

	r := NewResolver(Config{BaseURL: server.URL}, testList(t), nil)
	value := r.ValueInNative(context.Background(), model.TokenHolding{
		Contract: linkContract,
		Symbol:   "LINK",
		Balance:  100,
	})

	require.InDelta(t, 0.5, value, 1e-12)
}

func TestValueInNativeServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	r := NewResolver(Config{BaseURL: server.URL}, testList(t), nil)
	value := r.ValueInNative(context.Background(), model.TokenHolding{
		Contract: linkContract,
		Symbol:   "LINK",
		Balance:  100,
	})

	require.Zero(t, value, "lookup failure values to zero instead of failing the snapshot")
}

func TestValueInNativeMissingRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	r := NewResolver(Config{BaseURL: server.URL}, testList(t), nil)
	value := r.ValueInNative(context.Background(), model.TokenHolding{
		Contract: linkContract,
		Symbol:   "LINK",
		Balance:  100,
	})

	require.Zero(t, value)
}

func TestValueInNativeMalformedContract(t *testing.T) {
	r := NewResolver(Config{}, testList(t), nil)
	value := r.ValueInNative(context.Background(), model.TokenHolding{
		Contract: "not-an-address",
		Balance:  1,
	})
	require.Zero(t, value)
}

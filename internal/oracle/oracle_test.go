package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"chainscout/internal/source"
)

func quoteServer(t *testing.T, date int64, priceUSD string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		quotes := []map[string]any{}
		if priceUSD != "" {
			quotes = append(quotes, map[string]any{"date": date, "priceUSD": priceUSD})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"tokenDayDatas": quotes},
		})
	}))
}

func testDirectory() source.Directory {
	return source.StaticDirectory{"AAVE": {ID: "0xtokenaave", Symbol: "AAVE"}}
}

func TestGraphOracle_FreshQuote(t *testing.T) {
	at := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	srv := quoteServer(t, at.Add(-6*time.Hour).Unix(), "87.5")
	defer srv.Close()

	orc := NewGraphOracle(source.NewClient(srv.URL, 0, time.Millisecond, time.Second), testDirectory(), 48*time.Hour)
	price, err := orc.PriceAt(context.Background(), "AAVE", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("87.5")) {
		t.Errorf("price = %s, want 87.5", price)
	}
}

func TestGraphOracle_StaleQuoteRejected(t *testing.T) {
	at := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	srv := quoteServer(t, at.Add(-72*time.Hour).Unix(), "87.5")
	defer srv.Close()

	orc := NewGraphOracle(source.NewClient(srv.URL, 0, time.Millisecond, time.Second), testDirectory(), 48*time.Hour)
	_, err := orc.PriceAt(context.Background(), "AAVE", at)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestGraphOracle_NoQuote(t *testing.T) {
	at := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	srv := quoteServer(t, 0, "")
	defer srv.Close()

	orc := NewGraphOracle(source.NewClient(srv.URL, 0, time.Millisecond, time.Second), testDirectory(), 48*time.Hour)
	_, err := orc.PriceAt(context.Background(), "AAVE", at)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestGraphOracle_UnknownSymbol(t *testing.T) {
	at := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	srv := quoteServer(t, at.Unix(), "1")
	defer srv.Close()

	orc := NewGraphOracle(source.NewClient(srv.URL, 0, time.Millisecond, time.Second), testDirectory(), 48*time.Hour)
	_, err := orc.PriceAt(context.Background(), "NOPE", at)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestCachedOracle_MemoizesHits(t *testing.T) {
	at := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	mock := &MockOracle{Prices: map[string]decimal.Decimal{"AAVE": decimal.NewFromInt(100)}}
	orc := NewCachedOracle(mock)

	for i := 0; i < 3; i++ {
		price, err := orc.PriceAt(context.Background(), "AAVE", at)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !price.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("price = %s, want 100", price)
		}
	}
	if mock.Calls() != 1 {
		t.Errorf("underlying lookups = %d, want 1", mock.Calls())
	}

	// a different timestamp is a different entry
	if _, err := orc.PriceAt(context.Background(), "AAVE", at.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls() != 2 {
		t.Errorf("underlying lookups = %d, want 2", mock.Calls())
	}
}

func TestCachedOracle_MemoizesMisses(t *testing.T) {
	at := time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)
	mock := &MockOracle{}
	orc := NewCachedOracle(mock)

	for i := 0; i < 3; i++ {
		if _, err := orc.PriceAt(context.Background(), "NOPE", at); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("err = %v, want ErrUnavailable", err)
		}
	}
	if mock.Calls() != 1 {
		t.Errorf("negative results should be cached too, lookups = %d", mock.Calls())
	}
}

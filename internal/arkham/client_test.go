package arkham

import (
	"testing"
)

func TestParseTransfers_WrappedAndBare(t *testing.T) {
	wrapped := []byte(`{"transfers":[{"transactionHash":"0x1","tokenSymbol":"ETH","unitValue":"123.45","historicalUSD":400000.5,"blockTimestamp":"2024-05-01T09:30:00Z","fromAddress":{"address":"0xaaa","arkhamLabel":{"name":"Binance Hot Wallet"}},"toAddress":{"address":"0xbbb"}}]}`)
	txs, err := parseTransfers(wrapped)
	if err != nil {
		t.Fatalf("parseTransfers wrapped: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(txs))
	}
	got := txs[0]
	if got.TokenAmount != 123.45 {
		t.Errorf("string unitValue parsed as %v", got.TokenAmount)
	}
	if got.ValueUSD != 400000.5 {
		t.Errorf("numeric historicalUSD parsed as %v", got.ValueUSD)
	}
	if got.From.Label != "Binance Hot Wallet" {
		t.Errorf("from label = %q", got.From.Label)
	}
	if got.To.Label != "" || got.To.Address != "0xbbb" {
		t.Errorf("to counterparty = %+v", got.To)
	}

	bare := []byte(`[{"transactionHash":"0x2"}]`)
	txs, err = parseTransfers(bare)
	if err != nil {
		t.Fatalf("parseTransfers bare: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transfer from bare array, got %d", len(txs))
	}
	if txs[0].TokenSymbol != "Unknown" {
		t.Errorf("missing symbol should default to Unknown, got %q", txs[0].TokenSymbol)
	}
	if txs[0].BlockTime != "Unknown Time" {
		t.Errorf("missing timestamp should default to Unknown Time, got %q", txs[0].BlockTime)
	}
}

func TestParseTransfers_Malformed(t *testing.T) {
	if _, err := parseTransfers([]byte(`"nope"`)); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

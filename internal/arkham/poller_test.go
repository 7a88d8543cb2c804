package arkham

import (
	"fmt"
	"strings"
	"testing"

	"CoinSentry/internal/model"
)

func tx(hash string, value float64) model.Transfer {
	return model.Transfer{
		TransactionHash: hash,
		TokenSymbol:     "BTC",
		TokenAmount:     10,
		ValueUSD:        value,
		BlockTime:       "2024-05-01T09:30:00Z",
		From:            model.Counterparty{Label: "Binance"},
		To:              model.Counterparty{Address: "0xabcdef0123456789"},
	}
}

func TestEvaluate_OldestFirstAndDedup(t *testing.T) {
	p := NewPoller(nil, nil, nil, nil, 0)

	// API order is newest first; alerts must come out oldest first.
	batch := []model.Transfer{tx("new", 2000000), tx("old", 1000000)}
	alerts := p.Evaluate("binance", batch)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].ValueUSD != 1000000 || alerts[1].ValueUSD != 2000000 {
		t.Errorf("alerts out of order: %v, %v", alerts[0].ValueUSD, alerts[1].ValueUSD)
	}

	// Same batch again: everything already seen.
	if again := p.Evaluate("binance", batch); len(again) != 0 {
		t.Errorf("expected 0 alerts on replay, got %d", len(again))
	}

	// Overlapping batch: only the unseen hash alerts.
	batch = []model.Transfer{tx("newer", 3000000), tx("new", 2000000)}
	alerts = p.Evaluate("binance", batch)
	if len(alerts) != 1 || alerts[0].ValueUSD != 3000000 {
		t.Fatalf("expected only the unseen transfer, got %d alerts", len(alerts))
	}
}

func TestEvaluate_DedupSetClears(t *testing.T) {
	p := NewPoller(nil, nil, nil, nil, 0)
	for i := 0; i < dedupCapacity; i++ {
		p.seen[fmt.Sprintf("h%d", i)] = struct{}{}
	}

	// The insert pushes the set past capacity, clearing it wholesale.
	if alerts := p.Evaluate("binance", []model.Transfer{tx("overflow", 1)}); len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if len(p.seen) != 0 {
		t.Fatalf("expected cleared dedup set, got %d entries", len(p.seen))
	}

	// After a clear the same hash may alert again.
	if alerts := p.Evaluate("binance", []model.Transfer{tx("overflow", 1)}); len(alerts) != 1 {
		t.Errorf("expected re-alert after clear, got %d", len(alerts))
	}
}

func TestDisplayLabel(t *testing.T) {
	cases := []struct {
		cp   model.Counterparty
		want string
	}{
		{model.Counterparty{Label: "Coinbase", Address: "0x1234567890"}, "Coinbase"},
		{model.Counterparty{Address: "0x1234567890"}, "0x123456..."},
		{model.Counterparty{Address: "0xabc"}, "0xabc"},
		{model.Counterparty{}, "Unknown"},
	}
	for _, c := range cases {
		if got := displayLabel(c.cp); got != c.want {
			t.Errorf("displayLabel(%+v) = %q, want %q", c.cp, got, c.want)
		}
	}
}

func TestFormatTransfer(t *testing.T) {
	transfer := tx("0xhash", 1500000)
	text := formatTransfer("blackrock", &transfer)

	for _, want := range []string{
		"#blackrock",
		"$1,500,000",
		"10 BTC",
		"Binance",
		"0xabcdef...",
		"explorer/tx/0xhash",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message missing %q:\n%s", want, text)
		}
	}
}

package notifier

import (
	"testing"
	"time"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1500000, "1.50M"},
		{1000000, "1.00M"},
		{50000, "50.00K"},
		{1000, "1.00K"},
		{100.5, "100.50"},
		{0, "0.00"},
	}
	for _, c := range cases {
		if got := FormatAmount(c.in); got != c.want {
			t.Errorf("FormatAmount(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatUSD(t *testing.T) {
	if got := FormatUSD(1500000); got != "$1,500,000" {
		t.Errorf("FormatUSD(1500000) = %q, want $1,500,000", got)
	}
	if got := FormatUSD(999); got != "$999" {
		t.Errorf("FormatUSD(999) = %q, want $999", got)
	}
}

func TestFormatClock(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 30, 15, 0, time.Local).UnixMilli()
	if got := FormatClock(ts); got != "09:30:15" {
		t.Errorf("FormatClock(%d) = %q, want 09:30:15", ts, got)
	}
}

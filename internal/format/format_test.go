package format

import (
	"math"
	"testing"
	"time"
)

func TestUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{1234.567, "$1,234.57"},
		{1.005, "$1.01"},
		{2.675, "$2.68"},
		{999999.999, "$1,000,000.00"},
		{-42.5, "-$42.50"},
		{-0.001, "$0.00"},
		{math.NaN(), "-"},
	}
	for _, tt := range tests {
		if got := USD(tt.in); got != tt.want {
			t.Errorf("USD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrice(t *testing.T) {
	if got := Price(189.4); got != "189.40" {
		t.Errorf("Price = %q, want 189.40", got)
	}
	if got := Price(12345.678); got != "12345.68" {
		t.Errorf("Price = %q, want 12345.68", got)
	}
}

func TestCryptoPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "--"},
		{64123.456, "$64,123.46"},
		{0.51234, "$0.5123"},
		{0.5, "$0.50"},
		{0.123, "$0.123"},
		{0.00001, "$0.00"},
	}
	for _, tt := range tests {
		if got := CryptoPrice(tt.in); got != tt.want {
			t.Errorf("CryptoPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSignedPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.234, "+1.23%"},
		{-1.235, "-1.24%"},
		{0, "+0.00%"},
		{-0.004, "+0.00%"},
		{1500, "+1,500.00%"},
	}
	for _, tt := range tests {
		if got := SignedPercent(tt.in); got != tt.want {
			t.Errorf("SignedPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArrowPercent(t *testing.T) {
	if got := ArrowPercent(2.5); got != "▲ 2.50%" {
		t.Errorf("ArrowPercent(2.5) = %q", got)
	}
	if got := ArrowPercent(-0.75); got != "▼ 0.75%" {
		t.Errorf("ArrowPercent(-0.75) = %q", got)
	}
	if got := ArrowPercent(0); got != "▲ 0.00%" {
		t.Errorf("ArrowPercent(0) = %q", got)
	}
}

func TestChangeAbs(t *testing.T) {
	if got := ChangeAbs(98.5, 100); got != "$1.50" {
		t.Errorf("ChangeAbs = %q, want $1.50", got)
	}
}

func TestCompact(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{2.95e12, "2.95T"},
		{1.5e9, "1.50B"},
		{45_600_000, "45.60M"},
		{1234, "1.23K"},
		{12, "12.00"},
		{-3e6, "-3.00M"},
	}
	for _, tt := range tests {
		if got := Compact(tt.in); got != tt.want {
			t.Errorf("Compact(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		if got := Int(tt.in); got != tt.want {
			t.Errorf("Int(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDates(t *testing.T) {
	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	if got := ShortDate(ts); got != "Mar 5" {
		t.Errorf("ShortDate = %q", got)
	}
	if got := Clock(ts); got != "2:07:09 PM" {
		t.Errorf("Clock = %q", got)
	}
	if got := NewsDate(ts.Unix(), time.UTC); got != "3/5/2024" {
		t.Errorf("NewsDate = %q", got)
	}
	if got := NewsDate(0, time.UTC); got != "" {
		t.Errorf("NewsDate(0) = %q, want empty", got)
	}
}

func TestTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if got := Timestamp("2024-05-01T12:00:00Z"); !got.Equal(want) {
		t.Errorf("Timestamp(rfc3339) = %v", got)
	}
	if got := Timestamp("1714564800000"); !got.Equal(want) {
		t.Errorf("Timestamp(millis) = %v", got)
	}
	if got := Timestamp("yesterday"); !got.IsZero() {
		t.Errorf("Timestamp(bad) = %v, want zero", got)
	}
}

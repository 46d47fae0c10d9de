package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineTotal_NoFloatDrift(t *testing.T) {
	// 0.10 * 3 must be exactly 0.30, not 0.30000000000000004
	if got := Format(LineTotal(0.10, 3)); got != "0.30" {
		t.Fatalf("got %s", got)
	}
}

func TestSum_ManyLineItems(t *testing.T) {
	// a hundred 19.99 lines must sum exactly
	total := decimal.Zero
	for i := 0; i < 100; i++ {
		total = total.Add(LineTotal(19.99, 1))
	}
	if got := Format(total); got != "1999.00" {
		t.Fatalf("got %s", got)
	}
}

func TestFormat_TwoDecimalPlaces(t *testing.T) {
	if got := Format(FromFloat(49.9)); got != "49.90" {
		t.Fatalf("got %s", got)
	}
	if got := Format(FromFloat(100)); got != "100.00" {
		t.Fatalf("got %s", got)
	}
}

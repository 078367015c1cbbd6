package savings

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

func TestWeiConversion(t *testing.T) {
	wei, err := ToWei(decimal.RequireFromString("1.5"))
	if err != nil {
		t.Fatalf("to wei: %v", err)
	}
	if wei.Dec() != "1500000000000000000" {
		t.Fatalf("unexpected wei value %s", wei.Dec())
	}
	if got := FromWei(wei); got.String() != "1.5" {
		t.Fatalf("expected 1.5, got %s", got)
	}
	if got := FromWei(nil); !got.IsZero() {
		t.Fatalf("expected nil amount to be zero, got %s", got)
	}
	if got := FromWei(uint256.NewInt(1)); got.String() != "0.000000000000000001" {
		t.Fatalf("unexpected single wei conversion %s", got)
	}
}

func TestToWeiRejectsInvalidAmounts(t *testing.T) {
	for _, raw := range []string{"-1", "0.0000000000000000001"} {
		if _, err := ToWei(decimal.RequireFromString(raw)); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("ToWei(%s): expected invalid argument, got %v", raw, err)
		}
	}
	huge := decimal.New(1, 80)
	if _, err := ToWei(huge); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected overflow to be rejected, got %v", err)
	}
}

package savings

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEstimateReward(t *testing.T) {
	cases := []struct {
		name      string
		principal string
		days      int64
		want      string
	}{
		{name: "zero principal", principal: "0", days: 90, want: "0.00"},
		{name: "zero duration", principal: "500", days: 0, want: "0.00"},
		{name: "quarter lock", principal: "500", days: 90, want: "6.16"},
		{name: "full year", principal: "1000", days: 365, want: "50.00"},
		{name: "half rounds up", principal: "36.5", days: 1, want: "0.01"},
		{name: "half rounds up above unit", principal: "100.1", days: 365, want: "5.01"},
		{name: "below half rounds down", principal: "36.4", days: 1, want: "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EstimateReward(decimal.RequireFromString(tc.principal), tc.days)
			if err != nil {
				t.Fatalf("estimate: %v", err)
			}
			if got.StringFixed(2) != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got.StringFixed(2))
			}
		})
	}
}

func TestEstimateRewardRejectsNegativeInput(t *testing.T) {
	if _, err := EstimateReward(decimal.NewFromInt(-1), 30); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for negative principal, got %v", err)
	}
	if _, err := EstimateReward(decimal.NewFromInt(100), -5); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for negative duration, got %v", err)
	}
}

func TestEstimatorCustomRate(t *testing.T) {
	estimator, err := NewEstimator(decimal.RequireFromString("0.1"))
	if err != nil {
		t.Fatalf("new estimator: %v", err)
	}
	got, err := estimator.Estimate(decimal.NewFromInt(365), 10)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected 1, got %s", got)
	}
	if _, err := NewEstimator(decimal.RequireFromString("-0.01")); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected negative rate to be rejected, got %v", err)
	}
}

func TestEarlyUnlockReward(t *testing.T) {
	got, err := EarlyUnlockReward(decimal.RequireFromString("6.16"))
	if err != nil {
		t.Fatalf("early unlock: %v", err)
	}
	if got.StringFixed(2) != "3.08" {
		t.Fatalf("expected 3.08, got %s", got.StringFixed(2))
	}
	got, err = EarlyUnlockReward(decimal.RequireFromString("0.01"))
	if err != nil {
		t.Fatalf("early unlock: %v", err)
	}
	if got.StringFixed(2) != "0.01" {
		t.Fatalf("expected half cent to round up, got %s", got.StringFixed(2))
	}
	if _, err := EarlyUnlockReward(decimal.NewFromInt(-2)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

package savings

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"active":      StatusActive,
		" Completed ": StatusCompleted,
		"ALL":         StatusAll,
	}
	for raw, want := range cases {
		got, ok := ParseStatus(raw)
		if !ok || got != want {
			t.Fatalf("ParseStatus(%q) = %q, %v; want %q", raw, got, ok, want)
		}
	}
	if _, ok := ParseStatus("paused"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
	if StatusFromActive(true) != StatusActive || StatusFromActive(false) != StatusCompleted {
		t.Fatalf("unexpected active flag mapping")
	}
}

func TestCampaignRoundProgress(t *testing.T) {
	c := Campaign{CurrentRound: 2, TotalRounds: 5}
	if got := c.RoundProgress().StringFixed(2); got != "40.00" {
		t.Fatalf("expected 40.00, got %s", got)
	}
	c = Campaign{CurrentRound: 1, TotalRounds: 3}
	if got := c.RoundProgress().StringFixed(2); got != "33.33" {
		t.Fatalf("expected 33.33, got %s", got)
	}
	if got := (Campaign{}).RoundProgress(); !got.IsZero() {
		t.Fatalf("expected zero progress without rounds, got %s", got)
	}
}

func TestCampaignHasParticipant(t *testing.T) {
	member := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	c := Campaign{Participants: []common.Address{member}}
	if !c.HasParticipant(common.HexToAddress("0x742d35cc6634c0532925a3b844bc454e4438f44e")) {
		t.Fatalf("expected lowercase address to match")
	}
	if c.HasParticipant(common.Address{}) {
		t.Fatalf("unexpected match for zero address")
	}
}

func TestLockProgress(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lock := Lock{
		Amount:       decimal.NewFromInt(500),
		DurationDays: 10,
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, 10),
		Status:       StatusActive,
	}
	if got := lock.Progress(start.AddDate(0, 0, 3)).StringFixed(2); got != "30.00" {
		t.Fatalf("expected 30.00, got %s", got)
	}
	if got := lock.Progress(start.Add(-time.Hour)); !got.IsZero() {
		t.Fatalf("expected zero before start, got %s", got)
	}
	if got := lock.Progress(start.AddDate(0, 1, 0)).StringFixed(0); got != "100" {
		t.Fatalf("expected 100 after end, got %s", got)
	}
	if lock.Matured(start.AddDate(0, 0, 9)) {
		t.Fatalf("lock should not be matured before end date")
	}
	lock.Status = StatusCompleted
	if got := lock.Progress(start).StringFixed(0); got != "100" {
		t.Fatalf("expected completed lock to report 100, got %s", got)
	}
}

package savings

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state reported for campaigns and locks.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	// StatusAll is only meaningful in filter criteria and matches every
	// record.
	StatusAll Status = "all"
)

// ParseStatus normalises user supplied status text. The boolean is false
// for anything other than all, active or completed.
func ParseStatus(raw string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusActive:
		return StatusActive, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusAll:
		return StatusAll, true
	default:
		return "", false
	}
}

// StatusFromActive maps the contract's active flag onto a Status.
func StatusFromActive(active bool) Status {
	if active {
		return StatusActive
	}
	return StatusCompleted
}

// Campaign is a read-only projection of a rotating thrift campaign as
// returned by the thrift contract.
type Campaign struct {
	// ID is assigned by the contract when the campaign is created.
	ID uint64
	// Participants lists the member accounts in payout order.
	Participants []common.Address
	// ContributionAmount is the per-round contribution in stable token
	// units.
	ContributionAmount decimal.Decimal
	CurrentRound       uint32
	TotalRounds        uint32
	Status             Status
}

// ParticipantCount returns the number of member accounts.
func (c Campaign) ParticipantCount() int {
	return len(c.Participants)
}

// HasParticipant reports whether addr is one of the campaign members.
func (c Campaign) HasParticipant(addr common.Address) bool {
	for _, participant := range c.Participants {
		if participant == addr {
			return true
		}
	}
	return false
}

// RoundProgress returns the completed share of rounds as a percentage with
// two decimal places. Campaigns without rounds report zero.
func (c Campaign) RoundProgress() decimal.Decimal {
	if c.TotalRounds == 0 {
		return decimal.Zero
	}
	done := decimal.NewFromInt(int64(c.CurrentRound) * 100)
	return done.DivRound(decimal.NewFromInt(int64(c.TotalRounds)), 2)
}

// Lock is a time-locked deposit held by the piggy contract.
type Lock struct {
	ID           uint64
	Owner        common.Address
	Amount       decimal.Decimal
	DurationDays uint32
	StartDate    time.Time
	EndDate      time.Time
	// Reward is the reward accrued so far.
	Reward decimal.Decimal
	Status Status
}

// Matured reports whether the lock end date has been reached at now.
func (l Lock) Matured(now time.Time) bool {
	return !now.Before(l.EndDate)
}

// Progress returns the elapsed share of the lock period as a percentage in
// [0, 100] with two decimal places. Completed locks always report 100.
func (l Lock) Progress(now time.Time) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	if l.Status == StatusCompleted {
		return hundred
	}
	total := int64(l.EndDate.Sub(l.StartDate) / time.Second)
	if total <= 0 {
		if l.Matured(now) {
			return hundred
		}
		return decimal.Zero
	}
	elapsed := int64(now.Sub(l.StartDate) / time.Second)
	if elapsed <= 0 {
		return decimal.Zero
	}
	if elapsed >= total {
		return hundred
	}
	share := decimal.NewFromInt(elapsed).Mul(hundred)
	return share.DivRound(decimal.NewFromInt(total), 2)
}

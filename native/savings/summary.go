package savings

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Summary aggregates a member's savings position for the dashboard.
type Summary struct {
	ActiveGroups    int
	CompletedGroups int
	// ContributionPerRound is the total owed each round across the member's
	// active campaigns.
	ContributionPerRound decimal.Decimal
	ActiveLocks          int
	LockedSavings        decimal.Decimal
	AccruedRewards       decimal.Decimal
}

// Summarize folds campaigns and locks into a Summary for member. The zero
// address selects every record.
func Summarize(campaigns []Campaign, locks []Lock, member common.Address) Summary {
	everyone := member == (common.Address{})
	summary := Summary{
		ContributionPerRound: decimal.Zero,
		LockedSavings:        decimal.Zero,
		AccruedRewards:       decimal.Zero,
	}
	for _, campaign := range campaigns {
		if !everyone && !campaign.HasParticipant(member) {
			continue
		}
		switch campaign.Status {
		case StatusActive:
			summary.ActiveGroups++
			summary.ContributionPerRound = summary.ContributionPerRound.Add(campaign.ContributionAmount)
		case StatusCompleted:
			summary.CompletedGroups++
		}
	}
	for _, lock := range locks {
		if !everyone && lock.Owner != member {
			continue
		}
		summary.AccruedRewards = summary.AccruedRewards.Add(lock.Reward)
		if lock.Status == StatusActive {
			summary.ActiveLocks++
			summary.LockedSavings = summary.LockedSavings.Add(lock.Amount)
		}
	}
	return summary
}

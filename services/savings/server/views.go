package server

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"esusu/native/savings"
	"esusu/services/savings/chain"
)

type campaignView struct {
	ID                 uint64   `json:"id"`
	Participants       []string `json:"participants"`
	ParticipantCount   int      `json:"participant_count"`
	ContributionAmount string   `json:"contribution_amount"`
	CurrentRound       uint32   `json:"current_round"`
	TotalRounds        uint32   `json:"total_rounds"`
	RoundProgress      string   `json:"round_progress"`
	Status             string   `json:"status"`
}

type campaignListView struct {
	Campaigns []campaignView `json:"campaigns"`
	Count     int            `json:"count"`
	Total     int            `json:"total"`
	TakenAt   time.Time      `json:"taken_at"`
}

type lockView struct {
	ID                uint64 `json:"id"`
	Owner             string `json:"owner,omitempty"`
	Amount            string `json:"amount"`
	DurationDays      uint32 `json:"duration_days"`
	StartDate         string `json:"start_date"`
	EndDate           string `json:"end_date"`
	Reward            string `json:"reward"`
	PotentialReward   string `json:"potential_reward"`
	EarlyUnlockReward string `json:"early_unlock_reward"`
	Progress          string `json:"progress"`
	Matured           bool   `json:"matured"`
	Status            string `json:"status"`
}

type lockListView struct {
	Locks   []lockView `json:"locks"`
	Count   int        `json:"count"`
	Total   int        `json:"total"`
	TakenAt time.Time  `json:"taken_at"`
}

type estimateView struct {
	Principal         string `json:"principal"`
	DurationDays      int64  `json:"duration_days"`
	AnnualRate        string `json:"annual_rate"`
	Reward            string `json:"reward"`
	EarlyUnlockReward string `json:"early_unlock_reward"`
}

type summaryView struct {
	Address              string `json:"address,omitempty"`
	ActiveGroups         int    `json:"active_groups"`
	CompletedGroups      int    `json:"completed_groups"`
	ContributionPerRound string `json:"contribution_per_round"`
	ActiveLocks          int    `json:"active_locks"`
	LockedSavings        string `json:"locked_savings"`
	AccruedRewards       string `json:"accrued_rewards"`
}

type callView struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

type healthView struct {
	Status  string     `json:"status"`
	Ready   bool       `json:"ready"`
	TakenAt *time.Time `json:"taken_at,omitempty"`
	Digest  string     `json:"digest,omitempty"`
}

func newCampaignView(c savings.Campaign) campaignView {
	participants := make([]string, 0, len(c.Participants))
	for _, participant := range c.Participants {
		participants = append(participants, participant.Hex())
	}
	return campaignView{
		ID:                 c.ID,
		Participants:       participants,
		ParticipantCount:   c.ParticipantCount(),
		ContributionAmount: c.ContributionAmount.String(),
		CurrentRound:       c.CurrentRound,
		TotalRounds:        c.TotalRounds,
		RoundProgress:      fixed(c.RoundProgress()),
		Status:             string(c.Status),
	}
}

func newLockView(l savings.Lock, now time.Time, estimator *savings.Estimator) lockView {
	view := lockView{
		ID:           l.ID,
		Amount:       l.Amount.String(),
		DurationDays: l.DurationDays,
		StartDate:    l.StartDate.UTC().Format(time.RFC3339),
		EndDate:      l.EndDate.UTC().Format(time.RFC3339),
		Reward:       fixed(l.Reward),
		Progress:     fixed(l.Progress(now)),
		Matured:      l.Matured(now),
		Status:       string(l.Status),
	}
	if (l.Owner != common.Address{}) {
		view.Owner = l.Owner.Hex()
	}
	potential, err := estimator.Estimate(l.Amount, int64(l.DurationDays))
	if err != nil {
		potential = decimal.Zero
	}
	view.PotentialReward = fixed(potential)
	if early, err := savings.EarlyUnlockReward(potential); err == nil {
		view.EarlyUnlockReward = fixed(early)
	}
	return view
}

func newSummaryView(s savings.Summary, member common.Address) summaryView {
	view := summaryView{
		ActiveGroups:         s.ActiveGroups,
		CompletedGroups:      s.CompletedGroups,
		ContributionPerRound: s.ContributionPerRound.String(),
		ActiveLocks:          s.ActiveLocks,
		LockedSavings:        s.LockedSavings.String(),
		AccruedRewards:       fixed(s.AccruedRewards),
	}
	if (member != common.Address{}) {
		view.Address = member.Hex()
	}
	return view
}

func newCallView(call chain.Call) callView {
	return callView{To: call.To.Hex(), Data: hexutil.Encode(call.Data)}
}

// fixed renders a two-place value the way the reward calculator displays it.
func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

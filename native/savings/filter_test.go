package savings

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func participants(n int) []common.Address {
	out := make([]common.Address, n)
	for i := range out {
		out[i] = common.BigToAddress(big.NewInt(int64(i + 1)))
	}
	return out
}

func campaign(id uint64, amount string, members int, status Status) Campaign {
	return Campaign{
		ID:                 id,
		Participants:       participants(members),
		ContributionAmount: decimal.RequireFromString(amount),
		CurrentRound:       1,
		TotalRounds:        5,
		Status:             status,
	}
}

func ids(campaigns []Campaign) []uint64 {
	out := make([]uint64, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, c.ID)
	}
	return out
}

func decimalPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func intPtr(v int) *int {
	return &v
}

func sampleCampaigns() []Campaign {
	return []Campaign{
		campaign(1, "50", 2, StatusActive),
		campaign(12, "100", 3, StatusCompleted),
		campaign(21, "150", 5, StatusActive),
		campaign(3, "100", 4, StatusActive),
		campaign(30, "75", 2, StatusCompleted),
	}
}

func TestFilterCampaignsIdentity(t *testing.T) {
	input := sampleCampaigns()
	got := FilterCampaigns(input, FilterCriteria{})
	require.Equal(t, input, got)
	require.Equal(t, input, FilterCampaigns(input, FilterCriteria{Status: StatusAll}))
	require.Nil(t, FilterCampaigns(nil, FilterCriteria{}))
	require.True(t, FilterCriteria{}.IsEmpty())
}

func TestFilterCampaignsReturnsNewSlice(t *testing.T) {
	input := sampleCampaigns()
	got := FilterCampaigns(input, FilterCriteria{})
	got[0].ID = 99
	require.Equal(t, uint64(1), input[0].ID)
}

func TestFilterCampaignsIDSubstring(t *testing.T) {
	input := []Campaign{
		campaign(1, "10", 2, StatusActive),
		campaign(12, "10", 2, StatusActive),
		campaign(21, "10", 2, StatusActive),
		campaign(3, "10", 2, StatusActive),
	}
	got := FilterCampaigns(input, FilterCriteria{IDSubstring: "1"})
	require.Equal(t, []uint64{1, 12, 21}, ids(got))
	require.Equal(t, []uint64{12}, ids(FilterCampaigns(input, FilterCriteria{IDSubstring: "12"})))
	require.Empty(t, FilterCampaigns(input, FilterCriteria{IDSubstring: "4"}))
}

func TestFilterCampaignsContributionRange(t *testing.T) {
	input := []Campaign{
		campaign(1, "50", 2, StatusActive),
		campaign(2, "100", 2, StatusActive),
		campaign(3, "150", 2, StatusActive),
	}
	got := FilterCampaigns(input, FilterCriteria{
		MinContribution: decimalPtr("75"),
		MaxContribution: decimalPtr("125"),
	})
	require.Equal(t, []uint64{2}, ids(got))

	inclusive := FilterCampaigns(input, FilterCriteria{
		MinContribution: decimalPtr("50"),
		MaxContribution: decimalPtr("100"),
	})
	require.Equal(t, []uint64{1, 2}, ids(inclusive))
}

func TestFilterCampaignsStatusAndParticipants(t *testing.T) {
	input := sampleCampaigns()
	require.Equal(t, []uint64{1, 21, 3}, ids(FilterCampaigns(input, FilterCriteria{Status: StatusActive})))
	require.Equal(t, []uint64{12, 30}, ids(FilterCampaigns(input, FilterCriteria{Status: StatusCompleted})))
	got := FilterCampaigns(input, FilterCriteria{MinParticipants: intPtr(3), MaxParticipants: intPtr(4)})
	require.Equal(t, []uint64{12, 3}, ids(got))
}

func isSubsequence(sub, seq []uint64) bool {
	i := 0
	for _, v := range seq {
		if i < len(sub) && sub[i] == v {
			i++
		}
	}
	return i == len(sub)
}

func TestFilterCampaignsMonotonicNarrowing(t *testing.T) {
	input := sampleCampaigns()
	bases := []FilterCriteria{
		{},
		{Status: StatusActive},
		{IDSubstring: "1", MinParticipants: intPtr(2)},
		{Status: StatusAll, MaxContribution: decimalPtr("150")},
	}
	// Each addition tightens one bound the base leaves open; ok is false when
	// the base already constrains that field.
	additions := []func(FilterCriteria) (FilterCriteria, bool){
		func(c FilterCriteria) (FilterCriteria, bool) {
			if c.IDSubstring != "" {
				return c, false
			}
			c.IDSubstring = "2"
			return c, true
		},
		func(c FilterCriteria) (FilterCriteria, bool) {
			if c.Status != "" && c.Status != StatusAll {
				return c, false
			}
			c.Status = StatusCompleted
			return c, true
		},
		func(c FilterCriteria) (FilterCriteria, bool) {
			if c.MinContribution != nil {
				return c, false
			}
			c.MinContribution = decimalPtr("80")
			return c, true
		},
		func(c FilterCriteria) (FilterCriteria, bool) {
			if c.MaxContribution != nil {
				return c, false
			}
			c.MaxContribution = decimalPtr("100")
			return c, true
		},
		func(c FilterCriteria) (FilterCriteria, bool) {
			if c.MinParticipants != nil {
				return c, false
			}
			c.MinParticipants = intPtr(3)
			return c, true
		},
		func(c FilterCriteria) (FilterCriteria, bool) {
			if c.MaxParticipants != nil {
				return c, false
			}
			c.MaxParticipants = intPtr(3)
			return c, true
		},
	}
	applied := 0
	for _, base := range bases {
		wide := ids(FilterCampaigns(input, base))
		for _, add := range additions {
			narrowed, ok := add(base)
			if !ok {
				continue
			}
			applied++
			narrow := ids(FilterCampaigns(input, narrowed))
			require.Truef(t, isSubsequence(narrow, wide), "%v is not a subsequence of %v", narrow, wide)
		}
	}
	require.Equal(t, 20, applied)
}

func TestParseCriteriaLeniency(t *testing.T) {
	input := sampleCampaigns()
	malformed := ParseCriteria(CriteriaInput{MinContribution: "abc"})
	require.Equal(t, ParseCriteria(CriteriaInput{}), malformed)
	require.Equal(t, FilterCampaigns(input, FilterCriteria{}), FilterCampaigns(input, malformed))

	loose := ParseCriteria(CriteriaInput{
		ID:              " 1 ",
		Status:          "Archived",
		MaxContribution: "12abc",
		MinParticipants: "2.5",
		MaxParticipants: " 4 ",
	})
	require.Equal(t, "1", loose.IDSubstring)
	require.Equal(t, StatusAll, loose.Status)
	require.Nil(t, loose.MaxContribution)
	require.Nil(t, loose.MinParticipants)
	require.NotNil(t, loose.MaxParticipants)
	require.Equal(t, 4, *loose.MaxParticipants)
}

func TestParseCriteriaValues(t *testing.T) {
	criteria := ParseCriteria(CriteriaInput{
		Status:          "ACTIVE",
		MinContribution: "75",
		MaxContribution: "125.50",
	})
	require.Equal(t, StatusActive, criteria.Status)
	require.True(t, criteria.MinContribution.Equal(decimal.NewFromInt(75)))
	require.True(t, criteria.MaxContribution.Equal(decimal.RequireFromString("125.5")))
}

func TestFilterLocks(t *testing.T) {
	locks := []Lock{
		{ID: 1, Amount: decimal.NewFromInt(500), DurationDays: 90, Status: StatusActive},
		{ID: 2, Amount: decimal.NewFromInt(200), DurationDays: 30, Status: StatusCompleted},
		{ID: 3, Amount: decimal.NewFromInt(50), DurationDays: 365, Status: StatusActive},
	}
	require.Equal(t, locks, FilterLocks(locks, LockCriteria{}))

	active := FilterLocks(locks, ParseLockCriteria(LockCriteriaInput{Status: "active", MinAmount: "100"}))
	require.Len(t, active, 1)
	require.Equal(t, uint64(1), active[0].ID)

	long := FilterLocks(locks, ParseLockCriteria(LockCriteriaInput{MinDuration: "90", MaxDuration: "x"}))
	require.Len(t, long, 2)
	require.Equal(t, uint64(1), long[0].ID)
	require.Equal(t, uint64(3), long[1].ID)
}

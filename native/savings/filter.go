package savings

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FilterCriteria narrows a campaign listing. Every field is optional: an
// empty IDSubstring, an empty or "all" Status and nil bounds place no
// constraint, so the zero value keeps every campaign.
type FilterCriteria struct {
	// IDSubstring must appear in the decimal text of the campaign id.
	IDSubstring     string
	Status          Status
	MinContribution *decimal.Decimal
	MaxContribution *decimal.Decimal
	MinParticipants *int
	MaxParticipants *int
}

// Match reports whether c satisfies every configured bound. Bounds are
// inclusive.
func (f FilterCriteria) Match(c Campaign) bool {
	if f.IDSubstring != "" && !strings.Contains(strconv.FormatUint(c.ID, 10), f.IDSubstring) {
		return false
	}
	if !statusMatches(f.Status, c.Status) {
		return false
	}
	if f.MinContribution != nil && c.ContributionAmount.LessThan(*f.MinContribution) {
		return false
	}
	if f.MaxContribution != nil && c.ContributionAmount.GreaterThan(*f.MaxContribution) {
		return false
	}
	count := c.ParticipantCount()
	if f.MinParticipants != nil && count < *f.MinParticipants {
		return false
	}
	if f.MaxParticipants != nil && count > *f.MaxParticipants {
		return false
	}
	return true
}

// IsEmpty reports whether the criteria constrain nothing.
func (f FilterCriteria) IsEmpty() bool {
	return f.IDSubstring == "" && (f.Status == "" || f.Status == StatusAll) &&
		f.MinContribution == nil && f.MaxContribution == nil &&
		f.MinParticipants == nil && f.MaxParticipants == nil
}

// FilterCampaigns returns the campaigns matching criteria in their original
// order. The input slice is left untouched and a new slice is returned.
func FilterCampaigns(campaigns []Campaign, criteria FilterCriteria) []Campaign {
	if campaigns == nil {
		return nil
	}
	filtered := make([]Campaign, 0, len(campaigns))
	for _, campaign := range campaigns {
		if criteria.Match(campaign) {
			filtered = append(filtered, campaign)
		}
	}
	return filtered
}

// LockCriteria narrows a lock listing with the same conventions as
// FilterCriteria.
type LockCriteria struct {
	Status      Status
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
	MinDuration *int
	MaxDuration *int
}

// Match reports whether l satisfies every configured bound.
func (f LockCriteria) Match(l Lock) bool {
	if !statusMatches(f.Status, l.Status) {
		return false
	}
	if f.MinAmount != nil && l.Amount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && l.Amount.GreaterThan(*f.MaxAmount) {
		return false
	}
	days := int(l.DurationDays)
	if f.MinDuration != nil && days < *f.MinDuration {
		return false
	}
	if f.MaxDuration != nil && days > *f.MaxDuration {
		return false
	}
	return true
}

// FilterLocks returns the locks matching criteria in their original order.
func FilterLocks(locks []Lock, criteria LockCriteria) []Lock {
	if locks == nil {
		return nil
	}
	filtered := make([]Lock, 0, len(locks))
	for _, lock := range locks {
		if criteria.Match(lock) {
			filtered = append(filtered, lock)
		}
	}
	return filtered
}

func statusMatches(want, have Status) bool {
	if want == "" || want == StatusAll {
		return true
	}
	return want == have
}

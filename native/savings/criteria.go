package savings

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CriteriaInput carries campaign filter values as typed into a form.
type CriteriaInput struct {
	ID              string
	Status          string
	MinContribution string
	MaxContribution string
	MinParticipants string
	MaxParticipants string
}

// ParseCriteria converts raw form input into FilterCriteria. Parsing is
// lenient: blank or unparsable numbers and unknown statuses leave the
// corresponding bound unset instead of failing.
func ParseCriteria(in CriteriaInput) FilterCriteria {
	return FilterCriteria{
		IDSubstring:     strings.TrimSpace(in.ID),
		Status:          parseStatusFilter(in.Status),
		MinContribution: parseDecimalBound(in.MinContribution),
		MaxContribution: parseDecimalBound(in.MaxContribution),
		MinParticipants: parseIntBound(in.MinParticipants),
		MaxParticipants: parseIntBound(in.MaxParticipants),
	}
}

// LockCriteriaInput carries lock filter values as typed into a form.
type LockCriteriaInput struct {
	Status      string
	MinAmount   string
	MaxAmount   string
	MinDuration string
	MaxDuration string
}

// ParseLockCriteria converts raw form input into LockCriteria using the
// same leniency as ParseCriteria.
func ParseLockCriteria(in LockCriteriaInput) LockCriteria {
	return LockCriteria{
		Status:      parseStatusFilter(in.Status),
		MinAmount:   parseDecimalBound(in.MinAmount),
		MaxAmount:   parseDecimalBound(in.MaxAmount),
		MinDuration: parseIntBound(in.MinDuration),
		MaxDuration: parseIntBound(in.MaxDuration),
	}
}

func parseStatusFilter(raw string) Status {
	status, ok := ParseStatus(raw)
	if !ok {
		return StatusAll
	}
	return status
}

func parseDecimalBound(raw string) *decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil
	}
	return &value
}

func parseIntBound(raw string) *int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil
	}
	return &value
}

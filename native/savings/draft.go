package savings

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	MinCampaignParticipants = 2
	MaxCampaignParticipants = 5

	// MaxLockDurationDays bounds lock periods to one hundred years, which
	// keeps the duration in seconds well inside a uint64.
	MaxLockDurationDays = 36500

	secondsPerDay = 24 * 60 * 60
)

// CampaignDraft holds validated arguments for creating a thrift campaign.
type CampaignDraft struct {
	Participants []common.Address
	Contribution *uint256.Int
}

// ValidateCampaignDraft checks the inputs of the campaign creation form.
// Entries that are not 0x-prefixed 20 byte hex addresses are skipped, as
// blank rows are, and the remainder must hold between two and five
// accounts. The contribution must be a positive token amount.
func ValidateCampaignDraft(participants []string, amount string) (CampaignDraft, error) {
	addresses := make([]common.Address, 0, len(participants))
	for _, raw := range participants {
		trimmed := strings.TrimSpace(raw)
		if !isPrefixedHexAddress(trimmed) {
			continue
		}
		addresses = append(addresses, common.HexToAddress(trimmed))
	}
	if len(addresses) < MinCampaignParticipants || len(addresses) > MaxCampaignParticipants {
		return CampaignDraft{}, invalidArgument("campaign needs %d-%d valid addresses, got %d",
			MinCampaignParticipants, MaxCampaignParticipants, len(addresses))
	}
	contribution, err := parsePositiveAmount(amount)
	if err != nil {
		return CampaignDraft{}, err
	}
	return CampaignDraft{Participants: addresses, Contribution: contribution}, nil
}

// LockDraft holds validated arguments for locking funds.
type LockDraft struct {
	Amount       *uint256.Int
	DurationDays int
}

// DurationSeconds returns the lock period in the unit expected by the
// piggy contract.
func (d LockDraft) DurationSeconds() uint64 {
	return uint64(d.DurationDays) * secondsPerDay
}

// ValidateLockDraft checks the inputs of the lock form. The amount must be
// at least MinLockAmount and the duration between one day and
// MaxLockDurationDays.
func ValidateLockDraft(amount string, durationDays int) (LockDraft, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return LockDraft{}, invalidArgument("amount %q is not a number", amount)
	}
	if value.LessThan(MinLockAmount) {
		return LockDraft{}, invalidArgument("amount %s is below the minimum of %s", value, MinLockAmount)
	}
	if durationDays <= 0 {
		return LockDraft{}, invalidArgument("duration %d days must be positive", durationDays)
	}
	if durationDays > MaxLockDurationDays {
		return LockDraft{}, invalidArgument("duration %d days exceeds the maximum of %d", durationDays, MaxLockDurationDays)
	}
	wei, err := ToWei(value)
	if err != nil {
		return LockDraft{}, err
	}
	return LockDraft{Amount: wei, DurationDays: durationDays}, nil
}

// PaymentKind selects the pay contract entrypoint.
type PaymentKind string

const (
	PaymentUtility  PaymentKind = "utility"
	PaymentDonation PaymentKind = "donation"
)

// PaymentDraft holds validated arguments for a bill payment or donation.
type PaymentDraft struct {
	Kind        PaymentKind
	Recipient   common.Address
	Amount      *uint256.Int
	Description string
}

// ValidatePaymentDraft checks the inputs of the payment form.
func ValidatePaymentDraft(kind, recipient, amount, description string) (PaymentDraft, error) {
	paymentKind := PaymentKind(strings.ToLower(strings.TrimSpace(kind)))
	if paymentKind != PaymentUtility && paymentKind != PaymentDonation {
		return PaymentDraft{}, invalidArgument("unknown payment kind %q", kind)
	}
	trimmed := strings.TrimSpace(recipient)
	if !isPrefixedHexAddress(trimmed) {
		return PaymentDraft{}, invalidArgument("recipient %q is not an address", recipient)
	}
	value, err := parsePositiveAmount(amount)
	if err != nil {
		return PaymentDraft{}, err
	}
	return PaymentDraft{
		Kind:        paymentKind,
		Recipient:   common.HexToAddress(trimmed),
		Amount:      value,
		Description: strings.TrimSpace(description),
	}, nil
}

func isPrefixedHexAddress(s string) bool {
	return len(s) == 2+2*common.AddressLength && strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

func parsePositiveAmount(raw string) (*uint256.Int, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, invalidArgument("amount %q is not a number", raw)
	}
	if !value.IsPositive() {
		return nil, invalidArgument("amount %s must be positive", value)
	}
	return ToWei(value)
}

package savings

import "github.com/shopspring/decimal"

const (
	// DaysPerYear is the day count convention used to pro-rate the annual
	// rate.
	DaysPerYear = 365
	// rewardPlaces is the precision of displayed reward amounts.
	rewardPlaces = 2
)

var (
	// DefaultAnnualRate is the simple annual reward rate applied to locked
	// principal (5%).
	DefaultAnnualRate = decimal.RequireFromString("0.05")
	// EarlyUnlockShare is the fraction of the potential reward kept when a
	// lock is withdrawn before maturity; the rest is burned.
	EarlyUnlockShare = decimal.RequireFromString("0.5")
	// MinLockAmount is the smallest principal accepted for a new lock.
	MinLockAmount = decimal.NewFromInt(10)
)

// LockDurations lists the commitment periods, in days, offered for new
// locks.
var LockDurations = []int{30, 90, 180, 365}

// Estimator projects simple-interest rewards for a fixed annual rate.
type Estimator struct {
	rate decimal.Decimal
}

// NewEstimator constructs an estimator for the supplied annual rate given
// as a fraction, e.g. 0.05 for 5%.
func NewEstimator(rate decimal.Decimal) (*Estimator, error) {
	if rate.IsNegative() {
		return nil, invalidArgument("annual rate %s is negative", rate)
	}
	return &Estimator{rate: rate}, nil
}

// Rate returns the annual rate fraction used by the estimator.
func (e *Estimator) Rate() decimal.Decimal {
	if e == nil {
		return DefaultAnnualRate
	}
	return e.rate
}

// Estimate returns principal * durationDays * rate / 365 rounded half-up to
// two decimal places. Negative inputs fail with ErrInvalidArgument.
func (e *Estimator) Estimate(principal decimal.Decimal, durationDays int64) (decimal.Decimal, error) {
	if principal.IsNegative() {
		return decimal.Zero, invalidArgument("principal %s is negative", principal)
	}
	if durationDays < 0 {
		return decimal.Zero, invalidArgument("duration %d days is negative", durationDays)
	}
	numerator := principal.Mul(decimal.NewFromInt(durationDays)).Mul(e.Rate())
	// DivRound rounds half away from zero, which is half-up for the
	// non-negative values reaching this point.
	return numerator.DivRound(decimal.NewFromInt(DaysPerYear), rewardPlaces), nil
}

var defaultEstimator = &Estimator{rate: DefaultAnnualRate}

// EstimateReward projects the reward for locking principal for durationDays
// at DefaultAnnualRate.
func EstimateReward(principal decimal.Decimal, durationDays int64) (decimal.Decimal, error) {
	return defaultEstimator.Estimate(principal, durationDays)
}

// EarlyUnlockReward returns the part of a potential reward that survives an
// early withdrawal.
func EarlyUnlockReward(potential decimal.Decimal) (decimal.Decimal, error) {
	if potential.IsNegative() {
		return decimal.Zero, invalidArgument("reward %s is negative", potential)
	}
	return potential.Mul(EarlyUnlockShare).Round(rewardPlaces), nil
}

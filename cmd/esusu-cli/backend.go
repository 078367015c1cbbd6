package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"esusu/native/savings"
	"esusu/services/savings/source"
)

// Rows mirror the savingsd JSON views so remote responses decode directly.
type campaignRow struct {
	ID                 uint64 `json:"id"`
	ParticipantCount   int    `json:"participant_count"`
	ContributionAmount string `json:"contribution_amount"`
	CurrentRound       uint32 `json:"current_round"`
	TotalRounds        uint32 `json:"total_rounds"`
	RoundProgress      string `json:"round_progress"`
	Status             string `json:"status"`
}

type lockRow struct {
	ID                uint64 `json:"id"`
	Owner             string `json:"owner,omitempty"`
	Amount            string `json:"amount"`
	DurationDays      uint32 `json:"duration_days"`
	EndDate           string `json:"end_date"`
	Reward            string `json:"reward"`
	PotentialReward   string `json:"potential_reward"`
	EarlyUnlockReward string `json:"early_unlock_reward"`
	Progress          string `json:"progress"`
	Status            string `json:"status"`
}

type estimateRow struct {
	Principal         string `json:"principal"`
	DurationDays      int64  `json:"duration_days"`
	AnnualRate        string `json:"annual_rate"`
	Reward            string `json:"reward"`
	EarlyUnlockReward string `json:"early_unlock_reward"`
}

type summaryRow struct {
	Address              string `json:"address,omitempty"`
	ActiveGroups         int    `json:"active_groups"`
	CompletedGroups      int    `json:"completed_groups"`
	ContributionPerRound string `json:"contribution_per_round"`
	ActiveLocks          int    `json:"active_locks"`
	LockedSavings        string `json:"locked_savings"`
	AccruedRewards       string `json:"accrued_rewards"`
}

type backend interface {
	Estimate(ctx context.Context, principal, days, rate string) (estimateRow, error)
	Campaigns(ctx context.Context, in savings.CriteriaInput) ([]campaignRow, error)
	Locks(ctx context.Context, in savings.LockCriteriaInput) ([]lockRow, error)
	Summary(ctx context.Context, address string) (summaryRow, error)
}

var cliNow = time.Now

// localBackend evaluates commands in-process against a fixture file.
type localBackend struct {
	fixture *source.Fixture
}

func parseEstimateInput(principal, days, rate string) (decimal.Decimal, int64, *savings.Estimator, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(principal))
	if err != nil {
		return decimal.Zero, 0, nil, fmt.Errorf("%w: principal %q is not a number", savings.ErrInvalidArgument, principal)
	}
	duration, err := strconv.ParseInt(strings.TrimSpace(days), 10, 64)
	if err != nil {
		return decimal.Zero, 0, nil, fmt.Errorf("%w: days %q is not an integer", savings.ErrInvalidArgument, days)
	}
	annual := savings.DefaultAnnualRate
	if strings.TrimSpace(rate) != "" {
		annual, err = decimal.NewFromString(strings.TrimSpace(rate))
		if err != nil {
			return decimal.Zero, 0, nil, fmt.Errorf("%w: rate %q is not a number", savings.ErrInvalidArgument, rate)
		}
	}
	estimator, err := savings.NewEstimator(annual)
	if err != nil {
		return decimal.Zero, 0, nil, err
	}
	return amount, duration, estimator, nil
}

func (b localBackend) Estimate(_ context.Context, principal, days, rate string) (estimateRow, error) {
	amount, duration, estimator, err := parseEstimateInput(principal, days, rate)
	if err != nil {
		return estimateRow{}, err
	}
	reward, err := estimator.Estimate(amount, duration)
	if err != nil {
		return estimateRow{}, err
	}
	early, err := savings.EarlyUnlockReward(reward)
	if err != nil {
		return estimateRow{}, err
	}
	return estimateRow{
		Principal:         amount.String(),
		DurationDays:      duration,
		AnnualRate:        estimator.Rate().String(),
		Reward:            reward.StringFixed(2),
		EarlyUnlockReward: early.StringFixed(2),
	}, nil
}

func (b localBackend) requireFixture() error {
	if b.fixture == nil {
		return errors.New("no data source: pass --fixture or --api")
	}
	return nil
}

func (b localBackend) Campaigns(ctx context.Context, in savings.CriteriaInput) ([]campaignRow, error) {
	if err := b.requireFixture(); err != nil {
		return nil, err
	}
	campaigns, err := b.fixture.Campaigns(ctx)
	if err != nil {
		return nil, err
	}
	matches := savings.FilterCampaigns(campaigns, savings.ParseCriteria(in))
	rows := make([]campaignRow, 0, len(matches))
	for _, c := range matches {
		rows = append(rows, campaignRow{
			ID:                 c.ID,
			ParticipantCount:   c.ParticipantCount(),
			ContributionAmount: c.ContributionAmount.String(),
			CurrentRound:       c.CurrentRound,
			TotalRounds:        c.TotalRounds,
			RoundProgress:      c.RoundProgress().StringFixed(2),
			Status:             string(c.Status),
		})
	}
	return rows, nil
}

func (b localBackend) Locks(ctx context.Context, in savings.LockCriteriaInput) ([]lockRow, error) {
	if err := b.requireFixture(); err != nil {
		return nil, err
	}
	locks, err := b.fixture.Locks(ctx)
	if err != nil {
		return nil, err
	}
	now := cliNow()
	matches := savings.FilterLocks(locks, savings.ParseLockCriteria(in))
	rows := make([]lockRow, 0, len(matches))
	for _, l := range matches {
		potential, err := savings.EstimateReward(l.Amount, int64(l.DurationDays))
		if err != nil {
			return nil, fmt.Errorf("lock %d: %w", l.ID, err)
		}
		early, err := savings.EarlyUnlockReward(potential)
		if err != nil {
			return nil, fmt.Errorf("lock %d: %w", l.ID, err)
		}
		row := lockRow{
			ID:                l.ID,
			Amount:            l.Amount.String(),
			DurationDays:      l.DurationDays,
			EndDate:           l.EndDate.UTC().Format(time.RFC3339),
			Reward:            l.Reward.StringFixed(2),
			PotentialReward:   potential.StringFixed(2),
			EarlyUnlockReward: early.StringFixed(2),
			Progress:          l.Progress(now).StringFixed(2),
			Status:            string(l.Status),
		}
		if (l.Owner != common.Address{}) {
			row.Owner = l.Owner.Hex()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (b localBackend) Summary(ctx context.Context, address string) (summaryRow, error) {
	if err := b.requireFixture(); err != nil {
		return summaryRow{}, err
	}
	member, err := parseMember(address)
	if err != nil {
		return summaryRow{}, err
	}
	campaigns, err := b.fixture.Campaigns(ctx)
	if err != nil {
		return summaryRow{}, err
	}
	locks, err := b.fixture.Locks(ctx)
	if err != nil {
		return summaryRow{}, err
	}
	summary := savings.Summarize(campaigns, locks, member)
	row := summaryRow{
		ActiveGroups:         summary.ActiveGroups,
		CompletedGroups:      summary.CompletedGroups,
		ContributionPerRound: summary.ContributionPerRound.String(),
		ActiveLocks:          summary.ActiveLocks,
		LockedSavings:        summary.LockedSavings.String(),
		AccruedRewards:       summary.AccruedRewards.StringFixed(2),
	}
	if (member != common.Address{}) {
		row.Address = member.Hex()
	}
	return row, nil
}

func parseMember(raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("%w: address %q is not a hex address", savings.ErrInvalidArgument, raw)
	}
	return common.HexToAddress(trimmed), nil
}

// remoteBackend queries a running savingsd.
type remoteBackend struct {
	base   *url.URL
	client *http.Client
}

func newRemoteBackend(raw string) (remoteBackend, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(raw), "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return remoteBackend{}, fmt.Errorf("invalid --api url %q", raw)
	}
	return remoteBackend{base: base, client: &http.Client{Timeout: 10 * time.Second}}, nil
}

func (b remoteBackend) get(ctx context.Context, path string, query url.Values, dst any) error {
	target := *b.base
	target.Path = b.base.Path + path
	target.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr != nil || apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("savingsd %s: %s (%d)", path, apiErr.Error, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func setIf(values url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		values.Set(key, value)
	}
}

func (b remoteBackend) Estimate(ctx context.Context, principal, days, rate string) (estimateRow, error) {
	if strings.TrimSpace(rate) != "" {
		return estimateRow{}, errors.New("--rate is only supported without --api")
	}
	query := url.Values{}
	query.Set("principal", strings.TrimSpace(principal))
	query.Set("duration_days", strings.TrimSpace(days))
	var row estimateRow
	err := b.get(ctx, "/v1/rewards/estimate", query, &row)
	return row, err
}

func (b remoteBackend) Campaigns(ctx context.Context, in savings.CriteriaInput) ([]campaignRow, error) {
	query := url.Values{}
	setIf(query, "id", in.ID)
	setIf(query, "status", in.Status)
	setIf(query, "min_contribution", in.MinContribution)
	setIf(query, "max_contribution", in.MaxContribution)
	setIf(query, "min_participants", in.MinParticipants)
	setIf(query, "max_participants", in.MaxParticipants)
	var payload struct {
		Campaigns []campaignRow `json:"campaigns"`
	}
	if err := b.get(ctx, "/v1/campaigns", query, &payload); err != nil {
		return nil, err
	}
	return payload.Campaigns, nil
}

func (b remoteBackend) Locks(ctx context.Context, in savings.LockCriteriaInput) ([]lockRow, error) {
	query := url.Values{}
	setIf(query, "status", in.Status)
	setIf(query, "min_amount", in.MinAmount)
	setIf(query, "max_amount", in.MaxAmount)
	setIf(query, "min_duration", in.MinDuration)
	setIf(query, "max_duration", in.MaxDuration)
	var payload struct {
		Locks []lockRow `json:"locks"`
	}
	if err := b.get(ctx, "/v1/locks", query, &payload); err != nil {
		return nil, err
	}
	return payload.Locks, nil
}

func (b remoteBackend) Summary(ctx context.Context, address string) (summaryRow, error) {
	query := url.Values{}
	setIf(query, "address", address)
	var row summaryRow
	err := b.get(ctx, "/v1/summary", query, &row)
	return row, err
}

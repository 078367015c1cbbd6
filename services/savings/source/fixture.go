package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"esusu/native/savings"
)

// fixtureFile is the on-disk layout of demo data. Amounts are strings to
// keep decimal precision.
type fixtureFile struct {
	Campaigns []fixtureCampaign `yaml:"campaigns" toml:"campaigns"`
	Locks     []fixtureLock     `yaml:"locks" toml:"locks"`
}

type fixtureCampaign struct {
	ID                 uint64   `yaml:"id" toml:"id"`
	Participants       []string `yaml:"participants" toml:"participants"`
	ContributionAmount string   `yaml:"contribution_amount" toml:"contribution_amount"`
	CurrentRound       uint32   `yaml:"current_round" toml:"current_round"`
	TotalRounds        uint32   `yaml:"total_rounds" toml:"total_rounds"`
	Status             string   `yaml:"status" toml:"status"`
}

type fixtureLock struct {
	ID           uint64 `yaml:"id" toml:"id"`
	Owner        string `yaml:"owner" toml:"owner"`
	Amount       string `yaml:"amount" toml:"amount"`
	DurationDays uint32 `yaml:"duration_days" toml:"duration_days"`
	StartDate    string `yaml:"start_date" toml:"start_date"`
	EndDate      string `yaml:"end_date" toml:"end_date"`
	Reward       string `yaml:"reward" toml:"reward"`
	Status       string `yaml:"status" toml:"status"`
}

// Fixture serves campaigns and locks from a YAML or TOML file. The file is
// re-read on every call so edits show up on the next refresh.
type Fixture struct {
	path string
}

// NewFixture validates the file at path and returns a source backed by it.
// The format is chosen by extension: .yaml/.yml or .toml.
func NewFixture(path string) (*Fixture, error) {
	f := &Fixture{path: strings.TrimSpace(path)}
	if f.path == "" {
		return nil, fmt.Errorf("fixture path required")
	}
	if _, _, err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

// Campaigns returns the campaigns listed in the fixture.
func (f *Fixture) Campaigns(ctx context.Context) ([]savings.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	campaigns, _, err := f.load()
	return campaigns, err
}

// Locks returns the locks listed in the fixture.
func (f *Fixture) Locks(ctx context.Context) ([]savings.Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, locks, err := f.load()
	return locks, err
}

func (f *Fixture) load() ([]savings.Campaign, []savings.Lock, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, nil, fmt.Errorf("read fixture: %w", err)
	}
	var file fixtureFile
	switch ext := strings.ToLower(filepath.Ext(f.path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &file)
	case ".toml":
		err = toml.Unmarshal(raw, &file)
	default:
		return nil, nil, fmt.Errorf("unsupported fixture format %q", ext)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("decode fixture %s: %w", f.path, err)
	}

	campaigns := make([]savings.Campaign, 0, len(file.Campaigns))
	for i, entry := range file.Campaigns {
		campaign, err := entry.campaign()
		if err != nil {
			return nil, nil, fmt.Errorf("campaign %d: %w", i, err)
		}
		campaigns = append(campaigns, campaign)
	}
	locks := make([]savings.Lock, 0, len(file.Locks))
	for i, entry := range file.Locks {
		lock, err := entry.lock()
		if err != nil {
			return nil, nil, fmt.Errorf("lock %d: %w", i, err)
		}
		locks = append(locks, lock)
	}
	return campaigns, locks, nil
}

func (c fixtureCampaign) campaign() (savings.Campaign, error) {
	if c.ID == 0 {
		return savings.Campaign{}, fmt.Errorf("id must be positive")
	}
	participants := make([]common.Address, 0, len(c.Participants))
	for _, raw := range c.Participants {
		if !common.IsHexAddress(raw) {
			return savings.Campaign{}, fmt.Errorf("participant %q is not an address", raw)
		}
		participants = append(participants, common.HexToAddress(raw))
	}
	amount, err := parseAmount(c.ContributionAmount)
	if err != nil {
		return savings.Campaign{}, fmt.Errorf("contribution_amount: %w", err)
	}
	status, err := parseRecordStatus(c.Status)
	if err != nil {
		return savings.Campaign{}, err
	}
	if c.TotalRounds == 0 {
		return savings.Campaign{}, fmt.Errorf("total_rounds must be positive")
	}
	if c.CurrentRound > c.TotalRounds {
		return savings.Campaign{}, fmt.Errorf("current_round %d exceeds total_rounds %d", c.CurrentRound, c.TotalRounds)
	}
	return savings.Campaign{
		ID:                 c.ID,
		Participants:       participants,
		ContributionAmount: amount,
		CurrentRound:       c.CurrentRound,
		TotalRounds:        c.TotalRounds,
		Status:             status,
	}, nil
}

func (l fixtureLock) lock() (savings.Lock, error) {
	var owner common.Address
	if strings.TrimSpace(l.Owner) != "" {
		if !common.IsHexAddress(l.Owner) {
			return savings.Lock{}, fmt.Errorf("owner %q is not an address", l.Owner)
		}
		owner = common.HexToAddress(l.Owner)
	}
	amount, err := parseAmount(l.Amount)
	if err != nil {
		return savings.Lock{}, fmt.Errorf("amount: %w", err)
	}
	reward, err := parseAmount(l.Reward)
	if err != nil {
		return savings.Lock{}, fmt.Errorf("reward: %w", err)
	}
	if l.DurationDays == 0 {
		return savings.Lock{}, fmt.Errorf("duration_days must be positive")
	}
	start, err := parseDate(l.StartDate)
	if err != nil {
		return savings.Lock{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := parseDate(l.EndDate)
	if err != nil {
		return savings.Lock{}, fmt.Errorf("end_date: %w", err)
	}
	if end.Before(start) {
		return savings.Lock{}, fmt.Errorf("end_date precedes start_date")
	}
	status, err := parseRecordStatus(l.Status)
	if err != nil {
		return savings.Lock{}, err
	}
	return savings.Lock{
		ID:           l.ID,
		Owner:        owner,
		Amount:       amount,
		DurationDays: l.DurationDays,
		StartDate:    start,
		EndDate:      end,
		Reward:       reward,
		Status:       status,
	}, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q is negative", raw)
	}
	return value, nil
}

func parseRecordStatus(raw string) (savings.Status, error) {
	status, ok := savings.ParseStatus(raw)
	if !ok || status == savings.StatusAll {
		return "", fmt.Errorf("status %q must be active or completed", raw)
	}
	return status, nil
}

func parseDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if ts, err := time.Parse(time.DateOnly, trimmed); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return ts.UTC(), nil
}

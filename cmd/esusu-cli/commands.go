package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"esusu/native/savings"
	"esusu/services/savings/source"
)

const commandTimeout = 30 * time.Second

// dataFlags are accepted by every command.
type dataFlags struct {
	api     string
	fixture string
	format  string
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *dataFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	data := &dataFlags{}
	fs.StringVar(&data.api, "api", os.Getenv("ESUSU_API"), "savingsd base URL")
	fs.StringVar(&data.fixture, "fixture", os.Getenv("ESUSU_FIXTURE"), "YAML or TOML fixture file")
	fs.StringVar(&data.format, "format", "auto", "output format: auto, table or json")
	return fs, data
}

func (d *dataFlags) backend() (backend, error) {
	if api := strings.TrimSpace(d.api); api != "" {
		return newRemoteBackend(api)
	}
	if path := strings.TrimSpace(d.fixture); path != "" {
		fixture, err := source.NewFixture(path)
		if err != nil {
			return nil, err
		}
		return localBackend{fixture: fixture}, nil
	}
	return localBackend{}, nil
}

// fail reports err and returns exit code 2 for rejected input, 1 otherwise.
func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	if errors.Is(err, savings.ErrInvalidArgument) {
		return 2
	}
	return 1
}

func runEstimate(args []string, stdout, stderr io.Writer) int {
	fs, data := newFlagSet("estimate", stderr)
	var principal, days, rate string
	fs.StringVar(&principal, "principal", "", "amount to lock")
	fs.StringVar(&days, "days", "", "lock duration in days")
	fs.StringVar(&rate, "rate", "", "annual rate as a fraction (local only)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if principal == "" || days == "" {
		fmt.Fprintln(stderr, "Error: --principal and --days are required")
		return 1
	}
	b, err := data.backend()
	if err != nil {
		return fail(stderr, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	row, err := b.Estimate(ctx, principal, days, rate)
	if err != nil {
		return fail(stderr, err)
	}
	return render(stdout, stderr, data.format, row, func(t tableWriter) {
		t.header("PRINCIPAL", "DAYS", "RATE", "REWARD", "EARLY UNLOCK")
		t.row(row.Principal, strconv.FormatInt(row.DurationDays, 10), row.AnnualRate, row.Reward, row.EarlyUnlockReward)
	})
}

func runCampaigns(args []string, stdout, stderr io.Writer) int {
	fs, data := newFlagSet("campaigns", stderr)
	var in savings.CriteriaInput
	fs.StringVar(&in.ID, "id", "", "substring of the campaign id")
	fs.StringVar(&in.Status, "status", "", "active, completed or all")
	fs.StringVar(&in.MinContribution, "min-contribution", "", "minimum contribution per round")
	fs.StringVar(&in.MaxContribution, "max-contribution", "", "maximum contribution per round")
	fs.StringVar(&in.MinParticipants, "min-participants", "", "minimum participant count")
	fs.StringVar(&in.MaxParticipants, "max-participants", "", "maximum participant count")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	b, err := data.backend()
	if err != nil {
		return fail(stderr, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	rows, err := b.Campaigns(ctx, in)
	if err != nil {
		return fail(stderr, err)
	}
	return render(stdout, stderr, data.format, rows, func(t tableWriter) {
		t.header("ID", "MEMBERS", "CONTRIBUTION", "ROUND", "PROGRESS", "STATUS")
		for _, r := range rows {
			t.row(
				strconv.FormatUint(r.ID, 10),
				strconv.Itoa(r.ParticipantCount),
				r.ContributionAmount,
				fmt.Sprintf("%d/%d", r.CurrentRound, r.TotalRounds),
				r.RoundProgress+"%",
				r.Status,
			)
		}
	})
}

func runLocks(args []string, stdout, stderr io.Writer) int {
	fs, data := newFlagSet("locks", stderr)
	var in savings.LockCriteriaInput
	fs.StringVar(&in.Status, "status", "", "active, completed or all")
	fs.StringVar(&in.MinAmount, "min-amount", "", "minimum locked amount")
	fs.StringVar(&in.MaxAmount, "max-amount", "", "maximum locked amount")
	fs.StringVar(&in.MinDuration, "min-duration", "", "minimum lock duration in days")
	fs.StringVar(&in.MaxDuration, "max-duration", "", "maximum lock duration in days")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	b, err := data.backend()
	if err != nil {
		return fail(stderr, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	rows, err := b.Locks(ctx, in)
	if err != nil {
		return fail(stderr, err)
	}
	return render(stdout, stderr, data.format, rows, func(t tableWriter) {
		t.header("ID", "AMOUNT", "DAYS", "PROGRESS", "REWARD", "EARLY UNLOCK", "STATUS")
		for _, r := range rows {
			t.row(
				strconv.FormatUint(r.ID, 10),
				r.Amount,
				strconv.FormatUint(uint64(r.DurationDays), 10),
				r.Progress+"%",
				r.PotentialReward,
				r.EarlyUnlockReward,
				r.Status,
			)
		}
	})
}

func runSummary(args []string, stdout, stderr io.Writer) int {
	fs, data := newFlagSet("summary", stderr)
	var address string
	fs.StringVar(&address, "address", "", "member address; empty summarises every record")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	b, err := data.backend()
	if err != nil {
		return fail(stderr, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	row, err := b.Summary(ctx, address)
	if err != nil {
		return fail(stderr, err)
	}
	return render(stdout, stderr, data.format, row, func(t tableWriter) {
		t.header("ACTIVE GROUPS", "COMPLETED", "PER ROUND", "ACTIVE LOCKS", "LOCKED", "REWARDS")
		t.row(
			strconv.Itoa(row.ActiveGroups),
			strconv.Itoa(row.CompletedGroups),
			row.ContributionPerRound,
			strconv.Itoa(row.ActiveLocks),
			row.LockedSavings,
			row.AccruedRewards,
		)
	})
}

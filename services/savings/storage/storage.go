package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"esusu/native/savings"
	"esusu/services/savings/snapshot"
)

// Config selects the database backing the snapshot store.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver string
	DSN    string
}

// Store persists snapshots with gorm.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and applies the schema.
func Open(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("storage dsn required")
	}
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save persists snap unless the most recent stored snapshot carries the
// same digest.
func (s *Store) Save(ctx context.Context, snap *snapshot.Snapshot) (bool, error) {
	if snap == nil {
		return false, fmt.Errorf("snapshot required")
	}
	written := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest SnapshotRecord
		err := tx.Select("digest").Order("taken_at DESC, created_at DESC").Take(&latest).Error
		switch {
		case err == nil && latest.Digest == snap.Digest:
			return nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("query latest digest: %w", err)
		}
		record := toRecord(snap)
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("insert snapshot: %w", err)
		}
		written = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return written, nil
}

// Latest loads the most recent snapshot. It returns snapshot.ErrNotFound
// when nothing has been stored.
func (s *Store) Latest(ctx context.Context) (*snapshot.Snapshot, error) {
	var record SnapshotRecord
	err := s.db.WithContext(ctx).
		Preload("Campaigns", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Locks", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("taken_at DESC, created_at DESC").
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, snapshot.ErrNotFound
		}
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return fromRecord(record)
}

// Prune deletes all but the keep most recent snapshots.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&SnapshotRecord{}).
		Order("taken_at DESC, created_at DESC").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("list snapshots: %w", err)
	}
	if len(ids) <= keep {
		return 0, nil
	}
	stale := ids[keep:]
	var removed int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_id IN ?", stale).Delete(&CampaignRecord{}).Error; err != nil {
			return fmt.Errorf("delete campaigns: %w", err)
		}
		if err := tx.Where("snapshot_id IN ?", stale).Delete(&LockRecord{}).Error; err != nil {
			return fmt.Errorf("delete locks: %w", err)
		}
		result := tx.Where("id IN ?", stale).Delete(&SnapshotRecord{})
		if result.Error != nil {
			return fmt.Errorf("delete snapshots: %w", result.Error)
		}
		removed = result.RowsAffected
		return nil
	})
	return removed, err
}

func toRecord(snap *snapshot.Snapshot) SnapshotRecord {
	id := uuid.New()
	record := SnapshotRecord{
		ID:        id,
		Digest:    snap.Digest,
		TakenAt:   snap.TakenAt.UTC(),
		Campaigns: make([]CampaignRecord, 0, len(snap.Campaigns)),
		Locks:     make([]LockRecord, 0, len(snap.Locks)),
	}
	for i, c := range snap.Campaigns {
		members := make([]string, 0, len(c.Participants))
		for _, participant := range c.Participants {
			members = append(members, participant.Hex())
		}
		record.Campaigns = append(record.Campaigns, CampaignRecord{
			SnapshotID:         id,
			Position:           i,
			CampaignID:         c.ID,
			Participants:       strings.Join(members, ","),
			ContributionAmount: c.ContributionAmount.String(),
			CurrentRound:       c.CurrentRound,
			TotalRounds:        c.TotalRounds,
			Status:             string(c.Status),
		})
	}
	for i, l := range snap.Locks {
		owner := ""
		if (l.Owner != common.Address{}) {
			owner = l.Owner.Hex()
		}
		record.Locks = append(record.Locks, LockRecord{
			SnapshotID:   id,
			Position:     i,
			LockID:       l.ID,
			Owner:        owner,
			Amount:       l.Amount.String(),
			DurationDays: l.DurationDays,
			StartDate:    l.StartDate.UTC(),
			EndDate:      l.EndDate.UTC(),
			Reward:       l.Reward.String(),
			Status:       string(l.Status),
		})
	}
	return record
}

func fromRecord(record SnapshotRecord) (*snapshot.Snapshot, error) {
	campaigns := make([]savings.Campaign, 0, len(record.Campaigns))
	for _, row := range record.Campaigns {
		amount, err := decimal.NewFromString(row.ContributionAmount)
		if err != nil {
			return nil, fmt.Errorf("campaign %d amount: %w", row.CampaignID, err)
		}
		var members []common.Address
		if row.Participants != "" {
			for _, hex := range strings.Split(row.Participants, ",") {
				members = append(members, common.HexToAddress(hex))
			}
		}
		campaigns = append(campaigns, savings.Campaign{
			ID:                 row.CampaignID,
			Participants:       members,
			ContributionAmount: amount,
			CurrentRound:       row.CurrentRound,
			TotalRounds:        row.TotalRounds,
			Status:             savings.Status(row.Status),
		})
	}
	locks := make([]savings.Lock, 0, len(record.Locks))
	for _, row := range record.Locks {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("lock %d amount: %w", row.LockID, err)
		}
		reward, err := decimal.NewFromString(row.Reward)
		if err != nil {
			return nil, fmt.Errorf("lock %d reward: %w", row.LockID, err)
		}
		var owner common.Address
		if row.Owner != "" {
			owner = common.HexToAddress(row.Owner)
		}
		locks = append(locks, savings.Lock{
			ID:           row.LockID,
			Owner:        owner,
			Amount:       amount,
			DurationDays: row.DurationDays,
			StartDate:    row.StartDate.UTC(),
			EndDate:      row.EndDate.UTC(),
			Reward:       reward,
			Status:       savings.Status(row.Status),
		})
	}
	snap := snapshot.New(campaigns, locks, record.TakenAt)
	if snap.Digest != record.Digest {
		return nil, fmt.Errorf("snapshot %s digest mismatch", record.ID)
	}
	return snap, nil
}

var _ snapshot.Store = (*Store)(nil)

// RunRetention prunes the store to keep snapshots on every tick until ctx
// is done. Prune failures are passed to onErr.
func (s *Store) RunRetention(ctx context.Context, keep int, every time.Duration, onErr func(error)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Prune(ctx, keep); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}

package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SnapshotRecord is the header row of a persisted snapshot.
type SnapshotRecord struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Digest    string           `gorm:"size:64;index"`
	TakenAt   time.Time        `gorm:"index"`
	Campaigns []CampaignRecord `gorm:"foreignKey:SnapshotID"`
	Locks     []LockRecord     `gorm:"foreignKey:SnapshotID"`
	CreatedAt time.Time
}

// CampaignRecord stores one campaign of a snapshot. Position preserves the
// source order.
type CampaignRecord struct {
	ID                 uint      `gorm:"primaryKey"`
	SnapshotID         uuid.UUID `gorm:"type:uuid;index"`
	Position           int       `gorm:"not null"`
	CampaignID         uint64    `gorm:"not null"`
	Participants       string    `gorm:"not null"`
	ContributionAmount string    `gorm:"not null"`
	CurrentRound       uint32
	TotalRounds        uint32
	Status             string `gorm:"size:16"`
}

// LockRecord stores one lock of a snapshot.
type LockRecord struct {
	ID           uint      `gorm:"primaryKey"`
	SnapshotID   uuid.UUID `gorm:"type:uuid;index"`
	Position     int       `gorm:"not null"`
	LockID       uint64
	Owner        string `gorm:"size:42"`
	Amount       string `gorm:"not null"`
	DurationDays uint32
	StartDate    time.Time
	EndDate      time.Time
	Reward       string
	Status       string `gorm:"size:16"`
}

// AutoMigrate applies the storage schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&SnapshotRecord{}, &CampaignRecord{}, &LockRecord{})
}

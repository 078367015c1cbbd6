package snapshot

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"lukechampine.com/blake3"

	"esusu/native/savings"
)

// Snapshot is an immutable view of the campaigns and locks read from a
// source at one point in time.
type Snapshot struct {
	Campaigns []savings.Campaign
	Locks     []savings.Lock
	TakenAt   time.Time
	// Digest identifies the content of the snapshot independent of
	// TakenAt.
	Digest string
}

// New builds a snapshot and computes its digest.
func New(campaigns []savings.Campaign, locks []savings.Lock, takenAt time.Time) *Snapshot {
	if campaigns == nil {
		campaigns = []savings.Campaign{}
	}
	if locks == nil {
		locks = []savings.Lock{}
	}
	return &Snapshot{
		Campaigns: campaigns,
		Locks:     locks,
		TakenAt:   takenAt.UTC(),
		Digest:    Digest(campaigns, locks),
	}
}

// Campaign returns the campaign with the given id.
func (s *Snapshot) Campaign(id uint64) (savings.Campaign, bool) {
	if s == nil {
		return savings.Campaign{}, false
	}
	for _, campaign := range s.Campaigns {
		if campaign.ID == id {
			return campaign, true
		}
	}
	return savings.Campaign{}, false
}

// Digest hashes a canonical encoding of campaigns and locks with BLAKE3.
// Decimal amounts are normalised, so 12.50 and 12.5 hash alike.
func Digest(campaigns []savings.Campaign, locks []savings.Lock) string {
	h := blake3.New(32, nil)
	for _, c := range campaigns {
		writeField(h, "c|%d|%s|%d|%d|%s|", c.ID, c.ContributionAmount.String(), c.CurrentRound, c.TotalRounds, c.Status)
		for _, participant := range c.Participants {
			_, _ = h.Write(participant.Bytes())
		}
		_, _ = h.Write([]byte{'\n'})
	}
	for _, l := range locks {
		writeField(h, "l|%d|%x|%s|%d|%d|%d|%s|%s\n", l.ID, l.Owner.Bytes(), l.Amount.String(), l.DurationDays,
			l.StartDate.Unix(), l.EndDate.Unix(), l.Reward.String(), l.Status)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

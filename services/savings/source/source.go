package source

import (
	"context"

	"esusu/native/savings"
)

// Source supplies snapshots of campaigns and locks. Implementations return
// freshly built slices the caller may keep.
type Source interface {
	Campaigns(ctx context.Context) ([]savings.Campaign, error)
	Locks(ctx context.Context) ([]savings.Lock, error)
}

// CampaignReader loads campaigns from the thrift contract.
type CampaignReader interface {
	Campaigns(ctx context.Context) ([]savings.Campaign, error)
}

// Chain reads campaigns on chain. The piggy contract offers no lock
// enumeration, so locks come from an optional secondary source.
type Chain struct {
	reader CampaignReader
	locks  Source
}

// NewChain wires a chain-backed source. locks may be nil.
func NewChain(reader CampaignReader, locks Source) *Chain {
	return &Chain{reader: reader, locks: locks}
}

// Campaigns reads the current campaign set from the contract.
func (c *Chain) Campaigns(ctx context.Context) ([]savings.Campaign, error) {
	return c.reader.Campaigns(ctx)
}

// Locks returns the locks of the secondary source, or none.
func (c *Chain) Locks(ctx context.Context) ([]savings.Lock, error) {
	if c.locks == nil {
		return []savings.Lock{}, nil
	}
	return c.locks.Locks(ctx)
}

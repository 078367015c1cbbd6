package chain

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"esusu/native/savings"
)

var thriftAddress = common.HexToAddress("0x51F3c2Eb22BD3aaBcF5159dCDc8a1C3C7DDACaB7")

type fakeCampaign struct {
	participants []common.Address
	amount       *big.Int
	round        int64
	active       bool
}

type fakeCaller struct {
	t         *testing.T
	campaigns map[uint64]fakeCampaign
	count     int64
	failIDs   map[uint64]bool
	calls     int
}

func (f *fakeCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	f.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg.To == nil || *msg.To != thriftAddress {
		f.t.Fatalf("unexpected call target %v", msg.To)
	}
	countMethod := thriftABI.Methods["campaignCount"]
	getMethod := thriftABI.Methods["getCampaign"]
	switch {
	case bytes.Equal(msg.Data[:4], countMethod.ID):
		return countMethod.Outputs.Pack(big.NewInt(f.count))
	case bytes.Equal(msg.Data[:4], getMethod.ID):
		args, err := getMethod.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			f.t.Fatalf("unpack getCampaign args: %v", err)
		}
		id := args[0].(*big.Int).Uint64()
		if f.failIDs[id] {
			return nil, errors.New("execution reverted")
		}
		c, ok := f.campaigns[id]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return getMethod.Outputs.Pack(c.participants, c.amount, big.NewInt(c.round), c.active)
	default:
		f.t.Fatalf("unexpected selector %x", msg.Data[:4])
		return nil, nil
	}
}

func weiFromTokens(tokens int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(tokens), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func newFakeCaller(t *testing.T) *fakeCaller {
	a := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	b := common.HexToAddress("0x8ba1f109551bD432803012645ac136ddd64DBA72")
	return &fakeCaller{
		t:     t,
		count: 3,
		campaigns: map[uint64]fakeCampaign{
			1: {participants: []common.Address{a, b}, amount: weiFromTokens(50), round: 2, active: true},
			2: {participants: []common.Address{b, a}, amount: weiFromTokens(100), round: 5, active: false},
			3: {participants: []common.Address{a, b, a}, amount: weiFromTokens(25), round: 0, active: true},
		},
		failIDs: map[uint64]bool{},
	}
}

func TestThriftReaderCampaigns(t *testing.T) {
	caller := newFakeCaller(t)
	reader, err := NewThriftReader(caller, ThriftConfig{Address: thriftAddress})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	campaigns, err := reader.Campaigns(context.Background())
	if err != nil {
		t.Fatalf("campaigns: %v", err)
	}
	if len(campaigns) != 3 {
		t.Fatalf("expected 3 campaigns, got %d", len(campaigns))
	}
	first := campaigns[0]
	if first.ID != 1 || first.ParticipantCount() != 2 || first.CurrentRound != 2 {
		t.Fatalf("unexpected first campaign %+v", first)
	}
	if first.ContributionAmount.String() != "50" {
		t.Fatalf("expected 50 token contribution, got %s", first.ContributionAmount)
	}
	if first.TotalRounds != DefaultTotalRounds || first.Status != savings.StatusActive {
		t.Fatalf("unexpected rounds/status %d %s", first.TotalRounds, first.Status)
	}
	if campaigns[1].Status != savings.StatusCompleted {
		t.Fatalf("expected inactive campaign to be completed, got %s", campaigns[1].Status)
	}
}

func TestThriftReaderSkipsFailedCampaigns(t *testing.T) {
	caller := newFakeCaller(t)
	caller.failIDs[2] = true
	reader, err := NewThriftReader(caller, ThriftConfig{Address: thriftAddress, TotalRounds: 3})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	campaigns, err := reader.Campaigns(context.Background())
	if err != nil {
		t.Fatalf("campaigns: %v", err)
	}
	if len(campaigns) != 2 || campaigns[0].ID != 1 || campaigns[1].ID != 3 {
		t.Fatalf("expected campaigns 1 and 3, got %+v", campaigns)
	}
	if campaigns[0].TotalRounds != 3 {
		t.Fatalf("expected configured total rounds, got %d", campaigns[0].TotalRounds)
	}
}

func TestThriftReaderRejectsOversizedCount(t *testing.T) {
	caller := newFakeCaller(t)
	caller.count = math.MaxInt64
	reader, err := NewThriftReader(caller, ThriftConfig{Address: thriftAddress})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	campaigns, err := reader.Campaigns(context.Background())
	if !errors.Is(err, ErrTooManyCampaigns) {
		t.Fatalf("expected ErrTooManyCampaigns, got %v", err)
	}
	if campaigns != nil || caller.calls != 1 {
		t.Fatalf("expected no campaign reads, got %d calls", caller.calls)
	}

	caller = newFakeCaller(t)
	reader, err = NewThriftReader(caller, ThriftConfig{Address: thriftAddress, MaxCampaigns: 2})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	if _, err := reader.Campaigns(context.Background()); !errors.Is(err, ErrTooManyCampaigns) {
		t.Fatalf("expected configured limit to apply, got %v", err)
	}
}

func TestThriftReaderHonoursCancellation(t *testing.T) {
	reader, err := NewThriftReader(newFakeCaller(t), ThriftConfig{Address: thriftAddress})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := reader.Campaigns(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestNewThriftReaderValidates(t *testing.T) {
	if _, err := NewThriftReader(nil, ThriftConfig{Address: thriftAddress}); err == nil {
		t.Fatalf("expected nil caller to be rejected")
	}
	if _, err := NewThriftReader(newFakeCaller(t), ThriftConfig{}); err == nil {
		t.Fatalf("expected zero address to be rejected")
	}
}

func TestLookupNetwork(t *testing.T) {
	network, ok := LookupNetwork(" Celo ")
	if !ok || network.ChainID != 42220 {
		t.Fatalf("unexpected celo network %+v", network)
	}
	if _, ok := LookupNetwork("mainnet"); ok {
		t.Fatalf("unexpected network match")
	}
}

package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"esusu/native/savings"
)

// DefaultTotalRounds is the round count assumed for thrift campaigns; the
// contract does not expose it.
const DefaultTotalRounds = 5

// DefaultMaxCampaigns bounds how many campaigns one scan will read.
const DefaultMaxCampaigns = 10000

// ErrTooManyCampaigns is returned when the contract reports more campaigns
// than the reader is configured to scan.
var ErrTooManyCampaigns = errors.New("chain: campaign count exceeds limit")

// Caller is the subset of the Ethereum RPC used to read contract state.
// *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ThriftConfig configures a ThriftReader.
type ThriftConfig struct {
	Address     common.Address
	TotalRounds uint32
	// MaxCampaigns caps the campaign count accepted from the contract.
	// Zero selects DefaultMaxCampaigns.
	MaxCampaigns uint64
	Logger       *slog.Logger
}

// ThriftReader loads campaign snapshots from the thrift contract.
type ThriftReader struct {
	caller       Caller
	address      common.Address
	totalRounds  uint32
	maxCampaigns uint64
	logger       *slog.Logger
}

// NewThriftReader constructs a reader for the thrift contract at
// cfg.Address.
func NewThriftReader(caller Caller, cfg ThriftConfig) (*ThriftReader, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain caller required")
	}
	if (cfg.Address == common.Address{}) {
		return nil, fmt.Errorf("thrift contract address required")
	}
	rounds := cfg.TotalRounds
	if rounds == 0 {
		rounds = DefaultTotalRounds
	}
	limit := cfg.MaxCampaigns
	if limit == 0 {
		limit = DefaultMaxCampaigns
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ThriftReader{
		caller:       caller,
		address:      cfg.Address,
		totalRounds:  rounds,
		maxCampaigns: limit,
		logger:       logger.With("component", "thrift-reader"),
	}, nil
}

// CampaignCount returns the number of campaigns created so far.
func (r *ThriftReader) CampaignCount(ctx context.Context) (uint64, error) {
	out, err := r.call(ctx, "campaignCount")
	if err != nil {
		return 0, err
	}
	count, ok := out[0].(*big.Int)
	if !ok || count == nil {
		return 0, fmt.Errorf("campaignCount: unexpected output %T", out[0])
	}
	if !count.IsUint64() {
		return 0, fmt.Errorf("campaignCount: %s exceeds uint64", count)
	}
	return count.Uint64(), nil
}

// Campaign reads a single campaign by id.
func (r *ThriftReader) Campaign(ctx context.Context, id uint64) (savings.Campaign, error) {
	out, err := r.call(ctx, "getCampaign", new(big.Int).SetUint64(id))
	if err != nil {
		return savings.Campaign{}, err
	}
	if len(out) != 4 {
		return savings.Campaign{}, fmt.Errorf("getCampaign: expected 4 outputs, got %d", len(out))
	}
	participants, ok := out[0].([]common.Address)
	if !ok {
		return savings.Campaign{}, fmt.Errorf("getCampaign: unexpected participants %T", out[0])
	}
	rawAmount, ok := out[1].(*big.Int)
	if !ok {
		return savings.Campaign{}, fmt.Errorf("getCampaign: unexpected amount %T", out[1])
	}
	amount, overflow := uint256.FromBig(rawAmount)
	if overflow {
		return savings.Campaign{}, fmt.Errorf("getCampaign: amount overflows 256 bits")
	}
	round, ok := out[2].(*big.Int)
	if !ok || !round.IsUint64() || round.Uint64() > uint64(^uint32(0)) {
		return savings.Campaign{}, fmt.Errorf("getCampaign: unexpected round %v", out[2])
	}
	active, ok := out[3].(bool)
	if !ok {
		return savings.Campaign{}, fmt.Errorf("getCampaign: unexpected active flag %T", out[3])
	}
	return savings.Campaign{
		ID:                 id,
		Participants:       participants,
		ContributionAmount: savings.FromWei(amount),
		CurrentRound:       uint32(round.Uint64()),
		TotalRounds:        r.totalRounds,
		Status:             savings.StatusFromActive(active),
	}, nil
}

// Campaigns reads every campaign from id 1 to the current count. Campaigns
// that fail to load are logged and skipped so one bad record does not hide
// the rest; cancellation of ctx aborts the scan.
func (r *ThriftReader) Campaigns(ctx context.Context) ([]savings.Campaign, error) {
	count, err := r.CampaignCount(ctx)
	if err != nil {
		return nil, err
	}
	if count > r.maxCampaigns {
		return nil, fmt.Errorf("read campaigns: count %d above %d: %w", count, r.maxCampaigns, ErrTooManyCampaigns)
	}
	campaigns := make([]savings.Campaign, 0, count)
	for id := uint64(1); id <= count; id++ {
		campaign, err := r.Campaign(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("read campaigns: %w", ctxErr)
			}
			r.logger.Warn("skipping campaign", "campaign_id", id, "error", err)
			continue
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, nil
}

func (r *ThriftReader) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := thriftABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: pack: %w", method, err)
	}
	to := r.address
	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: call: %w", method, err)
	}
	out, err := thriftABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: unpack: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return out, nil
}

package chain

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"esusu/native/savings"
)

// ErrNotConfigured reports a call against a contract whose address was not
// supplied.
var ErrNotConfigured = errors.New("chain: contract not configured")

// Call is an unsigned contract invocation handed to the user's wallet for
// signing and submission.
type Call struct {
	To   common.Address
	Data []byte
}

// Contracts holds the deployed addresses of the savings contracts.
type Contracts struct {
	Thrift common.Address
	Piggy  common.Address
	Pay    common.Address
}

// CreateCampaign encodes a createCampaign call for a validated draft.
func (c Contracts) CreateCampaign(draft savings.CampaignDraft) (Call, error) {
	if draft.Contribution == nil {
		return Call{}, fmt.Errorf("createCampaign: contribution required")
	}
	return pack(thriftABI, c.Thrift, "createCampaign", draft.Participants, draft.Contribution.ToBig())
}

// Contribute encodes a contribute call for the current round of a campaign.
func (c Contracts) Contribute(campaignID uint64) (Call, error) {
	if campaignID == 0 {
		return Call{}, fmt.Errorf("%w: contribute: campaign id required", savings.ErrInvalidArgument)
	}
	return pack(thriftABI, c.Thrift, "contribute", new(big.Int).SetUint64(campaignID))
}

// LockFunds encodes a lockFunds call; the contract takes the duration in
// seconds.
func (c Contracts) LockFunds(draft savings.LockDraft) (Call, error) {
	if draft.Amount == nil {
		return Call{}, fmt.Errorf("lockFunds: amount required")
	}
	duration := new(big.Int).SetUint64(draft.DurationSeconds())
	return pack(piggyABI, c.Piggy, "lockFunds", draft.Amount.ToBig(), duration)
}

// PayCall encodes payUtility or makeDonation depending on the draft kind.
func (c Contracts) PayCall(draft savings.PaymentDraft) (Call, error) {
	if draft.Amount == nil {
		return Call{}, fmt.Errorf("pay: amount required")
	}
	method := "payUtility"
	if draft.Kind == savings.PaymentDonation {
		method = "makeDonation"
	}
	return pack(payABI, c.Pay, method, draft.Recipient, draft.Amount.ToBig(), draft.Description)
}

func pack(contract abi.ABI, to common.Address, method string, args ...any) (Call, error) {
	if (to == common.Address{}) {
		return Call{}, fmt.Errorf("%s: %w", method, ErrNotConfigured)
	}
	data, err := contract.Pack(method, args...)
	if err != nil {
		return Call{}, fmt.Errorf("%s: pack: %w", method, err)
	}
	return Call{To: to, Data: data}, nil
}

package chain

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"esusu/native/savings"
)

var contracts = Contracts{
	Thrift: thriftAddress,
	Piggy:  common.HexToAddress("0x94cE3e8BA73477f6A3Ff3cd1B211B81c9c095125"),
	Pay:    common.HexToAddress("0x05e2C54D348d9F0d8C40dF90cf15BFE8717Ee03f"),
}

func TestCreateCampaignCall(t *testing.T) {
	draft, err := savings.ValidateCampaignDraft([]string{
		"0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
		"0x8ba1f109551bD432803012645ac136ddd64DBA72",
	}, "50")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	call, err := contracts.CreateCampaign(draft)
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	method := thriftABI.Methods["createCampaign"]
	if call.To != contracts.Thrift || !bytes.Equal(call.Data[:4], method.ID) {
		t.Fatalf("unexpected call target or selector")
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	members := args[0].([]common.Address)
	if len(members) != 2 || members[1] != draft.Participants[1] {
		t.Fatalf("unexpected participants %v", members)
	}
	if args[1].(*big.Int).Cmp(weiFromTokens(50)) != 0 {
		t.Fatalf("unexpected contribution %v", args[1])
	}
}

func TestLockFundsCallUsesSeconds(t *testing.T) {
	draft, err := savings.ValidateLockDraft("100", 90)
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	call, err := contracts.LockFunds(draft)
	if err != nil {
		t.Fatalf("lock funds: %v", err)
	}
	args, err := piggyABI.Methods["lockFunds"].Inputs.Unpack(call.Data[4:])
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if args[1].(*big.Int).Uint64() != 90*24*60*60 {
		t.Fatalf("unexpected duration %v", args[1])
	}
}

func TestPayCallSelectsEntrypoint(t *testing.T) {
	recipient := "0x4E9ce36E442e55EcD9025B9a6E0D88485d628A67"
	utility, err := savings.ValidatePaymentDraft("utility", recipient, "75", "Gas bill")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	call, err := contracts.PayCall(utility)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if !bytes.Equal(call.Data[:4], payABI.Methods["payUtility"].ID) {
		t.Fatalf("expected payUtility selector")
	}
	donation := utility
	donation.Kind = savings.PaymentDonation
	call, err = contracts.PayCall(donation)
	if err != nil {
		t.Fatalf("donate: %v", err)
	}
	if !bytes.Equal(call.Data[:4], payABI.Methods["makeDonation"].ID) {
		t.Fatalf("expected makeDonation selector")
	}
}

func TestCallsRequireConfiguredContract(t *testing.T) {
	if _, err := (Contracts{}).Contribute(1); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := contracts.Contribute(0); !errors.Is(err, savings.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for zero campaign id, got %v", err)
	}
}

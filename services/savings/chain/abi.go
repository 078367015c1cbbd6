package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// thriftABIJSON covers the EsusuThrift entrypoints used by the service.
const thriftABIJSON = `[
  {"type":"function","name":"campaignCount","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getCampaign","stateMutability":"view",
   "inputs":[{"name":"_campaignId","type":"uint256"}],
   "outputs":[{"name":"participants","type":"address[]"},{"name":"contributionAmount","type":"uint256"},
              {"name":"currentRound","type":"uint256"},{"name":"active","type":"bool"}]},
  {"type":"function","name":"createCampaign","stateMutability":"nonpayable",
   "inputs":[{"name":"_participants","type":"address[]"},{"name":"_contributionAmount","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"contribute","stateMutability":"nonpayable",
   "inputs":[{"name":"_campaignId","type":"uint256"}],"outputs":[]}
]`

const piggyABIJSON = `[
  {"type":"function","name":"lockFunds","stateMutability":"nonpayable",
   "inputs":[{"name":"_amount","type":"uint256"},{"name":"_duration","type":"uint256"}],"outputs":[]}
]`

const payABIJSON = `[
  {"type":"function","name":"payUtility","stateMutability":"nonpayable",
   "inputs":[{"name":"_provider","type":"address"},{"name":"_amount","type":"uint256"},{"name":"_description","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"makeDonation","stateMutability":"nonpayable",
   "inputs":[{"name":"_recipient","type":"address"},{"name":"_amount","type":"uint256"},{"name":"_description","type":"string"}],
   "outputs":[]}
]`

var (
	thriftABI = mustParseABI(thriftABIJSON)
	piggyABI  = mustParseABI(piggyABIJSON)
	payABI    = mustParseABI(payABIJSON)
)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic("invalid contract abi: " + err.Error())
	}
	return parsed
}

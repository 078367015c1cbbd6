package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/ethclient"
)

// Network describes an EVM network the savings contracts are deployed on.
type Network struct {
	Name     string
	ChainID  uint64
	RPCURL   string
	Explorer string
}

var networks = map[string]Network{
	"celo": {
		Name:     "celo",
		ChainID:  42220,
		RPCURL:   "https://forno.celo.org",
		Explorer: "https://explorer.celo.org",
	},
	"celo-sepolia": {
		Name:     "celo-sepolia",
		ChainID:  11142220,
		RPCURL:   "https://sepolia-forno.celo-testnet.org",
		Explorer: "https://sepolia.celoscan.io",
	},
	"alfajores": {
		Name:     "alfajores",
		ChainID:  44787,
		RPCURL:   "https://alfajores-forno.celo-testnet.org",
		Explorer: "https://alfajores.celoscan.io",
	},
}

// LookupNetwork returns the well-known network registered under name.
func LookupNetwork(name string) (Network, bool) {
	network, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	return network, ok
}

// Dial connects to an EVM JSON-RPC endpoint. When chainID is non-zero the
// remote chain id must match it.
func Dial(ctx context.Context, endpoint string, chainID uint64) (*ethclient.Client, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("evm endpoint required")
	}
	client, err := ethclient.DialContext(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", trimmed, err)
	}
	if chainID == 0 {
		return client, nil
	}
	remote, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	if !remote.IsUint64() || remote.Uint64() != chainID {
		client.Close()
		return nil, fmt.Errorf("chain id mismatch: endpoint reports %s, want %d", remote, chainID)
	}
	return client, nil
}

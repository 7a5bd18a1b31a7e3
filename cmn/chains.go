package cmn

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Chain is the normalized two-value chain identity the rest of the app works
// with. The wallet provider is the source of truth; everything here is a
// projection of its numeric chain id.
type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainPolygon  Chain = "polygon"
)

const (
	EthereumChainId = 1
	PolygonChainId  = 137
)

// ChainFromId maps a wallet-reported chain id to the two-value enumeration.
// Unrecognized ids fall back to the configured default chain: failing closed
// here would block the whole app on a transient read glitch.
func ChainFromId(id int) Chain {
	switch id {
	case EthereumChainId:
		return ChainEthereum
	case PolygonChainId:
		return ChainPolygon
	default:
		return DefaultChain()
	}
}

func (c Chain) Id() int {
	switch c {
	case ChainPolygon:
		return PolygonChainId
	default:
		return EthereumChainId
	}
}

func (c Chain) RpcUrl() string {
	switch c {
	case ChainPolygon:
		return Config.PolygonRPC
	default:
		return Config.EthereumRPC
	}
}

// PolIsNative reports how POL is represented on the chain: the native asset
// on Polygon, an ERC20 at a fixed contract on Ethereum.
func (c Chain) PolIsNative() bool {
	return c == ChainPolygon
}

func ParseChain(s string) (Chain, error) {
	switch Chain(strings.ToLower(s)) {
	case ChainEthereum:
		return ChainEthereum, nil
	case ChainPolygon:
		return ChainPolygon, nil
	default:
		return "", fmt.Errorf("unknown chain: %s", s)
	}
}

func DefaultChain() Chain {
	if c, err := ParseChain(Config.DefaultChain); err == nil {
		return c
	}
	return ChainEthereum
}

func POLTokenAddress() common.Address {
	return common.HexToAddress(Config.POLToken)
}

func StakingContractAddress() common.Address {
	return common.HexToAddress(Config.StakingContract)
}

func ValidatorAddress() common.Address {
	return common.HexToAddress(Config.Validator)
}

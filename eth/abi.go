package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/rs/zerolog/log"
)

// ERC20 fragments the POL token needs: balance reads, allowance checks and
// approval calldata for the delegation contract.
const erc20ABI = `[
	{"name":"balanceOf","type":"function","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"allowance","type":"function","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"approve","type":"function","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

var ERC20 abi.ABI

func LoadABIs() {
	var err error
	ERC20, err = abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		log.Fatal().Msgf("Error parsing ERC20 ABI: %v\n", err)
	}
}

package staking

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

// refreshAll runs the balance lookups concurrently and merges whatever
// succeeded into the snapshot. A failing lookup leaves its field untouched;
// the others still land. Staking-side data only exists on Ethereum: off it,
// staked/rewards/unbonding are zero by policy and the provider is not
// called.
func refreshAll(address common.Address) {
	chain := currentChain()

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		res := bus.Fetch("eth", "balance", &bus.B_EthBalance{
			Chain:   chain,
			Address: address,
		})
		if res.Error != nil {
			log.Debug().Err(res.Error).Msg("refresh: liquid balance failed")
			return
		}
		if d, ok := res.Data.(*bus.B_EthBalance_Response); ok {
			balances.setLiquid(d.Balance)
		}
	}()

	if chain != cmn.ChainEthereum {
		balances.setStaked(big.NewInt(0))
		balances.setRewards(big.NewInt(0))
		balances.setUnbonding(big.NewInt(0), 0)
	} else {
		wg.Add(3)

		go func() {
			defer wg.Done()

			staked, err := fetchStaked(address)
			if err != nil {
				log.Debug().Err(err).Msg("refresh: staked balance failed")
				return
			}
			balances.setStaked(staked)
		}()

		go func() {
			defer wg.Done()

			rewards, err := fetchRewards(address)
			if err != nil {
				log.Debug().Err(err).Msg("refresh: rewards failed")
				return
			}
			balances.setRewards(rewards)
		}()

		go func() {
			defer wg.Done()

			res := bus.Fetch("provider", "get-unbonding", &bus.B_ProviderUnbonding{
				Chain:   cmn.ChainEthereum,
				Address: address,
			})
			if res.Error != nil {
				log.Debug().Err(res.Error).Msg("refresh: unbonding failed")
				return
			}
			if d, ok := res.Data.(*bus.B_ProviderUnbonding_Response); ok {
				balances.setUnbonding(d.Amount, d.WithdrawEpoch)
			}
		}()
	}

	wg.Wait()

	bus.Send("staking", "balances-updated", balances.view())
}

func currentChain() cmn.Chain {
	res := bus.Fetch("chain", "detect", nil)
	if res.Error == nil {
		if d, ok := res.Data.(*bus.B_ChainDetect_Response); ok {
			return d.Chain
		}
	}
	return cmn.DefaultChain()
}

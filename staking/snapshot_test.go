package staking

import (
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

func TestSnapshotFieldIsolation(t *testing.T) {
	s := &snapshot{}

	s.setLiquid(pol("10"))
	s.setStaked(pol("3"))

	// a later staking refresh must not disturb liquid, and vice versa
	s.setStaked(pol("8"))
	v := s.view()
	assert.Equal(t, pol("10"), v.Liquid)
	assert.Equal(t, pol("8"), v.Staked)

	s.setLiquid(pol("2"))
	v = s.view()
	assert.Equal(t, pol("2"), v.Liquid)
	assert.Equal(t, pol("8"), v.Staked)
}

func TestSnapshotConcurrentWrites(t *testing.T) {
	s := &snapshot{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.setLiquid(pol("10"))
		}()
		go func() {
			defer wg.Done()
			s.setStaked(pol("3"))
		}()
	}
	wg.Wait()

	v := s.view()
	assert.Equal(t, pol("10"), v.Liquid)
	assert.Equal(t, pol("3"), v.Staked)
}

func TestSnapshotViewDefaultsToZero(t *testing.T) {
	s := &snapshot{}

	v := s.view()
	assert.Equal(t, big.NewInt(0), v.Liquid)
	assert.Equal(t, big.NewInt(0), v.Staked)
	assert.Equal(t, big.NewInt(0), v.Rewards)
	assert.Equal(t, big.NewInt(0), v.Unbonding)
}

func TestViewReportsOldestFetch(t *testing.T) {
	s := &snapshot{}

	assert.True(t, s.view().RefreshedAt.IsZero(), "nothing fetched yet")

	s.setRewards(pol("0.5"))
	first := s.view().RefreshedAt
	assert.False(t, first.IsZero())

	time.Sleep(5 * time.Millisecond)
	s.setLiquid(pol("7"))

	assert.Equal(t, first, s.view().RefreshedAt, "staleness follows the oldest populated field")
}

func TestRefreshAllIsolatesFailures(t *testing.T) {
	balances.reset()
	balances.setRewards(pol("2.5"))

	f := startFakes(map[string]func(*bus.Message) (any, error){
		"chain/detect": onChain(cmn.ChainEthereum),
		"eth/balance": func(*bus.Message) (any, error) {
			return &bus.B_EthBalance_Response{Balance: pol("7")}, nil
		},
		"provider/get-staked": onStaked("3"),
		"provider/get-rewards": func(*bus.Message) (any, error) {
			return nil, errors.New("provider outage")
		},
		"provider/get-unbonding": func(*bus.Message) (any, error) {
			return &bus.B_ProviderUnbonding_Response{
				Amount:        pol("1"),
				WithdrawEpoch: 42,
			}, nil
		},
	})
	defer f.stop()

	refreshAll(testAddress)

	v := balances.view()
	assert.Equal(t, pol("7"), v.Liquid)
	assert.Equal(t, pol("3"), v.Staked)
	assert.Equal(t, pol("2.5"), v.Rewards, "failed rewards lookup must not clobber the last value")
	assert.Equal(t, pol("1"), v.Unbonding)
	assert.Equal(t, uint64(42), v.WithdrawEpoch)
}

func TestRefreshAllSkipsStakingLookupsOffEthereum(t *testing.T) {
	balances.reset()
	balances.setStaked(pol("3"))
	balances.setRewards(pol("0.5"))

	f := startFakes(map[string]func(*bus.Message) (any, error){
		"chain/detect": onChain(cmn.ChainPolygon),
		"eth/balance": func(*bus.Message) (any, error) {
			return &bus.B_EthBalance_Response{Balance: pol("7")}, nil
		},
	})
	defer f.stop()

	refreshAll(testAddress)

	v := balances.view()
	assert.Equal(t, pol("7"), v.Liquid, "liquid still comes from the active chain")
	assert.Equal(t, big.NewInt(0), v.Staked, "staked is zero off Ethereum")
	assert.Equal(t, big.NewInt(0), v.Rewards)
	assert.Equal(t, big.NewInt(0), v.Unbonding)
	assert.Zero(t, f.count("provider/"), "staking data must not be requested off Ethereum")
}

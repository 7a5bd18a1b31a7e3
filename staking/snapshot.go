package staking

import (
	"math/big"
	"sync"
	"time"

	"github.com/unicorn-dapps/polstake/bus"
)

// snapshot is the aggregated balance view. Each field carries its own fetch
// timestamp so refreshes merge per field: a failed rewards fetch never
// clobbers a fresh liquid balance.
type snapshot struct {
	mu sync.Mutex

	liquid    *big.Int
	staked    *big.Int
	rewards   *big.Int
	unbonding *big.Int

	withdrawEpoch uint64

	liquidAt    time.Time
	stakedAt    time.Time
	rewardsAt   time.Time
	unbondingAt time.Time
}

var balances = &snapshot{}

func (s *snapshot) setLiquid(v *big.Int) {
	s.mu.Lock()
	s.liquid = v
	s.liquidAt = time.Now()
	s.mu.Unlock()
}

func (s *snapshot) setStaked(v *big.Int) {
	s.mu.Lock()
	s.staked = v
	s.stakedAt = time.Now()
	s.mu.Unlock()
}

func (s *snapshot) setRewards(v *big.Int) {
	s.mu.Lock()
	s.rewards = v
	s.rewardsAt = time.Now()
	s.mu.Unlock()
}

func (s *snapshot) setUnbonding(v *big.Int, epoch uint64) {
	s.mu.Lock()
	s.unbonding = v
	s.withdrawEpoch = epoch
	s.unbondingAt = time.Now()
	s.mu.Unlock()
}

func (s *snapshot) reset() {
	s.mu.Lock()
	s.liquid = nil
	s.staked = nil
	s.rewards = nil
	s.unbonding = nil
	s.withdrawEpoch = 0
	s.liquidAt = time.Time{}
	s.stakedAt = time.Time{}
	s.rewardsAt = time.Time{}
	s.unbondingAt = time.Time{}
	s.mu.Unlock()
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func (s *snapshot) view() *bus.B_StakingBalances_Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &bus.B_StakingBalances_Response{
		Liquid:        zeroIfNil(s.liquid),
		Staked:        zeroIfNil(s.staked),
		Rewards:       zeroIfNil(s.rewards),
		Unbonding:     zeroIfNil(s.unbonding),
		WithdrawEpoch: s.withdrawEpoch,
		RefreshedAt:   oldest(s.liquidAt, s.stakedAt, s.rewardsAt, s.unbondingAt),
	}
}

// oldest returns the earliest non-zero time. A field that was never fetched
// does not count against freshness.
func oldest(ts ...time.Time) time.Time {
	var o time.Time
	for _, t := range ts {
		if t.IsZero() {
			continue
		}
		if o.IsZero() || t.Before(o) {
			o = t
		}
	}
	return o
}

func (s *snapshot) stakedValue() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return zeroIfNil(s.staked)
}

func (s *snapshot) rewardsValue() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return zeroIfNil(s.rewards)
}

func (s *snapshot) liquidValue() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return zeroIfNil(s.liquid)
}

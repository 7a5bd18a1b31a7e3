// Package staking drives POL staking through the provider: it aggregates the
// liquid, staked and rewards balances and runs the ordered stake, unstake
// and claim flows against the wallet.
package staking

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

var account common.Address
var accountMu sync.Mutex

func setAccount(a common.Address) {
	accountMu.Lock()
	account = a
	accountMu.Unlock()
}

func getAccount() (common.Address, bool) {
	accountMu.Lock()
	defer accountMu.Unlock()
	return account, account != (common.Address{})
}

func Init() {
	go Loop(bus.Subscribe("staking", "wallet", "chain", "timer"))
}

func Loop(ch chan *bus.Message) {
	for msg := range ch {
		if msg.RespondTo != 0 {
			continue // ignore responses
		}
		go process(msg)
	}
}

func process(msg *bus.Message) {
	switch msg.Topic {
	case "staking":
		switch msg.Type {
		case "stake":
			data, err := stake(msg)
			msg.Respond(data, err)
		case "unstake":
			data, err := unstake(msg)
			msg.Respond(data, err)
		case "claim":
			data, err := claim(msg)
			msg.Respond(data, err)
		case "get-balances":
			msg.Respond(balances.view(), nil)
		case "refresh":
			if a, ok := getAccount(); ok {
				refreshAll(a)
			}
			msg.Respond(balances.view(), nil)
		case "balances-updated":
			// our own announcement
		default:
			log.Error().Msgf("staking: unknown type: %v", msg.Type)
		}
	case "wallet":
		switch msg.Type {
		case "connected":
			if d, ok := msg.Data.(*bus.B_WalletConnected); ok {
				setAccount(d.Address)
				refreshAll(d.Address)
			}
		case "disconnected":
			setAccount(common.Address{})
			balances.reset()
		}
	case "chain":
		if msg.Type == "changed" {
			if a, ok := getAccount(); ok {
				refreshAll(a)
			}
		}
	case "timer":
		if msg.Type != "tick" {
			return
		}
		t, ok := msg.Data.(*bus.B_TimerTick)
		if !ok {
			return
		}
		period := int(cmn.Config.BalancePollPeriod.Seconds())
		if period <= 0 {
			period = 30
		}
		if t.Tick%period == 0 {
			if a, ok := getAccount(); ok {
				refreshAll(a)
			}
		}
	}
}

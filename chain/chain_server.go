// Package chain tracks which network the wallet session is on. The wallet
// provider is the source of truth; this server polls it, caches the answer,
// and announces changes on the bus.
package chain

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

var current cmn.Chain
var currentMu sync.Mutex
var polling bool

func Current() cmn.Chain {
	currentMu.Lock()
	defer currentMu.Unlock()

	if current == "" {
		return cmn.DefaultChain()
	}
	return current
}

func Init() {
	current = cmn.DefaultChain()
	go Loop(bus.Subscribe("chain", "wallet", "timer"))
}

// Loop takes an already-registered channel so no event published after
// Init returns can slip past the server.
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
	case "chain":
		switch msg.Type {
		case "detect":
			msg.Respond(&bus.B_ChainDetect_Response{Chain: Current()}, nil)
		case "refresh":
			detect()
			msg.Respond(&bus.B_ChainDetect_Response{Chain: Current()}, nil)
		case "switch":
			err := switchTo(msg)
			msg.Respond(nil, err)
		case "changed":
			// our own announcement
		default:
			log.Error().Msgf("chain: unknown type: %v", msg.Type)
		}
	case "wallet":
		switch msg.Type {
		case "connected":
			setPolling(true)
			detect()
		case "disconnected":
			setPolling(false)
			setCurrent(cmn.DefaultChain())
		case "chain-changed":
			if d, ok := msg.Data.(*bus.B_WalletChainChanged); ok {
				setCurrent(cmn.ChainFromId(d.ChainId))
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
		period := int(cmn.Config.ChainPollPeriod.Seconds())
		if period <= 0 {
			period = 5
		}
		if isPolling() && t.Tick%period == 0 {
			detect()
		}
	}
}

// detect asks the wallet which chain the session is on. Any failure leaves
// the cached chain alone: detection errors are swallowed, never surfaced.
func detect() {
	res := bus.Fetch("wallet", "get-account", nil)
	if res.Error != nil {
		log.Debug().Err(res.Error).Msg("chain: detect failed")
		return
	}

	acct, ok := res.Data.(*bus.B_WalletAccount_Response)
	if !ok {
		log.Error().Msgf("chain: bad get-account response: %v", res.Data)
		return
	}

	setCurrent(cmn.ChainFromId(acct.ChainId))
}

func switchTo(msg *bus.Message) error {
	req, ok := msg.Data.(*bus.B_ChainSwitch)
	if !ok {
		return fmt.Errorf("switch: invalid data: %v", msg.Data)
	}

	res := msg.Fetch("wallet", "switch-chain", &bus.B_WalletSwitchChain{
		ChainId: req.Chain.Id(),
	})
	if res.Error != nil {
		return res.Error
	}

	setCurrent(req.Chain)
	return nil
}

func setCurrent(c cmn.Chain) {
	currentMu.Lock()
	changed := current != c
	current = c
	currentMu.Unlock()

	if changed {
		log.Trace().Msgf("chain: now on %s", c)
		bus.Send("chain", "changed", &bus.B_ChainChanged{Chain: c})
	}
}

func setPolling(on bool) {
	currentMu.Lock()
	polling = on
	currentMu.Unlock()
}

func isPolling() bool {
	currentMu.Lock()
	defer currentMu.Unlock()
	return polling
}

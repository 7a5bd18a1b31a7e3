package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

// Session is the cached projection of the provider-side smart account. The
// provider is authoritative; we only mirror what it last told us.
type Session struct {
	Address common.Address
	ChainId int
}

var session *Session
var sessionMu sync.Mutex

func CurrentSession() *Session {
	sessionMu.Lock()
	defer sessionMu.Unlock()

	if session == nil {
		return nil
	}
	s := *session
	return &s
}

func setSession(address common.Address, chainId int) {
	sessionMu.Lock()
	session = &Session{Address: address, ChainId: chainId}
	sessionMu.Unlock()
}

func clearSession() {
	sessionMu.Lock()
	session = nil
	sessionMu.Unlock()
}

func Init() {
	go Loop(bus.Subscribe("wallet"))
	go runEventStream()
	go seedSession()
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
	case "wallet":
		switch msg.Type {
		case "get-account":
			data, err := getAccount(msg)
			msg.Respond(data, err)
		case "switch-chain":
			err := switchChain(msg)
			msg.Respond(nil, err)
		case "submit-tx":
			data, err := submitTx(msg)
			msg.Respond(data, err)
		case "connected", "disconnected", "chain-changed":
			// events, not requests
		default:
			log.Error().Msgf("wallet: unknown type: %v", msg.Type)
		}
	}
}

// getAccount answers from the cached session first and falls back to asking
// the provider. No session at all is a precondition error, not runtime
// variance: callers must not reach for the wallet before one connects.
func getAccount(msg *bus.Message) (*bus.B_WalletAccount_Response, error) {
	if s := CurrentSession(); s != nil {
		return &bus.B_WalletAccount_Response{
			Address: s.Address,
			ChainId: s.ChainId,
		}, nil
	}

	acct, err := fetchAccount()
	if err != nil {
		log.Error().Err(err).Msg("getAccount: no wallet session")
		return nil, errors.New("no wallet connected")
	}

	addr := common.HexToAddress(acct.Address)
	setSession(addr, acct.ChainId)

	return &bus.B_WalletAccount_Response{
		Address: addr,
		ChainId: acct.ChainId,
	}, nil
}

func switchChain(msg *bus.Message) error {
	req, ok := msg.Data.(*bus.B_WalletSwitchChain)
	if !ok {
		return fmt.Errorf("switch-chain: invalid data: %v", msg.Data)
	}

	if CurrentSession() == nil {
		return errors.New("no wallet connected")
	}

	err := requestSwitchChain(req.ChainId)
	if err != nil {
		log.Warn().Err(err).Int("chainId", req.ChainId).Msg("switchChain: provider refused switch")
		return err
	}

	return nil
}

func submitTx(msg *bus.Message) (*bus.B_WalletSubmitTx_Response, error) {
	req, ok := msg.Data.(*bus.B_WalletSubmitTx)
	if !ok {
		return nil, fmt.Errorf("submit-tx: invalid data: %v", msg.Data)
	}

	s := CurrentSession()
	if s == nil {
		return nil, errors.New("no wallet connected")
	}

	hash, err := sendTransaction(req)
	if err != nil {
		log.Error().Err(err).Str("to", req.To.Hex()).Msg("submitTx: provider send failed")
		return nil, err
	}

	if hash == "" {
		// The send call resolving without a hash is the dominant failure
		// mode of this provider; the caller decides what to make of it.
		log.Warn().Str("to", req.To.Hex()).Msg("submitTx: no hash returned")
	}

	return &bus.B_WalletSubmitTx_Response{Hash: hash}, nil
}

func seedSession() {
	acct, err := fetchAccount()
	if err != nil {
		log.Debug().Err(err).Msg("seedSession: no account yet")
		return
	}

	addr := common.HexToAddress(acct.Address)
	setSession(addr, acct.ChainId)
	log.Info().Msgf("wallet: connected %s on chain %d",
		cmn.ShortAddress(acct.Address), acct.ChainId)
	bus.Send("wallet", "connected", &bus.B_WalletConnected{
		Address: addr,
		ChainId: acct.ChainId,
	})
}

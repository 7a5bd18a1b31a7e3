package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

var httpClient = &http.Client{Timeout: 15 * time.Second}

type accountResponse struct {
	Address string `json:"address"`
	ChainId int    `json:"chainId"`
}

type submitTxRequest struct {
	ChainId int    `json:"chainId"`
	To      string `json:"to"`
	Value   string `json:"value"`
	Data    string `json:"data"`
}

type submitTxResponse struct {
	Hash string `json:"hash"`
}

type walletEvent struct {
	Event   string `json:"event"`
	Address string `json:"address"`
	ChainId int    `json:"chainId"`
}

func fetchAccount() (*accountResponse, error) {
	resp, err := httpClient.Get(cmn.Config.WalletAPIURL + "/account")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wallet account: status %d", resp.StatusCode)
	}

	var acct accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&acct); err != nil {
		return nil, err
	}

	if !common.IsHexAddress(acct.Address) {
		return nil, fmt.Errorf("wallet account: bad address: %s", acct.Address)
	}

	return &acct, nil
}

func requestSwitchChain(chainId int) error {
	body, _ := json.Marshal(map[string]int{"chainId": chainId})

	resp, err := httpClient.Post(cmn.Config.WalletAPIURL+"/switch-chain",
		"application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("wallet switch-chain: status %d: %s", resp.StatusCode, string(b))
	}

	return nil
}

func sendTransaction(req *bus.B_WalletSubmitTx) (string, error) {
	value := "0x0"
	if req.Value != nil && req.Value.Sign() > 0 {
		value = "0x" + req.Value.Text(16)
	}

	body, err := json.Marshal(&submitTxRequest{
		ChainId: req.ChainId,
		To:      req.To.Hex(),
		Value:   value,
		Data:    "0x" + common.Bytes2Hex(req.Data),
	})
	if err != nil {
		return "", err
	}

	resp, err := httpClient.Post(cmn.Config.WalletAPIURL+"/transactions",
		"application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("wallet transactions: status %d: %s", resp.StatusCode, string(b))
	}

	var txr submitTxResponse
	if err := json.NewDecoder(resp.Body).Decode(&txr); err != nil {
		return "", err
	}

	return txr.Hash, nil
}

// runEventStream keeps a websocket open to the wallet provider and forwards
// its lifecycle events onto the bus. Reconnects forever with a flat delay.
func runEventStream() {
	if cmn.Config.WalletWSURL == "" {
		log.Debug().Msg("wallet: no ws url configured, event stream disabled")
		return
	}

	for {
		err := readEvents(cmn.Config.WalletWSURL)
		if err != nil {
			log.Warn().Err(err).Msg("wallet: event stream dropped")
		}
		time.Sleep(5 * time.Second)
	}
}

func readEvents(url string) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Trace().Msgf("wallet: event stream connected: %s", url)

	for {
		var ev walletEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		handleEvent(&ev)
	}
}

func handleEvent(ev *walletEvent) {
	switch ev.Event {
	case "connected":
		if !common.IsHexAddress(ev.Address) {
			log.Error().Msgf("wallet: connected event with bad address: %s", ev.Address)
			return
		}
		addr := common.HexToAddress(ev.Address)
		setSession(addr, ev.ChainId)
		bus.Send("wallet", "connected", &bus.B_WalletConnected{
			Address: addr,
			ChainId: ev.ChainId,
		})
	case "disconnected":
		clearSession()
		bus.Send("wallet", "disconnected", nil)
	case "chain-changed":
		sessionMu.Lock()
		if session != nil {
			session.ChainId = ev.ChainId
		}
		sessionMu.Unlock()
		bus.Send("wallet", "chain-changed", &bus.B_WalletChainChanged{ChainId: ev.ChainId})
	default:
		log.Trace().Msgf("wallet: ignoring event: %s", ev.Event)
	}
}

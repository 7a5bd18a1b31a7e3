package wallet

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

var testAddress = common.HexToAddress("0x1111111111111111111111111111111111111111")

var initOnce sync.Once

func startBus() {
	initOnce.Do(func() {
		bus.BusTimeout = 5 * time.Second
		bus.BusHardTimeout = 10 * time.Second
		bus.Init()
	})
}

func TestFetchAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/account", r.URL.Path)
		w.Write([]byte(`{"address":"0x1111111111111111111111111111111111111111","chainId":1}`))
	}))
	defer srv.Close()
	cmn.Config.WalletAPIURL = srv.URL

	acct, err := fetchAccount()
	require.NoError(t, err)
	assert.Equal(t, testAddress.Hex(), common.HexToAddress(acct.Address).Hex())
	assert.Equal(t, 1, acct.ChainId)
}

func TestFetchAccountBadAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":"not-an-address","chainId":1}`))
	}))
	defer srv.Close()
	cmn.Config.WalletAPIURL = srv.URL

	_, err := fetchAccount()
	assert.Error(t, err)
}

func TestSendTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)

		var body submitTxRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 1, body.ChainId)
		assert.Equal(t, "0x0", body.Value)
		assert.Equal(t, "0xdeadbeef", body.Data)

		w.Write([]byte(`{"hash":"0xabc"}`))
	}))
	defer srv.Close()
	cmn.Config.WalletAPIURL = srv.URL

	hash, err := sendTransaction(&bus.B_WalletSubmitTx{
		ChainId: 1,
		To:      testAddress,
		Value:   big.NewInt(0),
		Data:    []byte{0xde, 0xad, 0xbe, 0xef},
	})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", hash)
}

func TestSendTransactionNoHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	cmn.Config.WalletAPIURL = srv.URL

	// an empty hash is a valid response, not an error
	hash, err := sendTransaction(&bus.B_WalletSubmitTx{ChainId: 1, To: testAddress})
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestGetAccountNoSession(t *testing.T) {
	startBus()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no session", http.StatusNotFound)
	}))
	defer srv.Close()
	cmn.Config.WalletAPIURL = srv.URL

	clearSession()

	_, err := getAccount(&bus.Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no wallet connected")
}

func TestHandleEventLifecycle(t *testing.T) {
	startBus()
	clearSession()

	handleEvent(&walletEvent{Event: "connected", Address: testAddress.Hex(), ChainId: 1})

	s := CurrentSession()
	require.NotNil(t, s)
	assert.Equal(t, testAddress, s.Address)
	assert.Equal(t, 1, s.ChainId)

	handleEvent(&walletEvent{Event: "chain-changed", ChainId: 137})
	s = CurrentSession()
	require.NotNil(t, s)
	assert.Equal(t, 137, s.ChainId)

	handleEvent(&walletEvent{Event: "disconnected"})
	assert.Nil(t, CurrentSession())
}

func TestGetAccountFromSession(t *testing.T) {
	startBus()

	setSession(testAddress, 1)
	defer clearSession()

	acct, err := getAccount(&bus.Message{})
	require.NoError(t, err)
	assert.Equal(t, testAddress, acct.Address)
	assert.Equal(t, 1, acct.ChainId)
}

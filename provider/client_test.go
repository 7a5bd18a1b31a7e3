package provider

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unicorn-dapps/polstake/cmn"
)

var testAddress = common.HexToAddress("0x1111111111111111111111111111111111111111")

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/create" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"token":"test-token"}`))
			return
		}
		handler(w, r)
	}))

	t.Cleanup(func() {
		srv.Close()
		clearToken()
	})

	clearToken()
	cmn.Config.ProviderURL = srv.URL
	return srv
}

func TestGetStaked(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/ethereum/balance/"+testAddress.Hex(), r.URL.Path)
		w.Write([]byte(`{"staked":"3.5"}`))
	})

	v, err := GetStaked(cmn.ChainEthereum, testAddress)
	require.NoError(t, err)
	assert.Equal(t, "3.5", cmn.FmtAmount(v, cmn.POLDecimals))
}

func TestGetStakedNoRecord(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	// 404 is "no record", a defined zero, not an error
	v, err := GetStaked(cmn.ChainEthereum, testAddress)
	require.NoError(t, err)
	assert.Zero(t, v.Sign())
}

func TestGetStakedServerError(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busted", http.StatusBadGateway)
	})

	_, err := GetStaked(cmn.ChainEthereum, testAddress)
	assert.Error(t, err)
}

func TestGetRewards(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ethereum/rewards/"+testAddress.Hex(), r.URL.Path)
		w.Write([]byte(`{"rewards":"0.25"}`))
	})

	v, err := GetRewards(cmn.ChainEthereum, testAddress)
	require.NoError(t, err)
	assert.Equal(t, "0.25", cmn.FmtAmount(v, cmn.POLDecimals))
}

func TestGetUnbonding(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ethereum/unbonding/"+testAddress.Hex(), r.URL.Path)
		w.Write([]byte(`{"amount":"2","withdrawEpoch":77}`))
	})

	v, epoch, err := GetUnbonding(cmn.ChainEthereum, testAddress)
	require.NoError(t, err)
	assert.Equal(t, "2", cmn.FmtAmount(v, cmn.POLDecimals))
	assert.Equal(t, uint64(77), epoch)
}

func TestDelegate(t *testing.T) {
	cmn.Config.SourceID = "src-1"

	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ethereum/delegate", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testAddress.Hex(), body["address"])
		assert.Equal(t, "5", body["amount"])
		assert.Equal(t, cmn.Config.Validator, body["validator"])
		assert.Equal(t, "src-1", body["source"])

		w.Write([]byte(`{"to":"0x5e3Ef299fDDf15eAa0432E6e66473ace8c13D908","data":"0xdeadbeef","value":"0x0"}`))
	})

	tr, err := Delegate(cmn.ChainEthereum, testAddress, mustWei(t, "5"))
	require.NoError(t, err)

	to, data, value, err := parseTxResponse(tr)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x5e3Ef299fDDf15eAa0432E6e66473ace8c13D908"), to)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)
	assert.Zero(t, value.Sign())
}

func TestClaimRelayed(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ethereum/claim", r.URL.Path)
		w.Write([]byte(`{"transactionHash":"0xabc"}`))
	})

	tr, err := Claim(cmn.ChainEthereum, testAddress)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", tr.TransactionHash)
}

func TestUnauthorizedClearsToken(t *testing.T) {
	newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	})

	_, err := GetStaked(cmn.ChainEthereum, testAddress)
	assert.Error(t, err)

	authMu.Lock()
	defer authMu.Unlock()
	assert.Empty(t, authToken)
}

func mustWei(t *testing.T, s string) *big.Int {
	v, err := cmn.Str2Wei(s, cmn.POLDecimals)
	require.NoError(t, err)
	return v
}

package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/cmn"
)

var httpClient = &http.Client{Timeout: 20 * time.Second}

var authToken string
var authMu sync.Mutex

type unbondingResponse struct {
	Amount        string `json:"amount"`
	WithdrawEpoch uint64 `json:"withdrawEpoch"`
}

type txResponse struct {
	TransactionHash string `json:"transactionHash"`
	To              string `json:"to"`
	Data            string `json:"data"`
	Value           string `json:"value"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// getToken lazily creates the API bearer token and caches it. A fresh token
// is requested again only after a 401 clears the cache.
func getToken() (string, error) {
	authMu.Lock()
	defer authMu.Unlock()

	if authToken != "" {
		return authToken, nil
	}

	body, _ := json.Marshal(map[string]string{
		"companyName": cmn.Config.CompanyName,
		"tokenType":   "SDK",
	})

	resp, err := httpClient.Post(cmn.Config.ProviderURL+"/token/create",
		"application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("provider token: status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.Token == "" {
		return "", fmt.Errorf("provider token: empty token")
	}

	authToken = tr.Token
	return authToken, nil
}

func clearToken() {
	authMu.Lock()
	authToken = ""
	authMu.Unlock()
}

func call(method, path string, reqBody any) (int, []byte, error) {
	token, err := getToken()
	if err != nil {
		return 0, nil, err
	}

	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, cmn.Config.ProviderURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		clearToken()
	}

	return resp.StatusCode, b, nil
}

// getAmount fetches a decimal POL amount from a read endpoint, keyed the way
// the endpoint names it ("staked", "rewards"). 404 means the provider has no
// record for the address, which is a zero balance, not an error.
func getAmount(path, key string) (*big.Int, error) {
	status, body, err := call("GET", path, nil)
	if err != nil {
		return nil, err
	}

	if status == http.StatusNotFound {
		return big.NewInt(0), nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("provider GET %s: status %d: %s", path, status, string(body))
	}

	var fields map[string]string
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}

	amount, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("provider GET %s: no %q field in response", path, key)
	}

	wei, err := cmn.Str2Wei(amount, cmn.POLDecimals)
	if err != nil {
		return nil, fmt.Errorf("provider GET %s: bad amount %q: %v", path, amount, err)
	}

	return wei, nil
}

func GetStaked(chain cmn.Chain, address common.Address) (*big.Int, error) {
	return getAmount(fmt.Sprintf("/%s/balance/%s", chain, address.Hex()), "staked")
}

func GetRewards(chain cmn.Chain, address common.Address) (*big.Int, error) {
	return getAmount(fmt.Sprintf("/%s/rewards/%s", chain, address.Hex()), "rewards")
}

func GetUnbonding(chain cmn.Chain, address common.Address) (*big.Int, uint64, error) {
	path := fmt.Sprintf("/%s/unbonding/%s", chain, address.Hex())

	status, body, err := call("GET", path, nil)
	if err != nil {
		return nil, 0, err
	}

	if status == http.StatusNotFound {
		return big.NewInt(0), 0, nil
	}
	if status != http.StatusOK {
		return nil, 0, fmt.Errorf("provider GET %s: status %d: %s", path, status, string(body))
	}

	var ur unbondingResponse
	if err := json.Unmarshal(body, &ur); err != nil {
		return nil, 0, err
	}

	wei, err := cmn.Str2Wei(ur.Amount, cmn.POLDecimals)
	if err != nil {
		return nil, 0, fmt.Errorf("provider GET %s: bad amount %q: %v", path, ur.Amount, err)
	}

	return wei, ur.WithdrawEpoch, nil
}

func postTx(path string, reqBody any) (*txResponse, error) {
	status, body, err := call("POST", path, reqBody)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("provider POST %s: status %d: %s", path, status, string(body))
	}

	var tr txResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, err
	}

	return &tr, nil
}

func Delegate(chain cmn.Chain, address common.Address, amount *big.Int) (*txResponse, error) {
	return postTx(fmt.Sprintf("/%s/delegate", chain), map[string]string{
		"address":   address.Hex(),
		"amount":    cmn.FmtAmount(amount, cmn.POLDecimals),
		"validator": cmn.Config.Validator,
		"source":    cmn.Config.SourceID,
	})
}

func Claim(chain cmn.Chain, address common.Address) (*txResponse, error) {
	return postTx(fmt.Sprintf("/%s/claim", chain), map[string]string{
		"address": address.Hex(),
		"source":  cmn.Config.SourceID,
	})
}

func Unstake(chain cmn.Chain, address common.Address, amount *big.Int) (*txResponse, error) {
	return postTx(fmt.Sprintf("/%s/unstake", chain), map[string]string{
		"address":   address.Hex(),
		"amount":    cmn.FmtAmount(amount, cmn.POLDecimals),
		"validator": cmn.Config.Validator,
		"source":    cmn.Config.SourceID,
	})
}

func parseTxResponse(tr *txResponse) (common.Address, []byte, *big.Int, error) {
	var to common.Address
	var data []byte
	value := big.NewInt(0)

	if tr.To != "" {
		if !common.IsHexAddress(tr.To) {
			return to, nil, nil, fmt.Errorf("provider tx: bad to address: %s", tr.To)
		}
		to = common.HexToAddress(tr.To)
	}

	if tr.Data != "" {
		data = common.FromHex(tr.Data)
	}

	if tr.Value != "" {
		v, ok := new(big.Int).SetString(tr.Value, 0)
		if !ok {
			log.Warn().Msgf("provider tx: bad value %q, assuming zero", tr.Value)
		} else {
			value = v
		}
	}

	return to, data, value, nil
}

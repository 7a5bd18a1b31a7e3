package staking

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

func rejected(message string) *bus.B_StakingResult {
	return &bus.B_StakingResult{
		Success: false,
		Message: message,
		Outcome: bus.OutcomeFailed,
	}
}

func activeAccount() (common.Address, error) {
	res := bus.Fetch("wallet", "get-account", nil)
	if res.Error != nil {
		return common.Address{}, errors.New("no wallet connected")
	}

	acct, ok := res.Data.(*bus.B_WalletAccount_Response)
	if !ok {
		return common.Address{}, fmt.Errorf("bad get-account response: %v", res.Data)
	}

	return acct.Address, nil
}

// assertChain is the gate before any write. The check reads the cached
// detection only; a stake attempt on the wrong chain makes no network calls.
func assertChain() *bus.B_StakingResult {
	res := bus.Fetch("chain", "detect", nil)
	if res.Error != nil {
		return rejected("Cannot determine active chain, please reconnect the wallet")
	}

	d, ok := res.Data.(*bus.B_ChainDetect_Response)
	if !ok || d.Chain != cmn.ChainEthereum {
		return rejected("Staking runs on Ethereum. Please switch your wallet to the Ethereum network")
	}

	return nil
}

func parseAmount(s string) (*big.Int, *bus.B_StakingResult) {
	wei, err := cmn.Str2Wei(s, cmn.POLDecimals)
	if err != nil {
		return nil, rejected(fmt.Sprintf("Invalid amount: %s", s))
	}

	if wei.Sign() <= 0 {
		return nil, rejected("Amount must be positive")
	}

	return wei, nil
}

// waitForTx polls the transaction status on the bus tick cadence, bounded
// by attempt count and by wall clock. Returns true once the transaction is
// found and no longer pending. Running out of either bound is not failure,
// only absence of a signal.
func waitForTx(hash common.Hash) bool {
	every := int(cmn.Config.TxPollInterval / time.Second)
	if every < 1 {
		every = 1
	}
	limit := time.Duration(cmn.Config.TxPollAttempts)*cmn.Config.TxPollInterval + 2*time.Second

	attempts := 0
	confirmed, err := bus.TimerLoop(limit, every, 0, func() (any, error, bool) {
		attempts++

		res := bus.Fetch("eth", "tx-status", &bus.B_EthTxStatus{
			Chain: cmn.ChainEthereum,
			Hash:  hash,
		})
		if res.Error == nil {
			if st, ok := res.Data.(*bus.B_EthTxStatus_Response); ok {
				if st.Found && !st.Pending {
					return true, nil, true
				}
			}
		}

		if attempts >= cmn.Config.TxPollAttempts {
			return false, nil, true
		}
		return nil, nil, false
	})

	if err != nil || confirmed != true {
		log.Warn().Str("hash", hash.Hex()).Msg("staking: tx not confirmed within poll bound")
		return false
	}
	return true
}

// ensureApproval makes sure the staking contract may spend the requested
// amount of POL. Returns the approval transaction hash, if one was obtained.
// An unreadable allowance is treated as not covered.
func ensureApproval(owner common.Address, amount *big.Int) (string, *bus.B_StakingResult) {
	covered := false

	res := bus.Fetch("eth", "allowance", &bus.B_EthAllowance{
		Chain:   cmn.ChainEthereum,
		Owner:   owner,
		Spender: cmn.StakingContractAddress(),
	})
	if res.Error != nil {
		log.Warn().Err(res.Error).Msg("staking: allowance read failed, approving anyway")
	} else if a, ok := res.Data.(*bus.B_EthAllowance_Response); ok && a.Allowance != nil {
		covered = a.Allowance.Cmp(amount) >= 0
	}

	if covered {
		return "", nil
	}

	res = bus.Fetch("eth", "approve-data", &bus.B_EthApproveData{
		Spender: cmn.StakingContractAddress(),
		Amount:  amount,
	})
	if res.Error != nil {
		return "", rejected(friendlyError(res.Error))
	}

	data, ok := res.Data.([]byte)
	if !ok {
		return "", rejected("Internal error preparing approval")
	}

	res = bus.Fetch("wallet", "submit-tx", &bus.B_WalletSubmitTx{
		ChainId: cmn.EthereumChainId,
		To:      cmn.POLTokenAddress(),
		Value:   big.NewInt(0),
		Data:    data,
	})
	if res.Error != nil {
		return "", rejected(friendlyError(res.Error))
	}

	tx, ok := res.Data.(*bus.B_WalletSubmitTx_Response)
	if !ok {
		return "", rejected("Internal error submitting approval")
	}

	if tx.Hash != "" {
		if waitForTx(common.HexToHash(tx.Hash)) {
			return tx.Hash, nil
		}
	}

	// No definitive confirmation. Absence of a signal is not proof of
	// failure here, so wait out a grace delay and move on.
	time.Sleep(cmn.Config.ApproveGraceDelay)
	return tx.Hash, nil
}

// submitProviderTx takes a prepared or relayed provider transaction and
// returns the hash we observed for it, excluding excludeHash: a hash equal
// to the earlier approval's is the approval echoing back, not this
// transaction's.
func submitProviderTx(tr *bus.B_ProviderTx_Response, excludeHash string) (string, *bus.B_StakingResult) {
	hash := tr.TransactionHash

	if hash == "" {
		res := bus.Fetch("wallet", "submit-tx", &bus.B_WalletSubmitTx{
			ChainId: cmn.EthereumChainId,
			To:      tr.To,
			Value:   tr.Value,
			Data:    tr.Data,
		})
		if res.Error != nil {
			return "", rejected(friendlyError(res.Error))
		}

		tx, ok := res.Data.(*bus.B_WalletSubmitTx_Response)
		if !ok {
			return "", rejected("Internal error submitting transaction")
		}
		hash = tx.Hash
	}

	if excludeHash != "" && hash == excludeHash {
		log.Warn().Str("hash", hash).Msg("staking: discarding hash equal to approval hash")
		hash = ""
	}

	return hash, nil
}

// resolve settles the terminal state of an attempt. With a hash, poll until
// it stops pending. Without one, fall back to inference: wait the settle
// delay, re-read the balance through fetch, and compare to before with cmp.
func resolve(hash string, before *big.Int, fetch func() (*big.Int, error), cmp func(before, after *big.Int) bool, verb string) *bus.B_StakingResult {
	if hash != "" {
		message := fmt.Sprintf("%s transaction confirmed", verb)
		if !waitForTx(common.HexToHash(hash)) {
			message = fmt.Sprintf("%s transaction submitted, confirmation still pending", verb)
		}
		return &bus.B_StakingResult{
			Success: true,
			Message: message,
			TxHash:  hash,
			Outcome: bus.OutcomeConfirmed,
		}
	}

	time.Sleep(cmn.Config.SettleDelay)

	after, err := fetch()
	if err != nil {
		log.Warn().Err(err).Msg("staking: inference read failed")
		return rejected(fmt.Sprintf("%s could not be confirmed", verb))
	}

	if cmp(before, after) {
		return &bus.B_StakingResult{
			Success: true,
			Message: fmt.Sprintf("%s confirmed by balance change", verb),
			Outcome: bus.OutcomeByInference,
		}
	}

	return rejected(fmt.Sprintf("%s could not be confirmed", verb))
}

func fetchStaked(address common.Address) (*big.Int, error) {
	res := bus.Fetch("provider", "get-staked", &bus.B_ProviderStaked{
		Chain:   cmn.ChainEthereum,
		Address: address,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	d, ok := res.Data.(*bus.B_ProviderStaked_Response)
	if !ok {
		return nil, fmt.Errorf("bad get-staked response: %v", res.Data)
	}
	return d.Staked, nil
}

func fetchRewards(address common.Address) (*big.Int, error) {
	res := bus.Fetch("provider", "get-rewards", &bus.B_ProviderRewards{
		Chain:   cmn.ChainEthereum,
		Address: address,
	})
	if res.Error != nil {
		return nil, res.Error
	}
	d, ok := res.Data.(*bus.B_ProviderRewards_Response)
	if !ok {
		return nil, fmt.Errorf("bad get-rewards response: %v", res.Data)
	}
	return d.Rewards, nil
}

func increased(before, after *big.Int) bool {
	return after.Cmp(before) > 0
}

func decreased(before, after *big.Int) bool {
	return after.Cmp(before) < 0
}

func stake(msg *bus.Message) (*bus.B_StakingResult, error) {
	req, ok := msg.Data.(*bus.B_StakingStake)
	if !ok {
		return nil, fmt.Errorf("stake: invalid data: %v", msg.Data)
	}

	amount, rej := parseAmount(req.Amount)
	if rej != nil {
		return rej, nil
	}

	if amount.Cmp(balances.liquidValue()) > 0 {
		return rejected("Insufficient POL balance"), nil
	}

	if rej := assertChain(); rej != nil {
		return rej, nil
	}

	address, err := activeAccount()
	if err != nil {
		return nil, err
	}

	stakedBefore, err := fetchStaked(address)
	if err != nil {
		stakedBefore = balances.stakedValue()
	}

	approveHash, rej := ensureApproval(address, amount)
	if rej != nil {
		return rej, nil
	}

	res := bus.Fetch("provider", "delegate", &bus.B_ProviderDelegate{
		Chain:   cmn.ChainEthereum,
		Address: address,
		Amount:  amount,
	})
	if res.Error != nil {
		return rejected(friendlyError(res.Error)), nil
	}

	tr, ok := res.Data.(*bus.B_ProviderTx_Response)
	if !ok {
		return rejected("Internal error preparing delegation"), nil
	}

	hash, rej := submitProviderTx(tr, approveHash)
	if rej != nil {
		return rej, nil
	}

	result := resolve(hash, stakedBefore,
		func() (*big.Int, error) { return fetchStaked(address) },
		increased, "Stake")

	if result.Success {
		refreshAll(address)
	}

	return result, nil
}

func claim(msg *bus.Message) (*bus.B_StakingResult, error) {
	minClaim, err := cmn.Str2Wei(cmn.Config.MinClaimAmount, cmn.POLDecimals)
	if err != nil {
		minClaim = big.NewInt(0)
	}

	rewards := balances.rewardsValue()
	if rewards.Cmp(minClaim) < 0 {
		return rejected(fmt.Sprintf("Minimum %s POL required to claim rewards",
			cmn.Config.MinClaimAmount)), nil
	}

	if rej := assertChain(); rej != nil {
		return rej, nil
	}

	address, err := activeAccount()
	if err != nil {
		return nil, err
	}

	rewardsBefore, err := fetchRewards(address)
	if err != nil {
		rewardsBefore = rewards
	}

	res := bus.Fetch("provider", "claim", &bus.B_ProviderClaim{
		Chain:   cmn.ChainEthereum,
		Address: address,
	})
	if res.Error != nil {
		return rejected(friendlyError(res.Error)), nil
	}

	tr, ok := res.Data.(*bus.B_ProviderTx_Response)
	if !ok {
		return rejected("Internal error preparing claim"), nil
	}

	hash, rej := submitProviderTx(tr, "")
	if rej != nil {
		return rej, nil
	}

	result := resolve(hash, rewardsBefore,
		func() (*big.Int, error) { return fetchRewards(address) },
		decreased, "Claim")

	if result.Success {
		refreshAll(address)
	}

	return result, nil
}

func unstake(msg *bus.Message) (*bus.B_StakingResult, error) {
	req, ok := msg.Data.(*bus.B_StakingUnstake)
	if !ok {
		return nil, fmt.Errorf("unstake: invalid data: %v", msg.Data)
	}

	amount, rej := parseAmount(req.Amount)
	if rej != nil {
		return rej, nil
	}

	if amount.Cmp(balances.stakedValue()) > 0 {
		return rejected("Amount exceeds staked balance"), nil
	}

	if rej := assertChain(); rej != nil {
		return rej, nil
	}

	address, err := activeAccount()
	if err != nil {
		return nil, err
	}

	stakedBefore, err := fetchStaked(address)
	if err != nil {
		stakedBefore = balances.stakedValue()
	}

	res := bus.Fetch("provider", "unstake", &bus.B_ProviderUnstake{
		Chain:   cmn.ChainEthereum,
		Address: address,
		Amount:  amount,
	})
	if res.Error != nil {
		return rejected(friendlyError(res.Error)), nil
	}

	tr, ok := res.Data.(*bus.B_ProviderTx_Response)
	if !ok {
		return rejected("Internal error preparing unstake"), nil
	}

	hash, rej := submitProviderTx(tr, "")
	if rej != nil {
		return rej, nil
	}

	result := resolve(hash, stakedBefore,
		func() (*big.Int, error) { return fetchStaked(address) },
		decreased, "Unstake")

	if result.Success {
		refreshAll(address)
	}

	return result, nil
}

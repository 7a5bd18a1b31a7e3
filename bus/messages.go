package bus

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/unicorn-dapps/polstake/cmn"
)

// ---------- timer ----------
type B_TimerInit struct { // init
	Limit     time.Duration
	HardLimit time.Duration
	Start     bool
}

type B_TimerTick struct { // tick
	Tick int
	Left map[int]time.Duration // id -> time left
}

// ---------- wallet ----------
type B_WalletAccount_Response struct { // get-account_response
	Address common.Address
	ChainId int
}

type B_WalletSwitchChain struct { // switch-chain
	ChainId int
}

type B_WalletSubmitTx struct { // submit-tx
	ChainId int
	To      common.Address
	Value   *big.Int
	Data    []byte
}

type B_WalletSubmitTx_Response struct { // submit-tx_response
	// Hash may be empty: the provider does not reliably return the
	// transaction id from the send call.
	Hash string
}

type B_WalletConnected struct { // connected
	Address common.Address
	ChainId int
}

type B_WalletChainChanged struct { // chain-changed
	ChainId int
}

// ---------- chain ----------
type B_ChainDetect_Response struct { // detect_response
	Chain cmn.Chain
}

type B_ChainSwitch struct { // switch
	Chain cmn.Chain
}

type B_ChainChanged struct { // changed
	Chain cmn.Chain
}

// ---------- eth ----------
type B_EthBalance struct { // balance
	Chain   cmn.Chain
	Address common.Address
}

type B_EthBalance_Response struct { // balance_response
	Balance *big.Int
}

type B_EthAllowance struct { // allowance
	Chain   cmn.Chain
	Owner   common.Address
	Spender common.Address
}

type B_EthAllowance_Response struct { // allowance_response
	Allowance *big.Int
}

type B_EthApproveData struct { // approve-data
	Spender common.Address
	Amount  *big.Int
}

type B_EthTxStatus struct { // tx-status
	Chain cmn.Chain
	Hash  common.Hash
}

type B_EthTxStatus_Response struct { // tx-status_response
	Found   bool
	Pending bool
}

// ---------- provider ----------
type B_ProviderStaked struct { // get-staked
	Chain   cmn.Chain
	Address common.Address
}

type B_ProviderStaked_Response struct { // get-staked_response
	Staked *big.Int
}

type B_ProviderRewards struct { // get-rewards
	Chain   cmn.Chain
	Address common.Address
}

type B_ProviderRewards_Response struct { // get-rewards_response
	Rewards *big.Int
}

type B_ProviderUnbonding struct { // get-unbonding
	Chain   cmn.Chain
	Address common.Address
}

type B_ProviderUnbonding_Response struct { // get-unbonding_response
	Amount        *big.Int
	WithdrawEpoch uint64
}

type B_ProviderDelegate struct { // delegate
	Chain   cmn.Chain
	Address common.Address
	Amount  *big.Int
}

type B_ProviderClaim struct { // claim
	Chain   cmn.Chain
	Address common.Address
}

type B_ProviderUnstake struct { // unstake
	Chain   cmn.Chain
	Address common.Address
	Amount  *big.Int
}

// B_ProviderTx_Response is returned by delegate/claim/unstake. The provider
// either relays the transaction itself (TransactionHash set) or returns a
// prepared transaction for the wallet to submit (To/Data set).
type B_ProviderTx_Response struct {
	TransactionHash string
	To              common.Address
	Data            []byte
	Value           *big.Int
}

// ---------- staking ----------
type StakeOutcome string

const (
	OutcomeConfirmed   StakeOutcome = "confirmed"
	OutcomeByInference StakeOutcome = "confirmed-by-inference"
	OutcomeFailed      StakeOutcome = "failed"
)

type B_StakingStake struct { // stake
	Amount string
}

type B_StakingUnstake struct { // unstake
	Amount string
}

type B_StakingResult struct { // stake_response / claim_response / unstake_response
	Success bool
	Message string
	TxHash  string
	Outcome StakeOutcome
}

type B_StakingBalances_Response struct { // get-balances_response
	Liquid        *big.Int
	Staked        *big.Int
	Rewards       *big.Int
	Unbonding     *big.Int
	WithdrawEpoch uint64
	RefreshedAt   time.Time // oldest fetch among the populated fields
}

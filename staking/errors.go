package staking

import (
	"github.com/unicorn-dapps/polstake/cmn"
)

// friendlyError maps raw wallet/provider errors to something a person can
// act on. Matching is by substring because the upstreams wrap their errors
// inconsistently.
func friendlyError(err error) string {
	if err == nil {
		return ""
	}

	s := err.Error()

	switch {
	case cmn.Contains(s, "insufficient funds"):
		return "Not enough funds to cover gas for this transaction"
	case cmn.Contains(s, "user rejected"), cmn.Contains(s, "user denied"):
		return "Transaction was cancelled in the wallet"
	case cmn.Contains(s, "network"), cmn.Contains(s, "connection refused"),
		cmn.Contains(s, "timeout"):
		return "Network problem, please try again"
	}

	return s
}

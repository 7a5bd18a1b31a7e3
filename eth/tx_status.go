package eth

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
)

// txStatus is the pending-predicate the staking flow polls. A transaction
// the node has never heard of is reported as not found, not as an error.
func txStatus(msg *bus.Message) (*bus.B_EthTxStatus_Response, error) {
	req, ok := msg.Data.(*bus.B_EthTxStatus)
	if !ok {
		return nil, fmt.Errorf("tx-status: invalid data: %v", msg.Data)
	}

	client, err := getEthClient(req.Chain)
	if err != nil {
		log.Error().Msgf("txStatus: Failed to open client: %v", err)
		return nil, err
	}

	_, pending, err := client.TransactionByHash(context.Background(), req.Hash)
	if err != nil {
		if err == ethereum.NotFound {
			return &bus.B_EthTxStatus_Response{Found: false, Pending: false}, nil
		}
		log.Error().Msgf("txStatus: Cannot get tx %s. Error:(%v)", req.Hash.Hex(), err)
		return nil, err
	}

	return &bus.B_EthTxStatus_Response{Found: true, Pending: pending}, nil
}

package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

// getBalance reads the POL balance with the asset representation the chain
// uses: native coin on Polygon, ERC20 at the fixed token contract on
// Ethereum.
func getBalance(msg *bus.Message) (*bus.B_EthBalance_Response, error) {
	req, ok := msg.Data.(*bus.B_EthBalance)
	if !ok {
		return nil, fmt.Errorf("balance: invalid data: %v", msg.Data)
	}

	client, err := getEthClient(req.Chain)
	if err != nil {
		log.Error().Msgf("getBalance: Failed to open client: %v", err)
		return nil, err
	}

	var balance *big.Int

	if req.Chain.PolIsNative() {
		balance, err = client.BalanceAt(context.Background(), req.Address, nil)
		if err != nil {
			log.Error().Msgf("getBalance: Cannot get native balance. Error:(%v)", err)
			return nil, err
		}
	} else {
		token := cmn.POLTokenAddress()

		data, err := ERC20.Pack("balanceOf", req.Address)
		if err != nil {
			log.Error().Msgf("getBalance: Cannot pack data. Error:(%v)", err)
			return nil, err
		}

		output, err := client.CallContract(context.Background(), ethereum.CallMsg{
			To:   &token,
			Data: data,
		}, nil)
		if err != nil {
			log.Error().Msgf("getBalance: Cannot call contract. Error:(%v)", err)
			return nil, err
		}

		var decodedResult struct {
			Balance *big.Int
		}
		err = ERC20.UnpackIntoInterface(&decodedResult, "balanceOf", output)
		if err != nil {
			log.Error().Msgf("getBalance: Cannot unpack data. Error:(%v)", err)
			return nil, err
		}
		balance = decodedResult.Balance
	}

	return &bus.B_EthBalance_Response{
		Balance: balance,
	}, nil
}

func getAllowance(msg *bus.Message) (*bus.B_EthAllowance_Response, error) {
	req, ok := msg.Data.(*bus.B_EthAllowance)
	if !ok {
		return nil, fmt.Errorf("allowance: invalid data: %v", msg.Data)
	}

	if req.Chain.PolIsNative() {
		// native POL needs no spending approval
		return &bus.B_EthAllowance_Response{Allowance: new(big.Int)}, nil
	}

	client, err := getEthClient(req.Chain)
	if err != nil {
		log.Error().Msgf("getAllowance: Failed to open client: %v", err)
		return nil, err
	}

	token := cmn.POLTokenAddress()

	data, err := ERC20.Pack("allowance", req.Owner, req.Spender)
	if err != nil {
		log.Error().Msgf("getAllowance: Cannot pack data. Error:(%v)", err)
		return nil, err
	}

	output, err := client.CallContract(context.Background(), ethereum.CallMsg{
		To:   &token,
		From: req.Owner,
		Data: data,
	}, nil)
	if err != nil {
		log.Error().Msgf("getAllowance: Cannot call contract. Error:(%v)", err)
		return nil, err
	}

	var decodedResult struct {
		Allowance *big.Int
	}
	err = ERC20.UnpackIntoInterface(&decodedResult, "allowance", output)
	if err != nil {
		log.Error().Msgf("getAllowance: Cannot unpack data. Error:(%v)", err)
		return nil, err
	}

	return &bus.B_EthAllowance_Response{
		Allowance: decodedResult.Allowance,
	}, nil
}

// approveData builds the approve(spender, amount) calldata for the wallet
// provider to sign and submit. No network access needed.
func approveData(msg *bus.Message) ([]byte, error) {
	req, ok := msg.Data.(*bus.B_EthApproveData)
	if !ok {
		return nil, fmt.Errorf("approve-data: invalid data: %v", msg.Data)
	}

	data, err := ERC20.Pack("approve", req.Spender, req.Amount)
	if err != nil {
		log.Error().Msgf("approveData: Cannot pack data. Error:(%v)", err)
		return nil, err
	}

	return data, nil
}

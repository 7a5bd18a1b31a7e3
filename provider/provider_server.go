// Package provider talks to the staking provider's REST API: read endpoints
// for staked balances and rewards, write endpoints that prepare or relay
// delegation transactions.
package provider

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
)

func Init() {
	go Loop(bus.Subscribe("provider"))
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
	case "provider":
		switch msg.Type {
		case "get-staked":
			data, err := getStaked(msg)
			msg.Respond(data, err)
		case "get-rewards":
			data, err := getRewards(msg)
			msg.Respond(data, err)
		case "get-unbonding":
			data, err := getUnbonding(msg)
			msg.Respond(data, err)
		case "delegate":
			data, err := delegate(msg)
			msg.Respond(data, err)
		case "claim":
			data, err := claim(msg)
			msg.Respond(data, err)
		case "unstake":
			data, err := unstake(msg)
			msg.Respond(data, err)
		default:
			log.Error().Msgf("provider: unknown type: %v", msg.Type)
		}
	}
}

func getStaked(msg *bus.Message) (*bus.B_ProviderStaked_Response, error) {
	req, ok := msg.Data.(*bus.B_ProviderStaked)
	if !ok {
		return nil, fmt.Errorf("get-staked: invalid data: %v", msg.Data)
	}

	staked, err := GetStaked(req.Chain, req.Address)
	if err != nil {
		return nil, err
	}

	return &bus.B_ProviderStaked_Response{Staked: staked}, nil
}

func getRewards(msg *bus.Message) (*bus.B_ProviderRewards_Response, error) {
	req, ok := msg.Data.(*bus.B_ProviderRewards)
	if !ok {
		return nil, fmt.Errorf("get-rewards: invalid data: %v", msg.Data)
	}

	rewards, err := GetRewards(req.Chain, req.Address)
	if err != nil {
		return nil, err
	}

	return &bus.B_ProviderRewards_Response{Rewards: rewards}, nil
}

func getUnbonding(msg *bus.Message) (*bus.B_ProviderUnbonding_Response, error) {
	req, ok := msg.Data.(*bus.B_ProviderUnbonding)
	if !ok {
		return nil, fmt.Errorf("get-unbonding: invalid data: %v", msg.Data)
	}

	amount, epoch, err := GetUnbonding(req.Chain, req.Address)
	if err != nil {
		return nil, err
	}

	return &bus.B_ProviderUnbonding_Response{
		Amount:        amount,
		WithdrawEpoch: epoch,
	}, nil
}

func toBusTx(tr *txResponse) (*bus.B_ProviderTx_Response, error) {
	to, data, value, err := parseTxResponse(tr)
	if err != nil {
		return nil, err
	}

	return &bus.B_ProviderTx_Response{
		TransactionHash: tr.TransactionHash,
		To:              to,
		Data:            data,
		Value:           value,
	}, nil
}

func delegate(msg *bus.Message) (*bus.B_ProviderTx_Response, error) {
	req, ok := msg.Data.(*bus.B_ProviderDelegate)
	if !ok {
		return nil, fmt.Errorf("delegate: invalid data: %v", msg.Data)
	}

	tr, err := Delegate(req.Chain, req.Address, req.Amount)
	if err != nil {
		return nil, err
	}

	return toBusTx(tr)
}

func claim(msg *bus.Message) (*bus.B_ProviderTx_Response, error) {
	req, ok := msg.Data.(*bus.B_ProviderClaim)
	if !ok {
		return nil, fmt.Errorf("claim: invalid data: %v", msg.Data)
	}

	tr, err := Claim(req.Chain, req.Address)
	if err != nil {
		return nil, err
	}

	return toBusTx(tr)
}

func unstake(msg *bus.Message) (*bus.B_ProviderTx_Response, error) {
	req, ok := msg.Data.(*bus.B_ProviderUnstake)
	if !ok {
		return nil, fmt.Errorf("unstake: invalid data: %v", msg.Data)
	}

	tr, err := Unstake(req.Chain, req.Address, req.Amount)
	if err != nil {
		return nil, err
	}

	return toBusTx(tr)
}

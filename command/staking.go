package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

func NewBalancesCommand() *Command {
	return &Command{
		Command:      "balances",
		ShortCommand: "b",
		Usage: `
Usage: balances [refresh]

Show POL balances. 'balances refresh' forces a re-fetch first
`,
		Help:    `Show POL balances`,
		Process: Balances_Process,
	}
}

func NewStakeCommand() *Command {
	return &Command{
		Command:      "stake",
		ShortCommand: "s",
		Usage: `
Usage: stake AMOUNT

Stake AMOUNT of POL with the validator
`,
		Help:    `Stake POL`,
		Process: Stake_Process,
	}
}

func NewUnstakeCommand() *Command {
	return &Command{
		Command:      "unstake",
		ShortCommand: "us",
		Usage: `
Usage: unstake AMOUNT

Request undelegation of AMOUNT of staked POL
`,
		Help:    `Unstake POL`,
		Process: Unstake_Process,
	}
}

func NewClaimCommand() *Command {
	return &Command{
		Command:      "claim",
		ShortCommand: "c",
		Usage: `
Usage: claim

Claim accumulated staking rewards
`,
		Help:    `Claim staking rewards`,
		Process: Claim_Process,
	}
}

func Balances_Process(c *Command, input string) {
	p := strings.Fields(input)

	t := "get-balances"
	if len(p) > 1 && p[1] == "refresh" {
		t = "refresh"
	}

	res := bus.Fetch("staking", t, nil)
	if res.Error != nil {
		bus.Send("ui", "error", res.Error.Error())
		return
	}

	b, ok := res.Data.(*bus.B_StakingBalances_Response)
	if !ok {
		bus.Send("ui", "error", "Unexpected balances response")
		return
	}

	out := fmt.Sprintf(
		"Liquid:    %s POL\nStaked:    %s POL\nRewards:   %s POL\nUnbonding: %s POL",
		cmn.FmtAmount(b.Liquid, cmn.POLDecimals),
		cmn.FmtAmount(b.Staked, cmn.POLDecimals),
		cmn.FmtAmount(b.Rewards, cmn.POLDecimals),
		cmn.FmtAmount(b.Unbonding, cmn.POLDecimals))

	if b.Unbonding.Sign() > 0 {
		out += fmt.Sprintf(" (withdraw epoch %d)", b.WithdrawEpoch)
	}

	if !b.RefreshedAt.IsZero() {
		out += fmt.Sprintf("\nas of %s ago", time.Since(b.RefreshedAt).Round(time.Second))
	}

	bus.Send("ui", "print", out)
}

func reportResult(res *bus.Message) {
	if res.Error != nil {
		bus.Send("ui", "error", res.Error.Error())
		return
	}

	r, ok := res.Data.(*bus.B_StakingResult)
	if !ok {
		bus.Send("ui", "error", "Unexpected staking response")
		return
	}

	msg := r.Message
	if r.TxHash != "" {
		msg += " (tx " + r.TxHash + ")"
	}

	if r.Success {
		bus.Send("ui", "print", msg)
	} else {
		bus.Send("ui", "error", msg)
	}
}

func Stake_Process(c *Command, input string) {
	p := strings.Fields(input)
	if len(p) < 2 {
		bus.Send("ui", "print", c.Usage)
		return
	}

	bus.Send("ui", "print", "Staking "+p[1]+" POL...")
	reportResult(bus.Fetch("staking", "stake", &bus.B_StakingStake{Amount: p[1]}))
}

func Unstake_Process(c *Command, input string) {
	p := strings.Fields(input)
	if len(p) < 2 {
		bus.Send("ui", "print", c.Usage)
		return
	}

	bus.Send("ui", "print", "Unstaking "+p[1]+" POL...")
	reportResult(bus.Fetch("staking", "unstake", &bus.B_StakingUnstake{Amount: p[1]}))
}

func Claim_Process(c *Command, input string) {
	bus.Send("ui", "print", "Claiming rewards...")
	reportResult(bus.Fetch("staking", "claim", nil))
}

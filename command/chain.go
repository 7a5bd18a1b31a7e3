package command

import (
	"strings"

	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/cmn"
)

func NewChainCommand() *Command {
	return &Command{
		Command:      "chain",
		ShortCommand: "ch",
		Usage: `
Usage: chain [COMMAND]

Show or change the active chain

Commands:
  (none)              - Show the detected chain
  refresh             - Re-detect the chain from the wallet
  switch [CHAIN]      - Ask the wallet to switch (ethereum | polygon)
`,
		Help:    `Show or switch the active chain`,
		Process: Chain_Process,
	}
}

func Chain_Process(c *Command, input string) {
	p := strings.Fields(input)

	subcommand := ""
	if len(p) > 1 {
		subcommand = p[1]
	}

	switch subcommand {
	case "":
		res := bus.Fetch("chain", "detect", nil)
		printChain(res)
	case "refresh":
		res := bus.Fetch("chain", "refresh", nil)
		printChain(res)
	case "switch":
		if len(p) < 3 {
			bus.Send("ui", "print", c.Usage)
			return
		}
		chain, err := cmn.ParseChain(p[2])
		if err != nil {
			bus.Send("ui", "error", err.Error())
			return
		}
		res := bus.Fetch("chain", "switch", &bus.B_ChainSwitch{Chain: chain})
		if res.Error != nil {
			bus.Send("ui", "error", res.Error.Error())
			return
		}
		bus.Send("ui", "print", "Switched to "+string(chain))
	default:
		bus.Send("ui", "print", c.Usage)
	}
}

func printChain(res *bus.Message) {
	if res.Error != nil {
		bus.Send("ui", "error", res.Error.Error())
		return
	}

	if d, ok := res.Data.(*bus.B_ChainDetect_Response); ok {
		bus.Send("ui", "print", "Active chain: "+string(d.Chain))
	}
}

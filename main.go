package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
	"github.com/unicorn-dapps/polstake/chain"
	"github.com/unicorn-dapps/polstake/cmn"
	"github.com/unicorn-dapps/polstake/command"
	"github.com/unicorn-dapps/polstake/eth"
	"github.com/unicorn-dapps/polstake/provider"
	"github.com/unicorn-dapps/polstake/staking"
	"github.com/unicorn-dapps/polstake/wallet"
)

const POLSTAKE = `
    ____  ____  __   _____ ______ ___     __ __ ______
   / __ \/ __ \/ /  / ___//_  __//   |   / //_// ____/
  / /_/ / / / / /   \__ \  / /  / /| |  / ,<  / __/
 / ____/ /_/ / /______/ / / /  / ___ | / /| |/ /___
/_/    \____/_____/____/ /_/  /_/  |_|/_/ |_/_____/`

func main() {
	cmn.InitConfig()

	bus.BusTimeout = cmn.Config.BusTimeout
	bus.BusHardTimeout = cmn.Config.BusHardTimeout

	bus.Init()
	command.Init()
	eth.Init()
	provider.Init()
	wallet.Init()
	chain.Init()
	staking.Init()

	go printLoop(bus.Subscribe("ui"))

	fmt.Println(POLSTAKE)
	fmt.Println("\nv" + cmn.VERSION + " - type 'help' for commands, 'quit' to exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "quit" || input == "exit" {
			break
		}
		if input == "" {
			continue
		}

		bus.Send("ui", "command", input)
	}

	if err := cmn.SaveConfig(); err != nil {
		log.Error().Err(err).Msg("failed to save config")
	}
}

func printLoop(ch chan *bus.Message) {
	for msg := range ch {
		switch msg.Type {
		case "print":
			if s, ok := msg.Data.(string); ok {
				fmt.Println(s)
			}
		case "error", "notify-error":
			if s, ok := msg.Data.(string); ok {
				fmt.Println("Error: " + s)
			}
		}
	}
}

package command

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/unicorn-dapps/polstake/bus"
)

type CommandProcessFunc func(*Command, string)

type Command struct {
	Command      string
	ShortCommand string
	Usage        string
	Help         string
	Process      CommandProcessFunc
}

var Commands []*Command

func Init() {

	Commands = []*Command{
		NewHelpCommand(),
		NewBalancesCommand(),
		NewStakeCommand(),
		NewUnstakeCommand(),
		NewClaimCommand(),
		NewChainCommand(),
	}

	ch := bus.Subscribe("ui")

	go func() {
		defer bus.Unsubscribe(ch)
		for msg := range ch {
			if msg.Type != "command" {
				continue
			}

			input, ok := msg.Data.(string)
			if !ok {
				continue
			}

			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}

			command := strings.Split(input, " ")[0]
			log.Trace().Msgf("Processing command: %s", command)

			found := false
			for _, cmd := range Commands {
				if cmd.Command == command || cmd.ShortCommand == command {
					cmd.Process(cmd, input)
					found = true
					break
				}
			}

			if !found {
				bus.Send("ui", "error", "Unknown command: "+command+" (try 'help')")
			}
		}
	}()
}

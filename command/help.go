package command

import (
	"strings"

	"github.com/unicorn-dapps/polstake/bus"
)

func NewHelpCommand() *Command {
	return &Command{
		Command:      "help",
		ShortCommand: "h",
		Usage: `
Usage: help [COMMAND]

Show help for a command, or list all commands
`,
		Help:    `Show help`,
		Process: Help_Process,
	}
}

func Help_Process(c *Command, input string) {
	p := strings.Fields(input)

	if len(p) > 1 {
		for _, cmd := range Commands {
			if cmd.Command == p[1] || cmd.ShortCommand == p[1] {
				bus.Send("ui", "print", cmd.Usage)
				return
			}
		}
		bus.Send("ui", "error", "Unknown command: "+p[1])
		return
	}

	var sb strings.Builder
	sb.WriteString("Commands:\n")
	for _, cmd := range Commands {
		sb.WriteString("  " + cmd.Command + " (" + cmd.ShortCommand + ") - " + cmd.Help + "\n")
	}
	bus.Send("ui", "print", sb.String())
}

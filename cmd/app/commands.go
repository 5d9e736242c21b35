package main

import (
	"github.com/urfave/cli/v3"
)

// Help categories of the top-level commands.
const (
	categorySystem = "system"
	categoryKeys   = "partition keys"
	categoryAuth   = "api keys and tokens"
)

func getCommands(version string) []*cli.Command {
	var cmds []*cli.Command
	cmds = append(cmds, withCategory(categorySystem, getSystemCommands(version))...)
	cmds = append(cmds, withCategory(categoryKeys, getKeyCommands())...)
	cmds = append(cmds, withCategory(categoryAuth, getAuthCommands())...)
	return cmds
}

func withCategory(category string, cmds []*cli.Command) []*cli.Command {
	for _, cmd := range cmds {
		cmd.Category = category
	}
	return cmds
}

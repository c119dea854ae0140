package main

import (
	"os"

	"github.com/TheusHen/saltchannel/cmd/saltchan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

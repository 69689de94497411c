// main is the entry point for the repopulse CLI.
package main

import (
	"os"

	"github.com/repopulse/repopulse/cmd"
)

func main() {
	err := cmd.Execute()
	cmd.Cleanup()
	if err != nil {
		os.Exit(1)
	}
}

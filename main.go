// ./main.go
package main

import (
	"github.com/intellisa/iacsec/cmd"
)

// main is the entry point for the iacsec CLI.
func main() {
	// Execute the root command defined in the cmd package.
	// All parsing, configuration, and pipeline wiring happens there.
	cmd.Execute()
}

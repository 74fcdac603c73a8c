package main

import (
	"github.com/bocado-ai/gate/cmd/cli"
)

// main delegates to the cli package.
func main() {
	cli.Execute()
}

// Command goupil is the CLI entry point; all behavior lives behind the
// Cobra root command in cmd/root.go.
package main

import (
	"github.com/goupil-project/goupil/cmd"
)

func main() {
	cmd.Execute()
}

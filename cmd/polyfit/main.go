// Command polyfit fits dense networks to a noisy quintic and renders the
// results as an HTML page.
//
// To run the experiment: `go run ./cmd/polyfit run --page=polyfit.html`
//
// To dump the generated dataset: `go run ./cmd/polyfit dataset --out=polyfit-data.npz`
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&RunCommand{}, "")
	subcommands.Register(&DatasetCommand{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

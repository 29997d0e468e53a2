package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hobbynet/hobnet/internal/app"
	"github.com/hobbynet/hobnet/internal/profile"
	"github.com/hobbynet/hobnet/internal/tui"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var ui *tui.App
	fxApp := fx.New(
		app.Module(app.Params{ProfileName: name}),
		fx.Provide(tui.New),
		fx.Populate(&ui),
		// fx's own startup chatter would land on the TUI screen.
		fx.NopLogger,
	)

	ctx := context.Background()
	if err := fxApp.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runErr := ui.Run()
	_ = fxApp.Stop(ctx)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/matheus3301/chatwire/internal/app"
	"github.com/matheus3301/chatwire/internal/tui"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	serverFlag := flag.String("server", "", "backend base url (overrides $CHATWIRE_SERVER and config)")
	flag.Parse()

	params, err := app.Resolve(*profileFlag, *serverFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	// Log lines on stderr would tear the screen.
	params.Quiet = true

	var a *app.App
	fxApp := fx.New(app.Module(params), fx.NopLogger, fx.Populate(&a))

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err = fxApp.Start(startCtx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	runErr := tui.NewApp(a, params.Config.Server.BaseURL).Run(context.Background())

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}

// Stotisd is the ground-station daemon. It plans satellite passes from a TLE
// catalog, steers the antenna rotator over a serial link, drives SatDump for
// the radio capture, and serves the web control surface. Shutdown is handled
// gracefully on SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/palydovai/stotis/internal/app"
	"github.com/palydovai/stotis/internal/tle"
)

func main() {
	var (
		baseDir     = pflag.StringP("base", "b", ".", "Base directory for settings, catalog, pages, and the gallery")
		menu        = pflag.Bool("menu", false, "Offer the console satellite-list editor at startup")
		showVersion = pflag.BoolP("version", "V", false, "Print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Printf("stotisd %s (built %s)\n", app.Version, app.BuiltAt)
		return
	}

	logger := log.New(os.Stdout, "stotisd ", log.LstdFlags|log.Lmicroseconds)

	a := app.New(app.Options{
		BaseDir: *baseDir,
		Logger:  logger,
		Menu:    *menu,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		if errors.Is(err, tle.ErrNoTLE) {
			logger.Printf("stotisd cannot start: %v", err)
			os.Exit(1)
		}
		logger.Fatalf("stotisd failed: %v", err)
	}

	// Brief pause so in-flight log writes can flush before exit.
	time.Sleep(50 * time.Millisecond)
}

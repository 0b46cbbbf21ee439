package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"rtcollector/internal/app"
)

var (
	configPath = kingpin.Flag("config", "Path to the YAML configuration file.").Default("config.yaml").String()
	debug      = kingpin.Flag("debug", "With --once, print every collected metric and log record and log a summary of the cycle's counts and flush outcome.").Short('d').Bool()
	once       = kingpin.Flag("once", "Run exactly one collect-and-flush cycle, then exit.").Bool()
)

func main() {
	kingpin.Parse()

	application, err := app.New(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rtcollector: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *once {
		os.Exit(application.RunOnce(ctx, *debug))
	}

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "rtcollector: %v\n", err)
		os.Exit(1)
	}
}

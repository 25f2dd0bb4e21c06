package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/regionfactory/internal/bridge"
	"github.com/vk/regionfactory/internal/cli"
)

// main is the entrypoint for the regionctl application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	err := run(os.Stdout, os.Stderr, os.Args[1:])
	// The foreign runtime, if it was started, is finalized exactly once here.
	bridge.Exit()

	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW, logW io.Writer, args []string) error {
	return cli.Execute(context.Background(), outW, logW, args)
}

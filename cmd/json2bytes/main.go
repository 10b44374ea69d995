package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacoelho/json2bytes/internal/config"
	"github.com/jacoelho/json2bytes/internal/exit"
	"github.com/jacoelho/json2bytes/internal/extract"
)

func main() {
	// A closed stdout surfaces as EPIPE from Write instead of killing the process.
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)

	exitCode := run(os.Args, os.Stdin, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, exitResult := config.Parse(args)
	if exitResult != nil {
		exitResult.Print(stdout, stderr)
		return exitResult.ExitCode
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	e, err := extract.New(cfg, extract.Streams{
		Stdin:  stdin,
		Stdout: stdout,
		Logger: logger,
	})
	if err != nil {
		exitResult = exit.Usagef("Error: %v\n", err)
		exitResult.Print(stdout, stderr)
		return exitResult.ExitCode
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := e.Run(ctx); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			logger.Debug("output closed by reader")
			return exit.CodeSuccess
		}

		exitResult = exit.Errorf("Error: %v\n", err)
		exitResult.Print(stdout, stderr)
		return exitResult.ExitCode
	}

	return exit.CodeSuccess
}

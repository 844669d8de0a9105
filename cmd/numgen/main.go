// Package main provides the numgen command-line tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	numgencmd "pkg.jsn.cam/numgen/internal/cmd/numgen"
)

func main() {
	log.SetPrefix("[NUMGEN] ")

	cfg, err := numgencmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		exitf("Error: %v", err)
	}
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	confirm := numgencmd.TerminalConfirmer{In: os.Stdin, Out: os.Stderr}
	err = numgencmd.Run(ctx, cfg, confirm, os.Stdout, os.Stderr)
	stop()

	switch {
	case errors.Is(err, numgencmd.ErrAborted):
		exitf("Aborting")
	case err != nil:
		exitf("Error: %v", err)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// Command fable compiles or loads a story and executes one message,
// printing the narrative to stdout.
package main

import (
	"context"
	"log"
	"os"

	"go.nightjar.dev/fable/cli"
	"go.nightjar.dev/fable/logs"
	"go.nightjar.dev/fable/msg"
	"go.nightjar.dev/fable/world"
)

func main() {
	cfg, err := cli.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse cli config: %s.", err)
	}
	level, err := logs.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to parse log level: %s.", err)
	}
	logger, err := logs.New(os.Stderr, level, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to set up logging: %s.", err)
	}

	ps, addrs, err := cfg.OpenStore(logger)
	if err != nil {
		log.Fatalf("Failed to load story: %s.", err)
	}
	addr, err := cfg.StartAddress(addrs)
	if err != nil {
		log.Fatalf("Failed to resolve start message: %s.", err)
	}

	w := world.New(os.Stdout, cfg.Verb, logger)
	m := msg.New(ps, w, logger)
	m.MaxSteps = cfg.MaxSteps
	m.MaxDepth = cfg.MaxDepth

	res := m.ExecuteMessage(context.Background(), addr)
	logger.Info("execution finished",
		"reason", res.Reason.String(), "steps", res.Steps, "pages", ps.Loads)
	if res.Reason != msg.EndOfMessage {
		os.Exit(1)
	}
}

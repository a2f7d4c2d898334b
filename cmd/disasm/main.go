// Command disasm prints a listing of one message, or of every message
// when the story came from a script with an address table.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"go.nightjar.dev/fable/cli"
	"go.nightjar.dev/fable/disasm"
	"go.nightjar.dev/fable/logs"
)

func main() {
	cfg, err := cli.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse cli config: %s.", err)
	}
	logger, err := logs.New(os.Stderr, 0, "")
	if err != nil {
		log.Fatalf("Failed to set up logging: %s.", err)
	}
	ps, addrs, err := cfg.OpenStore(logger)
	if err != nil {
		log.Fatalf("Failed to load story: %s.", err)
	}

	// With an address table and the default start message, list
	// everything; otherwise list just the requested message.
	if len(addrs) > 0 && cfg.Message == "start" {
		names := make([]string, 0, len(addrs))
		for name := range addrs {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return addrs[names[i]] < addrs[names[j]] })
		for _, name := range names {
			lines, err := disasm.Message(ps, addrs[name])
			if err != nil {
				log.Fatalf("Failed to disassemble %q: %s.", name, err)
			}
			fmt.Printf("; %s\n%s\n", name, disasm.Format(lines))
		}
		return
	}

	addr, err := cfg.StartAddress(addrs)
	if err != nil {
		log.Fatalf("Failed to resolve message: %s.", err)
	}
	lines, err := disasm.Message(ps, addr)
	if err != nil {
		log.Fatalf("Failed to disassemble: %s.", err)
	}
	fmt.Print(disasm.Format(lines))
}

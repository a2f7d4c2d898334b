// Command mkstory compiles a story script into the paged story format.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.nightjar.dev/fable/asm"
)

func main() {
	output := flag.String("o", "", "output file (default: input with .msg extension)")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("Usage: mkstory [-o out.msg] story.fable")
	}
	input := flag.Arg(0)

	data, err := os.ReadFile(input)
	if err != nil {
		log.Fatalf("Failed to read %q: %s.", input, err)
	}
	story, err := asm.Compile(input, string(data))
	if err != nil {
		log.Fatalf("Failed to compile: %s.", err)
	}
	encoded, err := story.Encode()
	if err != nil {
		log.Fatalf("Failed to encode: %s.", err)
	}

	out := *output
	if out == "" {
		out = strings.TrimSuffix(input, ".fable") + ".msg"
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		log.Fatalf("Failed to write %q: %s.", out, err)
	}

	addrs, err := story.Addresses()
	if err != nil {
		log.Fatalf("Failed to resolve addresses: %s.", err)
	}
	fmt.Printf("%s: %d bytes, %d messages\n", out, len(encoded), len(addrs))
	for name, addr := range addrs {
		fmt.Printf("  %04x  %s\n", addr, name)
	}
}

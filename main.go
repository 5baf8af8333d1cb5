// This is the main driver for the compiler.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go6809/cc6809/compiler"
	"github.com/go6809/cc6809/config"
)

func main() {
	tokens := flag.Bool("T", false, "Enable token-level tracing.")
	syntax := flag.Bool("S", false, "Enable syntax-tree tracing.")
	configPath := flag.String("config", "", "Path to a TOML configuration file (defaults to cc6809.toml if present).")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-T] [-S] [-config PATH] <source-path> [source-path...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if len(flag.Args()) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "cc6809: %s\n", err)
		os.Exit(1)
	}

	for _, path := range flag.Args() {
		comp := compiler.New(path, cfg)
		comp.SetTokenTrace(*tokens)
		comp.SetSyntaxTrace(*syntax)

		diags, err := comp.Compile()
		if err != nil {
			fmt.Fprintf(os.Stderr, "cc6809: %s\n", err)
			continue
		}
		if diags.HasErrors() {
			fmt.Fprint(os.Stderr, diags.String())
		}
	}
}

package main

import (
	"flag"
	"log"

	"github.com/danmuck/vostok/internal/config"
)

func main() {
	kind := flag.String("kind", config.KindClient, "config kind: client|targets")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing targets file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		if *kind != config.KindTargets {
			log.Fatalf("validation supports kind=%s; check client configs with vostokctl -check", config.KindTargets)
		}
		path := *input
		if path == "" {
			path = mustDefaultPath(*kind)
		}
		cfg, err := config.LoadTargets(path)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %d targets at %s", len(cfg.Targets), path)
		return
	}

	target := *output
	if target == "" {
		target = mustDefaultPath(*kind)
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}

func mustDefaultPath(kind string) string {
	path, err := config.DefaultPath(kind)
	if err != nil {
		log.Fatal(err)
	}
	return path
}

package main

import (
	"context"
	"flag"
	"log"

	"lectern/internal/config"
	"lectern/internal/daemon"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemon.Run(context.Background(), cfg); err != nil {
		log.Fatalf("lecternd: %v", err)
	}
}

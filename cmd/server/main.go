package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"beacon/internal/config"
	"beacon/internal/server"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	s, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	s.Run()
}

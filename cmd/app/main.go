package main

import (
	"github.com/ds124wfegd/ticket-marketplace/config"
	"github.com/ds124wfegd/ticket-marketplace/internal/appServer"

	"github.com/sirupsen/logrus"
)

func main() {
	v, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	cfg, err := config.ParseConfig(v)
	if err != nil {
		logrus.Fatalf("Failed to parse config: %v", err)
	}

	if err := appServer.NewServer(cfg); err != nil {
		logrus.Fatalf("Server stopped with error: %v", err)
	}
}

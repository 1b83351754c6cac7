// Command sadoo-mcp serves saved sadoo transcripts over the Model Context
// Protocol on stdio.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jwulff/sadoo/internal/config"
	"github.com/jwulff/sadoo/internal/db"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sadoo-mcp:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file")
	dbPath := flag.String("db", "", "database path (default from config)")
	flag.Parse()

	config.LoadDefaultEnv()
	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	s := server.NewMCPServer("sadoo", version, server.WithToolCapabilities(false))
	register(s, &tools{store: store})
	return server.ServeStdio(s)
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/TheGoodall/forum/internal/app"
	"github.com/TheGoodall/forum/pkg/config"
	"github.com/TheGoodall/forum/pkg/logger"
	"github.com/TheGoodall/forum/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var version = "dev"

func main() {
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	// file flag wins over env for the config path
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// flags win over config/env when provided by the user
	if setFlags["addr"] {
		host, port := splitAddr(addrVal)
		cfg.Server.Address = host
		cfg.Server.Port = port
	}
	if setFlags["db"] || cfg.Server.DBPath == "" {
		cfg.Server.DBPath = dbVal
	}

	logger.InitWithLevel(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		shutdown.Abort("invalid configuration", err, cfg.Server.DBPath)
	}

	a, err := app.New(cfg, version, configSource(setFlags, envUsed))
	if err != nil {
		shutdown.Abort("startup failed", err, cfg.Server.DBPath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err, cfg.Server.DBPath)
	}
	logger.Info("exit_clean")
}

func splitAddr(addr string) (string, int) {
	host := addr
	port := 0
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		host = addr[:i]
		fmt.Sscanf(addr[i+1:], "%d", &port)
	}
	return host, port
}

func configSource(setFlags map[string]bool, envUsed bool) string {
	var srcs []string
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	srcs = append(srcs, "config")
	return strings.Join(srcs, "+")
}

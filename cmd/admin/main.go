package main

import (
	"context"
	"os"

	"printshop-scheduler/internal/config"
	"printshop-scheduler/internal/logging"
	"printshop-scheduler/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.L().Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.Init(logging.Options{Env: cfg.Env, RollbarToken: cfg.RollbarToken, CodeVersion: cfg.Build})
	defer logging.Flush()

	ctx := context.Background()
	st, pool, err := store.Open(ctx, cfg.DatabaseURL, "")
	if err != nil {
		log.Error("store", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	cli := commandLine{
		store:   st,
		migrate: func(ctx context.Context) error { return st.Migrate(ctx, cfg.MigrationsPath) },
		secret:  cfg.JWTSecret,
		out:     os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			log.Error("admin", "command", os.Args[1:], "error", err)
		}
		pool.Close()
		os.Exit(1)
	}
}

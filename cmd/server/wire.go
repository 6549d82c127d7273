package main

import (
	"context"
	"encoding/json"
	"net/http"

	"printshop-scheduler/internal/account"
	"printshop-scheduler/internal/config"
	"printshop-scheduler/internal/files"
	"printshop-scheduler/internal/logging"
	"printshop-scheduler/internal/notify"
	"printshop-scheduler/internal/store"
	"printshop-scheduler/internal/store/memstore"
	"printshop-scheduler/internal/worker"
	"printshop-scheduler/internal/workflow"
)

type appStore interface {
	account.Store
	workflow.Store
}

func openStore(ctx context.Context, cfg config.Config) (appStore, func(), error) {
	if cfg.StoreDriver == "memory" {
		logging.L().Warn("using in-memory store; data is lost on exit")
		return memstore.New(), func() {}, nil
	}
	st, pool, err := store.Open(ctx, cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		return nil, nil, err
	}
	return st, pool.Close, nil
}

func openFiles(cfg config.Files) (files.Store, error) {
	if cfg.Driver == "s3" {
		return files.NewS3Store(files.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return files.NewLocalStore(cfg.BasePath)
}

func openTransport(cfg config.Mail) (notify.Transport, func(), error) {
	noop := func() {}
	switch cfg.Transport {
	case "smtp":
		return notify.NewSMTPTransport(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}), noop, nil
	case "sendgrid":
		return notify.NewSendgridTransport(cfg.SendgridAPIKey), noop, nil
	case "amqp":
		t, err := notify.NewAMQPTransport(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, err
		}
		return t, func() { _ = t.Close() }, nil
	}
	return notify.LogTransport{}, noop, nil
}

func healthz(pool *worker.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"worker": pool.Stats(),
		})
	}
}

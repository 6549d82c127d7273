package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"printshop-scheduler/internal/account"
	"printshop-scheduler/internal/config"
	gweb "printshop-scheduler/internal/grpcweb"
	"printshop-scheduler/internal/handler"
	"printshop-scheduler/internal/logging"
	"printshop-scheduler/internal/middleware"
	"printshop-scheduler/internal/notify"
	"printshop-scheduler/internal/worker"
	"printshop-scheduler/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger not configured yet
		logging.L().Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.Init(logging.Options{Env: cfg.Env, RollbarToken: cfg.RollbarToken, CodeVersion: cfg.Build})
	defer logging.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// storage
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	fs, err := openFiles(cfg.Files)
	if err != nil {
		log.Error("files", "driver", cfg.Files.Driver, "error", err)
		os.Exit(1)
	}

	transport, closeTransport, err := openTransport(cfg.Mail)
	if err != nil {
		log.Error("mail transport", "transport", cfg.Mail.Transport, "error", err)
		os.Exit(1)
	}
	defer closeTransport()

	// background work
	pool := worker.New(worker.Config{
		Workers:     cfg.Pool.Workers,
		QueueSize:   cfg.Pool.QueueSize,
		TaskTimeout: cfg.Pool.TaskTimeout,
	})

	var prober notify.Prober = notify.MXProber{}
	if cfg.Mail.SkipProbe {
		prober = nil
	}
	dir := account.New(st, prober)
	disp := notify.NewDispatcher(transport, pool, cfg.Mail.From, cfg.Mail.SubjectPrefix)
	engine := workflow.New(st, dir, fs, pool, disp, workflow.WithMaxFileBytes(cfg.Files.MaxBytes))
	h := handler.New(engine, dir)

	// grpc server
	rl := middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(int(cfg.Files.MaxBytes)*2),
		grpc.ChainUnaryInterceptor(
			middleware.RequestID(),
			middleware.Auth(cfg.JWTSecret, cfg.InstitutionDomain),
			middleware.RateLimit(rl),
		),
	)
	handler.Register(srv, h)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(handler.ServiceName, healthpb.HealthCheckResponse_SERVING)

	// start grpc on TCP
	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		log.Error("listen", "port", cfg.Port, "error", err)
		os.Exit(1)
	}
	go func() {
		log.Info("grpc listening", "port", cfg.Port)
		if err := srv.Serve(lis); err != nil {
			log.Error("grpc", "error", err)
		}
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.Port, cfg.Files.MaxBytes*2)
	if err != nil {
		log.Error("bridge", "error", err)
		os.Exit(1)
	}
	defer bridge.Close()

	mux := http.NewServeMux()
	mux.Handle("/", bridge.Handler())
	mux.HandleFunc("/healthz", healthz(pool))
	httpSrv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("grpc-web listening", "port", cfg.WebPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http", "error", err)
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	log.Info("shutting down")
	hs.Shutdown()
	srv.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Pool.TaskTimeout+5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Warn("worker pool did not drain", "error", err)
	}
	s := pool.Stats()
	log.Info("stopped", "submitted", s.Submitted, "succeeded", s.Succeeded, "failed", s.Failed, "dropped", s.Dropped)
}

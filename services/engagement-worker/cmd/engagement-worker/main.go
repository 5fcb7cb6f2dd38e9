package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pakholyuk-Maria/email-campaign-bi/internal/store"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/config"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/db"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/logx"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/metrics"
	"github.com/Pakholyuk-Maria/email-campaign-bi/pkg/rmq"
	"github.com/Pakholyuk-Maria/email-campaign-bi/services/engagement-worker/worker"
)

func main() {
	logx.Init()
	logx.With("engagement-worker")
	defer logx.Sync()

	config.MustLoadWorker()
	cfg := config.Worker

	sqlDB, err := db.Open(cfg.DBDSN)
	if err != nil {
		logx.L().Fatalw("db_open_error", "error", err)
	}
	defer sqlDB.Close()

	cons, err := rmq.NewConsumer(cfg.RMQURL, cfg.Queue)
	if err != nil {
		logx.L().Fatalw("rmq_consumer_init_error", "error", err)
	}
	defer cons.Close()

	pub, err := rmq.NewPublisher(cfg.RMQURL, cfg.Queue)
	if err != nil {
		logx.L().Fatalw("rmq_publisher_init_error", "error", err)
	}
	defer pub.Close()

	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: metrics.Handler()}
	go func() {
		logx.L().Infow("metrics_listen_start", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.L().Errorw("metrics_server_error", "error", err)
		}
	}()

	w := worker.New(store.New(sqlDB), cons, pub, cfg.ReportTZ, cfg.MaxRetries)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logx.L().Errorw("worker_run_error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	logx.L().Infow("engagement-worker stopped gracefully")
}

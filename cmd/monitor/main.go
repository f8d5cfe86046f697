package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/tablewatch/internal/check"
	"github.com/hamed0406/tablewatch/internal/config"
	"github.com/hamed0406/tablewatch/internal/httpapi"
	"github.com/hamed0406/tablewatch/internal/logging"
	"github.com/hamed0406/tablewatch/internal/monitor"
	"github.com/hamed0406/tablewatch/internal/notify"
)

func main() {
	bootLog, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.FromEnv(bootLog)
	if err != nil {
		bootLog.Fatal("config_error", zap.Error(err))
	}

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if len(cfg.Checks) == 0 {
		logger.Error("no_checks_configured")
		fmt.Fprintln(os.Stderr, "no checks configured; run 'preflight --template' for the expected environment")
		os.Exit(1)
	}

	var notifier notify.Notifier = notify.NewSMTP(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
	})
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		notifier = notify.Multi{notifier, slack}
	}

	mon := monitor.New(logger, cfg.Checks, check.Default(cfg.CheckTimeout), notifier, monitor.Config{
		Interval:       cfg.Interval,
		CooldownWindow: cfg.Cooldown,
	})

	logger.Info("initial_pass", zap.Int("checks", len(cfg.Checks)))
	mon.RunOnce(context.Background())
	mon.Start()

	api := httpapi.NewServer(logger, mon)
	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router()}
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("api_listen_error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	statusTick := time.NewTicker(time.Minute)
	defer statusTick.Stop()

	for {
		select {
		case <-statusTick.C:
			st := mon.Status()
			logger.Info("monitor_status",
				zap.Bool("running", st.Running),
				zap.Int("checks", st.DescriptorCount),
				zap.String("interval", st.Interval),
			)
		case <-sig:
			logger.Info("shutting_down")
			mon.Stop()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = srv.Shutdown(ctx)
			cancel()
			return
		}
	}
}

// paykitd is the owner-side daemon: it verifies payment notifications into
// time-bounded read grants and sweeps expired grants, on cron cadences.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/paykit/config"
	ethledger "github.com/open-rails/paykit/ledger/eth"
	"github.com/open-rails/paykit/solid"
	"github.com/open-rails/paykit/status"
	"github.com/open-rails/paykit/tasks"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	log := logrus.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	log.SetLevel(cfg.LogLevel())
	log.WithFields(logrus.Fields{
		"owner":              cfg.Owner.WebID,
		"processor_schedule": cfg.Schedule.Processor,
		"sweeper_schedule":   cfg.Schedule.Sweeper,
	}).Info("paykitd starting")

	ctx := context.Background()

	session, err := solid.NewSession(ctx, solid.SessionConfig{
		TokenURL:     cfg.Solid.TokenURL,
		ClientID:     cfg.Solid.ClientID,
		ClientSecret: cfg.Solid.ClientSecret,
		WebID:        cfg.Owner.WebID,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open pod session")
	}
	pod := solid.NewClient(session, log)

	led, err := ethledger.Dial(ctx, cfg.Chain.RPCURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to ledger node")
	}
	defer led.Close()

	processor := tasks.NewProcessor(pod, led, cfg.Owner.WebID, cfg.Owner.InboxURL, cfg.Owner.OffersURL, log)
	sweeper := tasks.NewSweeper(pod, cfg.Owner.WebID, cfg.Owner.PrivateURL, log)

	scheduler := tasks.NewScheduler(log)
	if err := scheduler.Add(cfg.Schedule.Processor, processor); err != nil {
		log.WithError(err).Fatal("failed to schedule processor")
	}
	if err := scheduler.Add(cfg.Schedule.Sweeper, sweeper); err != nil {
		log.WithError(err).Fatal("failed to schedule sweeper")
	}
	scheduler.Start()

	if cfg.Status.Port > 0 {
		router := status.NewRouter(processor, sweeper)
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Status.Port)
			if err := router.Run(addr); err != nil {
				log.WithError(err).Error("status server stopped")
			}
		}()
		log.WithField("port", cfg.Status.Port).Info("status server listening")
	}

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	log.Info("shutting down, waiting for in-flight ticks")
	<-scheduler.Stop().Done()
	log.Info("paykitd stopped")
}

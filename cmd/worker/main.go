package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/address-dedupe/app/bootstrap"
	"github.com/address-dedupe/app/config"
	"go.uber.org/zap"
)

// pollTimeout bounds each blocking dequeue so shutdown is noticed.
const pollTimeout = 5 * time.Second

func main() {
	if err := bootstrap.LoadConfig(); err != nil {
		log.Fatal("Cannot load dedupe config:", err)
	}

	logger := bootstrap.InitLogger()
	defer logger.Sync()

	logger.Info("Starting Address Dedupe Worker...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, config.C, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer app.Close()

	if app.Queue == nil {
		logger.Fatal("Worker needs Redis for the job queue; set REDIS_URL")
	}

	for {
		id, err := app.Queue.Dequeue(ctx, pollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			logger.Error("Failed to dequeue job", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if id == "" {
			continue
		}

		logger.Info("Running job", zap.String("job_id", id))
		start := time.Now()
		if err := app.Dedupe.RunJob(ctx, id); err != nil {
			logger.Error("Job failed", zap.String("job_id", id), zap.Error(err))
			continue
		}
		logger.Info("Job done", zap.String("job_id", id), zap.Duration("duration", time.Since(start)))
	}

	logger.Info("Worker exited")
}

package scheduler

import (
	"context"
	"fmt"

	"mapshare_backend/platform/config"
	"mapshare_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ImagePurger removes the stored images of one map.
type ImagePurger interface {
	PurgeMapImages(ctx context.Context, mapID uuid.UUID) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	images ImagePurger
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, images ImagePurger, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		images: images,
		log:    log,
	}

	mux.HandleFunc(TaskPurgeMapImages, w.handlePurgeMapImages)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handlePurgeMapImages(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePurgeMapImagesPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	mapID, err := uuid.Parse(payload.MapID)
	if err != nil {
		return fmt.Errorf("invalid map id %q: %w", payload.MapID, asynq.SkipRetry)
	}

	if w.images == nil {
		return nil
	}
	return w.images.PurgeMapImages(ctx, mapID)
}

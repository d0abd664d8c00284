package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/config"
	"github.com/stemsi/examportal-backend/internal/metrics"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/store"
)

const resultPollTimeout = time.Second

// Retry outcomes, used as the metric label.
const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeRequeued  = "requeued"
	OutcomeDropped   = "dropped"
)

// Recoverer is told when a queued result has reached storage so the
// blocked attempt behind it can complete.
type Recoverer interface {
	Recover(ctx context.Context, examID, studentID string)
}

// RedisResultQueue pushes failed result writes onto persist_results_queue.
type RedisResultQueue struct {
	rdb *redis.Client
}

// NewRedisResultQueue creates a new RedisResultQueue.
func NewRedisResultQueue(rdb *redis.Client) *RedisResultQueue {
	return &RedisResultQueue{rdb: rdb}
}

// Enqueue appends one job to the tail of the queue.
func (q *RedisResultQueue) Enqueue(ctx context.Context, job model.PersistJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err()
}

// ResultWorker consumes persist_results_queue and retries each write until
// it is stored, turns out to be stored already, or runs out of attempts.
type ResultWorker struct {
	rdb         *redis.Client
	results     store.ResultStore
	recoverer   Recoverer
	metrics     *metrics.Metrics
	retryDelay  time.Duration
	maxAttempts int
	log         zerolog.Logger
}

// NewResultWorker creates a new ResultWorker. recoverer may be nil.
func NewResultWorker(
	rdb *redis.Client,
	results store.ResultStore,
	recoverer Recoverer,
	m *metrics.Metrics,
	retryDelay time.Duration,
	maxAttempts int,
	log zerolog.Logger,
) *ResultWorker {
	return &ResultWorker{
		rdb:         rdb,
		results:     results,
		recoverer:   recoverer,
		metrics:     m,
		retryDelay:  retryDelay,
		maxAttempts: maxAttempts,
		log:         log.With().Str("component", "result_worker").Logger(),
	}
}

// Start begins the worker loop. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ResultWorker) processNext(ctx context.Context) {
	item, err := w.rdb.BLPop(ctx, resultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(item) < 2 {
		return
	}

	var job model.PersistJob
	if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	if w.Process(ctx, &job) != OutcomeRequeued {
		return
	}

	raw, err := json.Marshal(job)
	if err != nil {
		w.log.Error().Err(err).Msg("Failed to marshal requeued job")
		return
	}
	if err := w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Str("exam_id", job.ExamID).Str("student_id", job.StudentID).Msg("Requeue failed, job lost")
		return
	}

	select {
	case <-ctx.Done():
	case <-time.After(w.retryDelay):
	}
}

// Process attempts one write and reports the outcome. On OutcomeRequeued the
// job's attempt counter has been advanced and the caller must put it back.
func (w *ResultWorker) Process(ctx context.Context, job *model.PersistJob) string {
	logger := w.log.With().Str("exam_id", job.ExamID).Str("student_id", job.StudentID).Logger()

	outcome := OutcomeStored
	err := w.results.Create(ctx, job.ExamID, job.StudentID, &job.Result)
	switch {
	case err == nil:
		logger.Info().Int("score", job.Result.Score).Int("attempts", job.Attempts+1).Msg("Queued result stored")
	case errors.Is(err, store.ErrDuplicate):
		outcome = OutcomeDuplicate
		logger.Warn().Msg("Result already stored, dropping queued copy")
	default:
		job.Attempts++
		if job.Attempts >= w.maxAttempts {
			outcome = OutcomeDropped
			logger.Error().Err(err).Int("attempts", job.Attempts).Msg("Giving up on queued result")
		} else {
			outcome = OutcomeRequeued
			logger.Warn().Err(err).Int("attempts", job.Attempts).Msg("Result write failed, requeueing")
		}
	}

	w.metrics.ResultRetries.WithLabelValues(outcome).Inc()
	if (outcome == OutcomeStored || outcome == OutcomeDuplicate) && w.recoverer != nil {
		w.recoverer.Recover(ctx, job.ExamID, job.StudentID)
	}
	return outcome
}

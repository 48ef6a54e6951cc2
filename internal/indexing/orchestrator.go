// Package indexing drives a video from upload to a queryable state on the
// remote provider: stage the bytes, create an index, submit the task, and
// poll until the task is terminal or the deadline passes.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/JaimeStill/warden/internal/gateway"
	"github.com/JaimeStill/warden/pkg/storage"
)

var errStillRunning = errors.New("task still running")

// Orchestrator runs indexing jobs. It holds no per-job state and is safe for
// concurrent use.
type Orchestrator struct {
	gateway     gateway.Gateway
	store       storage.System
	indexPrefix string
	interval    time.Duration
	deadline    time.Duration
	logger      *slog.Logger
}

// New creates an Orchestrator from a finalized Config.
func New(gw gateway.Gateway, store storage.System, cfg *Config, indexPrefix string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gateway:     gw,
		store:       store,
		indexPrefix: indexPrefix,
		interval:    cfg.PollIntervalDuration(),
		deadline:    cfg.DeadlineDuration(),
		logger:      logger.With("system", "indexing"),
	}
}

// Run indexes one video and blocks until the job is terminal. The returned Job
// reflects the last state reached, including on error. At most one index is
// created per call, and the staged upload is released on every exit path.
//
// Errors are gateway.ErrUnavailable, gateway.ErrRejected, ErrIndexingFailed,
// ErrIndexingTimeout, or a staging failure. Cancelling ctx while polling is
// reported as ErrIndexingTimeout.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Job, error) {
	job := Job{IndexID: req.IndexID, State: StateCreated}

	key := stagingKey(req.Filename)
	defer o.release(key)

	if err := o.store.Upload(ctx, key, req.Body, req.ContentType); err != nil {
		return job, fmt.Errorf("stage upload: %w", err)
	}

	if job.IndexID == "" {
		id, err := o.gateway.CreateIndex(ctx, o.indexPrefix)
		if err != nil {
			return job, err
		}
		job.IndexID = id
	}

	taskID, err := o.submit(ctx, job.IndexID, key, req)
	if err != nil {
		return job, err
	}

	job.TaskID = taskID
	job.State = StateSubmitted
	job.SubmittedAt = time.Now()

	o.logger.Info("indexing job submitted", "index_id", job.IndexID, "task_id", taskID)

	return o.poll(ctx, job)
}

func (o *Orchestrator) submit(ctx context.Context, indexID, key string, req Request) (string, error) {
	staged, err := o.store.Download(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open staged upload: %w", err)
	}
	defer staged.Close()

	return o.gateway.SubmitIndexingTask(ctx, indexID, gateway.Upload{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Body:        staged,
	})
}

func (o *Orchestrator) poll(ctx context.Context, job Job) (Job, error) {
	job.State = StatePolling

	pollCtx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	backoff := retry.WithMaxDuration(o.deadline, retry.NewConstant(o.interval))

	err := retry.Do(pollCtx, backoff, func(ctx context.Context) error {
		status, err := o.gateway.PollTask(ctx, job.TaskID)
		job.Polls++
		job.LastPolledAt = time.Now()
		if err != nil {
			return err
		}

		job.LastStatus = status.Status
		o.logger.Debug("task polled", "task_id", job.TaskID, "status", status.Status, "polls", job.Polls)

		if !status.Status.Terminal() {
			return retry.RetryableError(errStillRunning)
		}
		if status.Status == gateway.StatusReady {
			job.VideoID = status.VideoID
		}
		return nil
	})

	switch {
	case err == nil && job.LastStatus == gateway.StatusReady && job.VideoID == "":
		job.State = StateFailed
		o.logger.Warn("indexing job ready without video id", "task_id", job.TaskID)
		return job, fmt.Errorf("%w: task %s ready without a video id", ErrIndexingFailed, job.TaskID)

	case err == nil && job.LastStatus == gateway.StatusReady:
		job.State = StateReady
		o.logger.Info("indexing job ready",
			"index_id", job.IndexID,
			"video_id", job.VideoID,
			"polls", job.Polls,
			"elapsed", time.Since(job.SubmittedAt))
		return job, nil

	case err == nil:
		job.State = StateFailed
		o.logger.Warn("indexing job failed", "task_id", job.TaskID, "status", job.LastStatus)
		return job, fmt.Errorf("%w: task %s ended with status %s", ErrIndexingFailed, job.TaskID, job.LastStatus)

	case errors.Is(err, errStillRunning) || pollCtx.Err() != nil:
		job.State = StateTimedOut
		o.logger.Warn("indexing job timed out",
			"task_id", job.TaskID,
			"status", job.LastStatus,
			"polls", job.Polls,
			"deadline", o.deadline)
		return job, fmt.Errorf("%w: task %s still %s after %s", ErrIndexingTimeout, job.TaskID, job.LastStatus, o.deadline)

	default:
		job.State = StateFailed
		return job, err
	}
}

// release deletes the staged upload. Failure is logged and never fails the job.
func (o *Orchestrator) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := o.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		o.logger.Warn("staged upload release failed", "key", key, "error", err)
	}
}

func stagingKey(filename string) string {
	name := strings.ReplaceAll(path.Base(filename), "..", "_")
	if name == "." || name == "/" || name == "_" {
		name = "video"
	}
	return path.Join("staging", uuid.NewString(), name)
}

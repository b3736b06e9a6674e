// Package job manages the lifecycle of packing jobs.
//
// Small requests run synchronously inside the caller's request; requests
// whose estimated complexity crosses a threshold become asynchronous jobs
// identified by a UUID handle. Job records live in a Store with a TTL so
// abandoned results expire on their own:
//   - memory: in-process storage for development and the CLI
//   - redis: Redis-backed storage for multi-instance deployments
//
// # Usage
//
//	ctrl, err := job.NewController(job.Config{Store: job.NewMemoryStore()})
//	if err != nil {
//	    return err
//	}
//	sub, err := ctrl.Submit(ctx, opts)
//	if sub.Async {
//	    // poll with sub.JobID
//	}
package job

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/alexkibler/sticker-nester/pkg/errors"
	"github.com/alexkibler/sticker-nester/pkg/nest"
	"github.com/alexkibler/sticker-nester/pkg/observability"
)

// Status is the lifecycle state of an asynchronous job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Job is one asynchronous packing job record. Records are persisted as
// whole snapshots on every transition; readers never observe a record
// mid-mutation.
type Job struct {
	ID          string    `json:"jobId"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
	StartedAt   time.Time `json:"startedAt,omitempty"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`

	// Result is set once the job completes successfully.
	Result *nest.Result `json:"result,omitempty"`

	// Error and ErrorCode describe a failed or cancelled job.
	Error     string      `json:"error,omitempty"`
	ErrorCode errors.Code `json:"errorCode,omitempty"`
}

// Expired reports whether the record's TTL has elapsed.
func (j *Job) Expired() bool {
	return time.Now().After(j.ExpiresAt)
}

// Store is the interface for job record storage backends.
type Store interface {
	// Get retrieves a job by ID. Returns nil, nil if the job does not
	// exist or has expired.
	Get(ctx context.Context, jobID string) (*Job, error)

	// Set stores a job snapshot.
	Set(ctx context.Context, job *Job) error

	// Delete removes a job.
	Delete(ctx context.Context, jobID string) error

	// Cleanup removes expired jobs (may be a no-op for Redis, which
	// expires keys natively).
	Cleanup(ctx context.Context) error
}

// Default controller settings.
const (
	// DefaultTTL is how long a finished job record remains retrievable.
	DefaultTTL = 1 * time.Hour

	// DefaultTimeout bounds the runtime of a single packing job.
	DefaultTimeout = 5 * time.Minute

	// DefaultAsyncThreshold is the complexity above which a request is
	// executed asynchronously instead of inside the caller's request.
	DefaultAsyncThreshold = 5000.0
)

// Config configures a Controller.
type Config struct {
	// Store persists job records. Required.
	Store Store

	// AsyncThreshold is the complexity cutoff for asynchronous execution.
	AsyncThreshold float64

	// TTL is the retention period for job records.
	TTL time.Duration

	// Timeout bounds each packing run, synchronous or not.
	Timeout time.Duration

	Logger *log.Logger
}

func (c *Config) validate() error {
	if c.Store == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "job controller requires a store")
	}
	if c.AsyncThreshold == 0 {
		c.AsyncThreshold = DefaultAsyncThreshold
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return nil
}

// Controller routes packing requests to synchronous or asynchronous
// execution and owns the cancellation handles of running jobs.
type Controller struct {
	cfg Config

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewController creates a Controller with the given configuration.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Controller{
		cfg:     cfg,
		cancels: make(map[string]context.CancelFunc),
	}, nil
}

// Submission is the outcome of Submit: either an inline result or a job
// handle to poll.
type Submission struct {
	// Async reports whether the request became a background job.
	Async bool

	// JobID is set when Async is true.
	JobID string

	// Result is set when Async is false.
	Result *nest.Result
}

// Submit validates the request and either runs it inline or enqueues an
// asynchronous job, depending on its estimated complexity.
func (c *Controller) Submit(ctx context.Context, opts nest.Options) (*Submission, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	if opts.Complexity() < c.cfg.AsyncThreshold {
		runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		result, err := nest.Pack(runCtx, opts)
		if err != nil {
			return nil, err
		}
		return &Submission{Result: result}, nil
	}

	return c.enqueue(ctx, opts)
}

// enqueue persists a pending record and starts the job goroutine. The
// goroutine runs on a detached context so it survives the submitting
// request; only the configured timeout and explicit Cancel stop it.
func (c *Controller) enqueue(ctx context.Context, opts nest.Options) (*Submission, error) {
	now := time.Now()
	j := &Job{
		ID:          uuid.NewString(),
		Status:      StatusPending,
		SubmittedAt: now,
		ExpiresAt:   now.Add(c.cfg.TTL),
	}
	if err := c.cfg.Store.Set(ctx, j); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to persist job %s", j.ID)
	}

	runCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	c.mu.Lock()
	c.cancels[j.ID] = cancel
	c.mu.Unlock()

	c.cfg.Logger.Info("job enqueued", "job", j.ID, "complexity", opts.Complexity())
	go c.run(runCtx, j, opts)

	return &Submission{Async: true, JobID: j.ID}, nil
}

// run executes one asynchronous job to a terminal state.
func (c *Controller) run(ctx context.Context, j *Job, opts nest.Options) {
	defer c.release(j.ID)

	start := time.Now()
	j.Status = StatusRunning
	j.StartedAt = start
	c.persist(j)
	observability.Job().OnJobStart(ctx, j.ID, opts.Complexity())

	result, err := nest.Pack(ctx, opts)

	j.CompletedAt = time.Now()
	switch {
	case err == nil:
		j.Status = StatusCompleted
		j.Result = result
	case errors.Is(err, errors.ErrCodeCancelled):
		j.Status = StatusCancelled
		j.Error = errors.UserMessage(err)
		j.ErrorCode = errors.ErrCodeCancelled
	default:
		j.Status = StatusFailed
		j.Error = errors.UserMessage(err)
		j.ErrorCode = errors.GetCode(err)
		if j.ErrorCode == "" {
			j.ErrorCode = errors.ErrCodeInternal
		}
	}
	c.persist(j)

	observability.Job().OnJobComplete(ctx, j.ID, string(j.Status), time.Since(start), err)
	c.cfg.Logger.Info("job finished",
		"job", j.ID, "status", j.Status, "duration", time.Since(start).Round(time.Millisecond))
}

// persist writes the record on a fresh context: the job context may
// already be done when the terminal snapshot is written.
func (c *Controller) persist(j *Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.cfg.Store.Set(ctx, j); err != nil {
		c.cfg.Logger.Error("failed to persist job", "job", j.ID, "err", err)
	}
}

// release cancels and forgets the job's context handle.
func (c *Controller) release(jobID string) {
	c.mu.Lock()
	cancel, ok := c.cancels[jobID]
	delete(c.cancels, jobID)
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

// Poll returns the current record for a job. Unknown and expired jobs
// yield a JOB_NOT_FOUND error.
func (c *Controller) Poll(ctx context.Context, jobID string) (*Job, error) {
	j, err := c.cfg.Store.Get(ctx, jobID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to load job %s", jobID)
	}
	if j == nil {
		return nil, errors.New(errors.ErrCodeJobNotFound, "job %s not found", jobID)
	}
	return j, nil
}

// Cancel stops a pending or running job. Cancelling a job that already
// reached a terminal state is a no-op; unknown jobs yield JOB_NOT_FOUND.
func (c *Controller) Cancel(ctx context.Context, jobID string) error {
	j, err := c.cfg.Store.Get(ctx, jobID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to load job %s", jobID)
	}
	if j == nil {
		return errors.New(errors.ErrCodeJobNotFound, "job %s not found", jobID)
	}
	if j.Status.Terminal() {
		return nil
	}

	c.mu.Lock()
	cancel, ok := c.cancels[jobID]
	c.mu.Unlock()
	if ok {
		// The job goroutine observes the cancellation and writes the
		// terminal snapshot itself.
		cancel()
		c.cfg.Logger.Info("job cancelled", "job", jobID)
		return nil
	}

	// No local handle: the job ran on another instance or its goroutine
	// already exited. Mark the record directly.
	j.Status = StatusCancelled
	j.CompletedAt = time.Now()
	j.ErrorCode = errors.ErrCodeCancelled
	j.Error = "job cancelled"
	if err := c.cfg.Store.Set(ctx, j); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to persist job %s", jobID)
	}
	return nil
}

// Cleanup removes expired records from the store.
func (c *Controller) Cleanup(ctx context.Context) error {
	return c.cfg.Store.Cleanup(ctx)
}

// StartJanitor runs Cleanup on a fixed interval until ctx is done.
func (c *Controller) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Cleanup(ctx); err != nil {
					c.cfg.Logger.Warn("job cleanup failed", "err", err)
				}
			}
		}
	}()
}

// Package bridge implements the marketplace action workflows: publishing,
// pricing, permissioning, compute jobs, and purchase/download. Each inbound
// request is validated, serialized per funding account, executed against
// the chain and provider collaborators, and answered with a typed response.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eightballer/ocean-bridge/internal/logging"
	"github.com/eightballer/ocean-bridge/internal/message"
	"github.com/eightballer/ocean-bridge/internal/metrics"
	"github.com/eightballer/ocean-bridge/internal/ocean"
	"github.com/eightballer/ocean-bridge/internal/retry"
	"github.com/eightballer/ocean-bridge/internal/syncutil"
	"github.com/eightballer/ocean-bridge/internal/traces"
)

// Workflow attempt bounds. Compute payment gets a wider bound because the
// provider-side fee attestation can lag the chain.
const (
	defaultAttempts        = 2
	computePaymentAttempts = 4
)

// Default wait policies.
const (
	DefaultCacheTimeout    = 600 * time.Second
	DefaultCachePoll       = 1 * time.Second
	DefaultJobPollLimit    = 200
	DefaultJobPollInterval = 5 * time.Second
)

// Progress event names broadcast while a workflow runs.
const (
	EventActionStarted   = "action_started"
	EventActionCompleted = "action_completed"
	EventTxSubmitted     = "tx_submitted"
	EventJobStatus       = "job_status"
)

// Emitter receives progress events for realtime fan-out.
type Emitter interface {
	Emit(event string, data map[string]any)
}

type noopEmitter struct{}

func (noopEmitter) Emit(string, map[string]any) {}

// Deps are the marketplace collaborators a Service drives. In production
// all six are the same *ocean.Market plus an *ocean.Aquarius; tests swap in
// counting fakes.
type Deps struct {
	Resolver  ocean.Resolver
	Publisher ocean.Publisher
	Pricing   ocean.Pricing
	Tokens    ocean.Tokens
	Compute   ocean.Compute
	Access    ocean.Access
}

// Service executes bridge actions for one funding account.
type Service struct {
	deps  Deps
	addrs ocean.Addresses
	owner common.Address

	downloadDir string
	logger      *slog.Logger
	emitter     Emitter
	locks       *syncutil.ContextShardedMutex

	cacheTimeout    time.Duration
	cachePoll       time.Duration
	jobPollLimit    int
	jobPollInterval time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithEmitter sets the progress event sink.
func WithEmitter(e Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

// WithDownloadDir sets where purchased files are written.
func WithDownloadDir(dir string) Option {
	return func(s *Service) { s.downloadDir = dir }
}

// WithCacheWait overrides the metadata cache visibility wait policy.
func WithCacheWait(timeout, poll time.Duration) Option {
	return func(s *Service) {
		s.cacheTimeout = timeout
		s.cachePoll = poll
	}
}

// WithJobPoll overrides the compute status polling policy.
func WithJobPoll(limit int, interval time.Duration) Option {
	return func(s *Service) {
		s.jobPollLimit = limit
		s.jobPollInterval = interval
	}
}

// New creates a bridge service for the given funding account.
func New(deps Deps, owner common.Address, addrs ocean.Addresses, opts ...Option) *Service {
	s := &Service{
		deps:            deps,
		addrs:           addrs,
		owner:           owner,
		downloadDir:     "./downloads",
		logger:          slog.Default(),
		emitter:         noopEmitter{},
		locks:           syncutil.NewContextShardedMutex(),
		cacheTimeout:    DefaultCacheTimeout,
		cachePoll:       DefaultCachePoll,
		jobPollLimit:    DefaultJobPollLimit,
		jobPollInterval: DefaultJobPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle validates and executes one action request. Requests against the
// same funding account are serialized; validation failures return before
// the lock is taken and before any side effect.
func (s *Service) Handle(ctx context.Context, req message.Request) (*message.Response, error) {
	if verr := req.Validate(); verr != nil {
		return nil, verr
	}

	ctx = logging.WithAction(ctx, req.Kind())

	unlock, err := s.locks.LockContext(ctx, s.owner.Hex())
	if err != nil {
		return nil, err
	}
	defer unlock()

	s.emit(EventActionStarted, map[string]any{"action": req.Kind()})
	start := time.Now()

	ctx, span := traces.StartSpan(ctx, "bridge."+req.Kind(), traces.Action(req.Kind()))
	resp, err := s.dispatch(ctx, req)
	if err != nil {
		span.RecordError(err)
	}
	span.End()

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ActionsTotal.WithLabelValues(req.Kind(), status).Inc()
	metrics.ActionDuration.WithLabelValues(req.Kind()).Observe(time.Since(start).Seconds())
	s.emit(EventActionCompleted, map[string]any{"action": req.Kind(), "status": status})

	if err != nil {
		logging.L(ctx).Error("action failed",
			"action", req.Kind(),
			"account", s.owner.Hex(),
			"error", err)
		return nil, err
	}
	return resp, nil
}

func (s *Service) dispatch(ctx context.Context, req message.Request) (*message.Response, error) {
	switch r := req.(type) {
	case *message.PublishAccessAsset:
		return s.publishAccessAsset(ctx, r)
	case *message.PublishComputeAsset:
		return s.publishComputeAsset(ctx, r)
	case *message.PublishAlgorithm:
		return s.publishAlgorithm(ctx, r)
	case *message.Permission:
		return s.permissionDataset(ctx, r)
	case *message.Compute:
		return s.runCompute(ctx, r)
	case *message.CreateDispenser:
		return s.createDispenser(ctx, r)
	case *message.CreateExchange:
		return s.createExchange(ctx, r)
	case *message.Purchase:
		return s.purchase(ctx, r)
	default:
		return nil, fmt.Errorf("bridge: unhandled action kind %q", req.Kind())
	}
}

func (s *Service) emit(event string, data map[string]any) {
	s.emitter.Emit(event, data)
}

// withRetry runs fn through the bounded retry policy, logging each failed
// attempt with context before the next one. Exhaustion is surfaced as a
// typed RetriesExhaustedError carrying the workflow name and last cause.
func (s *Service) withRetry(ctx context.Context, workflow string, attempts int, fn func() error) error {
	notify := func(attempt int, err error) {
		logging.L(ctx).Warn("workflow attempt failed, retrying",
			"workflow", workflow,
			"attempt", attempt,
			"max_attempts", attempts,
			"account", s.owner.Hex(),
			"error", err)
		metrics.WorkflowRetriesTotal.WithLabelValues(workflow).Inc()
	}

	err := retry.Do(ctx, attempts, notify, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &RetriesExhaustedError{Workflow: workflow, Attempts: attempts, Err: err}
}

// resolveAsset fetches a DDO, mapping cache misses to the fatal NotFound
// class rather than a retryable condition.
func (s *Service) resolveAsset(ctx context.Context, did string) (*ocean.DDO, error) {
	ddo, err := s.deps.Resolver.Resolve(ctx, did)
	if err != nil {
		if errors.Is(err, ocean.ErrAssetNotFound) {
			return nil, &NotFoundError{Kind: "asset", ID: did, Err: err}
		}
		return nil, err
	}
	return ddo, nil
}

// sleepCtx blocks for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package bridge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eightballer/ocean-bridge/internal/logging"
	"github.com/eightballer/ocean-bridge/internal/message"
	"github.com/eightballer/ocean-bridge/internal/metrics"
	"github.com/eightballer/ocean-bridge/internal/ocean"
	"github.com/eightballer/ocean-bridge/internal/traces"
	"github.com/eightballer/ocean-bridge/internal/wei"
)

// computeOrderValidity bounds how long the paired orders stay redeemable.
const computeOrderValidity = time.Hour

// feeTokenAllowance is granted when a compute environment declares a fee
// token: 100 units to both the compute service's datatoken contract and
// the environment's consumer account.
var feeTokenAllowance = wei.FromUnits(100)

// runCompute drives a full compute job: resolve both assets, pick a free
// environment, pay for both orders, start the job, poll to completion, and
// collect the output artifacts.
func (s *Service) runCompute(ctx context.Context, r *message.Compute) (*message.Response, error) {
	data, err := s.resolveAsset(ctx, r.DataDID)
	if err != nil {
		return nil, err
	}
	algo, err := s.resolveAsset(ctx, r.AlgoDID)
	if err != nil {
		return nil, err
	}

	dataSvc, err := data.ServiceByType(ocean.ServiceCompute)
	if err != nil {
		return nil, &NotFoundError{Kind: "compute service on asset", ID: r.DataDID, Err: err}
	}
	algoSvc, err := algo.ServiceByType(ocean.ServiceAccess)
	if err != nil {
		return nil, &NotFoundError{Kind: "access service on asset", ID: r.AlgoDID, Err: err}
	}

	env, err := s.pickFreeEnvironment(ctx, dataSvc, data.ChainID)
	if err != nil {
		return nil, err
	}

	if env.FeeToken != "" {
		feeToken := common.HexToAddress(env.FeeToken)
		if err := s.deps.Tokens.Approve(ctx, feeToken, common.HexToAddress(dataSvc.Datatoken), feeTokenAllowance); err != nil {
			return nil, err
		}
		if err := s.deps.Tokens.Approve(ctx, feeToken, common.HexToAddress(env.ConsumerAddress), feeTokenAllowance); err != nil {
			return nil, err
		}
	}

	validUntil := time.Now().Add(computeOrderValidity).Unix()

	// Payment is the one step with the widened retry bound; the job start
	// that follows is deliberately not retried, because a duplicate start
	// against already-spent orders would fail confusingly.
	var payment *ocean.ComputePayment
	err = s.withRetry(ctx, "compute_payment", computePaymentAttempts, func() error {
		out, err := s.deps.Compute.PayForCompute(ctx, data, algo, dataSvc, algoSvc, env, validUntil)
		if err != nil {
			return err
		}
		payment = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(EventTxSubmitted, map[string]any{"tx": payment.DatasetOrderTx, "did": r.DataDID})
	s.emit(EventTxSubmitted, map[string]any{"tx": payment.AlgorithmOrderTx, "did": r.AlgoDID})

	jobID, err := s.deps.Compute.Start(ctx, data, dataSvc, algo, payment, env)
	if err != nil {
		return nil, err
	}
	logging.L(ctx).Info("compute job started",
		"job_id", jobID,
		"data_did", r.DataDID,
		"algo_did", r.AlgoDID,
		"environment", env.ID)

	status, err := s.pollJob(ctx, data, dataSvc, jobID)
	if err != nil {
		metrics.ComputeJobsTotal.WithLabelValues("timed_out").Inc()
		return nil, err
	}

	content, err := s.collectResults(ctx, data, dataSvc, jobID, status)
	if err != nil {
		metrics.ComputeJobsTotal.WithLabelValues("results_failed").Inc()
		return nil, err
	}
	metrics.ComputeJobsTotal.WithLabelValues("finished").Inc()
	return message.NewResultsResponse(content), nil
}

// pickFreeEnvironment selects the first environment with no minimum price.
func (s *Service) pickFreeEnvironment(ctx context.Context, dataSvc *ocean.Service, chainID int64) (ocean.Environment, error) {
	envs, err := s.deps.Compute.Environments(ctx, dataSvc.ServiceEndpoint, chainID)
	if err != nil {
		return ocean.Environment{}, err
	}
	for _, env := range envs {
		if env.PriceMin == "" || env.PriceMin == "0" {
			return env, nil
		}
	}
	return ocean.Environment{}, &NotFoundError{Kind: "free compute environment for", ID: dataSvc.ServiceEndpoint}
}

// pollJob fetches job status at a fixed interval until the provider
// reports the terminal state, or the bounded loop is exhausted.
func (s *Service) pollJob(ctx context.Context, data *ocean.DDO, dataSvc *ocean.Service, jobID string) (*ocean.JobStatus, error) {
	ctx, span := traces.StartSpan(ctx, "bridge.pollJob", traces.JobID(jobID))
	defer span.End()

	for i := 0; i < s.jobPollLimit; i++ {
		status, err := s.deps.Compute.Status(ctx, data, dataSvc, jobID)
		if err != nil {
			return nil, err
		}
		s.emit(EventJobStatus, map[string]any{
			"job_id": jobID,
			"status": status.StatusText,
		})
		if status.Finished() {
			return status, nil
		}
		if err := sleepCtx(ctx, s.jobPollInterval); err != nil {
			return nil, err
		}
	}
	return nil, &TimeoutError{
		Op:     "compute job " + jobID,
		Waited: time.Duration(s.jobPollLimit) * s.jobPollInterval,
	}
}

// collectResults fetches every output-typed artifact of the finished job
// and returns them as one JSON payload. Non-output artifacts (logs,
// configuration echoes) are discarded.
func (s *Service) collectResults(ctx context.Context, data *ocean.DDO, dataSvc *ocean.Service, jobID string, status *ocean.JobStatus) ([]byte, error) {
	var artifacts []json.RawMessage
	for _, res := range status.Results {
		if res.Type != "output" {
			continue
		}
		raw, err := s.deps.Compute.Result(ctx, data, dataSvc, jobID, res.Index)
		if err != nil {
			return nil, err
		}
		if !json.Valid(raw) {
			logging.L(ctx).Warn("discarding undecodable compute artifact",
				"job_id", jobID,
				"filename", res.Filename,
				"index", res.Index)
			continue
		}
		artifacts = append(artifacts, json.RawMessage(raw))
	}

	if len(artifacts) == 0 {
		return nil, &AssertionError{Msg: "compute job " + jobID + " yielded no usable output artifacts"}
	}
	if len(artifacts) == 1 {
		return artifacts[0], nil
	}
	return json.Marshal(artifacts)
}

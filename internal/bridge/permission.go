package bridge

import (
	"context"

	"github.com/eightballer/ocean-bridge/internal/logging"
	"github.com/eightballer/ocean-bridge/internal/message"
	"github.com/eightballer/ocean-bridge/internal/ocean"
)

// permissionDataset appends the algorithm's DID to the dataset's compute
// service allowlist and re-anchors the updated document. Resolution
// failures are fatal: a missing DID is a deployment error, not a transient
// chain condition. Only the update transaction is retried; the mutated
// document is resubmitted as-is on retry.
func (s *Service) permissionDataset(ctx context.Context, r *message.Permission) (*message.Response, error) {
	data, err := s.resolveAsset(ctx, r.DataDID)
	if err != nil {
		return nil, err
	}
	algo, err := s.resolveAsset(ctx, r.AlgoDID)
	if err != nil {
		return nil, err
	}

	svc, err := data.ServiceByType(ocean.ServiceCompute)
	if err != nil {
		return nil, &NotFoundError{Kind: "compute service on asset", ID: r.DataDID, Err: err}
	}
	svc.AddTrustedAlgorithm(algo)

	var txHash string
	err = s.withRetry(ctx, "permission", defaultAttempts, func() error {
		tx, err := s.deps.Publisher.UpdateAsset(ctx, data)
		if err != nil {
			return err
		}
		txHash = tx
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.L(ctx).Info("algorithm permitted on dataset",
		"data_did", r.DataDID,
		"algo_did", r.AlgoDID,
		"allowlist_len", len(svc.Compute.PublisherTrustedAlgorithms),
		"tx", txHash)
	s.emit(EventTxSubmitted, map[string]any{"tx": txHash, "did": r.DataDID})

	return message.NewResultsResponse([]byte(txHash)), nil
}

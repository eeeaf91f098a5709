package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/eightballer/ocean-bridge/internal/logging"
	"github.com/eightballer/ocean-bridge/internal/message"
	"github.com/eightballer/ocean-bridge/internal/ocean"
	"github.com/eightballer/ocean-bridge/internal/traces"
)

func (s *Service) publishAccessAsset(ctx context.Context, r *message.PublishAccessAsset) (*message.Response, error) {
	return s.publishAsset(ctx, ocean.PublishParams{
		Name: r.Name,
		URL:  r.DatasetURL,
		Metadata: ocean.Metadata{
			Name:        r.Name,
			Description: r.Description,
			Author:      r.Author,
			License:     r.License,
			Type:        "dataset",
		},
		WithCompute: false,
	}, r.Priced())
}

func (s *Service) publishComputeAsset(ctx context.Context, r *message.PublishComputeAsset) (*message.Response, error) {
	return s.publishAsset(ctx, ocean.PublishParams{
		Name: r.Name,
		URL:  r.DatasetURL,
		Metadata: ocean.Metadata{
			Name:        r.Name,
			Description: r.Description,
			Author:      r.Author,
			License:     r.License,
			Type:        "dataset",
		},
		WithCompute: true,
	}, r.Priced())
}

func (s *Service) publishAlgorithm(ctx context.Context, r *message.PublishAlgorithm) (*message.Response, error) {
	return s.publishAsset(ctx, ocean.PublishParams{
		Name: r.Name,
		URL:  r.FilesURL,
		Metadata: ocean.Metadata{
			Name:        r.Name,
			Description: r.Description,
			Author:      r.Author,
			License:     r.License,
			Type:        "algorithm",
			Algorithm: &ocean.AlgorithmMetadata{
				Language: r.Language,
				Format:   r.Format,
				Version:  r.Version,
				Container: ocean.Container{
					Entrypoint: r.Entrypoint,
					Image:      r.Image,
					Tag:        r.Tag,
					Checksum:   r.Checksum,
				},
			},
		},
		WithCompute: false,
	}, r.Priced())
}

// publishAsset runs the shared creation workflow: submit the creation
// transactions under retry, then block until the new DID is visible in the
// metadata cache so follow-up actions can resolve it.
func (s *Service) publishAsset(ctx context.Context, p ocean.PublishParams, priced bool) (*message.Response, error) {
	created, err := s.createAsset(ctx, p)
	if err != nil {
		return nil, err
	}

	logging.L(ctx).Info("asset created",
		"did", created.DID,
		"nft", created.NFT,
		"datatoken", created.Datatoken,
		"tx", created.TxHash)
	s.emit(EventTxSubmitted, map[string]any{"tx": created.TxHash, "did": created.DID})

	ddo, err := s.awaitCacheVisibility(ctx, created.DID)
	if err != nil {
		return nil, err
	}

	datatoken := created.Datatoken
	if datatoken == "" {
		// Recovered publication: the token address comes from the resolved
		// document instead of a fresh deployment receipt.
		svc, err := ddo.ServiceByType(ocean.ServiceAccess)
		if err != nil {
			return nil, err
		}
		datatoken = svc.Datatoken
	}

	return message.NewDeploymentResponse(message.DeploymentReceipt{
		DID:                      created.DID,
		DatatokenContractAddress: datatoken,
		HasPricingSchema:         priced,
	}), nil
}

// createAsset submits the creation under retry. If the marketplace reports
// the content is already registered, the pre-existing DID is recovered from
// the error instead of failing the workflow.
func (s *Service) createAsset(ctx context.Context, p ocean.PublishParams) (*ocean.AssetCreated, error) {
	var created *ocean.AssetCreated
	err := s.withRetry(ctx, "publish", defaultAttempts, func() error {
		out, err := s.deps.Publisher.CreateAsset(ctx, p)
		if err != nil {
			var reg *ocean.AlreadyRegisteredError
			if errors.As(err, &reg) {
				logging.L(ctx).Warn("asset already registered, recovering existing DID", "did", reg.DID)
				created = &ocean.AssetCreated{DID: reg.DID}
				return nil
			}
			return err
		}
		created = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// awaitCacheVisibility polls the metadata cache until the DID resolves.
// The cache indexes asynchronously, so a fresh publication legitimately
// misses for a short window.
func (s *Service) awaitCacheVisibility(ctx context.Context, did string) (*ocean.DDO, error) {
	ctx, span := traces.StartSpan(ctx, "bridge.awaitCacheVisibility", traces.DID(did))
	defer span.End()

	var waited time.Duration
	for {
		ddo, err := s.deps.Resolver.Resolve(ctx, did)
		if err == nil {
			return ddo, nil
		}
		if !errors.Is(err, ocean.ErrAssetNotFound) {
			return nil, err
		}
		if waited >= s.cacheTimeout {
			return nil, &TimeoutError{Op: "metadata cache visibility of " + did, Waited: waited}
		}
		if err := sleepCtx(ctx, s.cachePoll); err != nil {
			return nil, err
		}
		waited += s.cachePoll
	}
}

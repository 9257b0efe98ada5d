package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/client/internal/cache"
	"storefront/client/internal/cart"
	"storefront/client/internal/client"
	"storefront/client/internal/domain"
	"storefront/client/internal/domain/task"
	"storefront/client/internal/queue"
	"storefront/client/internal/repository"

	"golang.org/x/sync/errgroup"

	log "github.com/sirupsen/logrus"
)

// ErrBundleUnavailable means the page has no bundle to commit.
var ErrBundleUnavailable = errors.New("no bundle available for this product")

type Options struct {
	Currency    string
	UserID      string
	BaseURL     string
	GroupName   string
	MinIdleTime time.Duration
}

type Service struct {
	client       client.StorefrontClient
	cache        cache.CandidateCache
	queue        queue.Queue
	repository   repository.CommitRepository
	orchestrator *cart.Orchestrator
	opts         Options
}

// NewService wires the cart engine. cache, queue and repository are optional and may be nil.
func NewService(
	client client.StorefrontClient,
	cache cache.CandidateCache,
	queue queue.Queue,
	repository repository.CommitRepository,
	opts Options,
) *Service {
	if opts.MinIdleTime <= 0 {
		opts.MinIdleTime = 2 * time.Minute
	}
	return &Service{
		client:       client,
		cache:        cache,
		queue:        queue,
		repository:   repository,
		orchestrator: cart.NewOrchestrator(client),
		opts:         opts,
	}
}

// OpenPage loads a product and its bundle candidates. A failing candidate fetch
// hides the bundle instead of failing the page.
func (s *Service) OpenPage(ctx context.Context, productID string) (*PageView, error) {
	var (
		product    *domain.Product
		candidates []domain.BundleCandidate
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.client.GetProduct(gctx, productID)
		if err != nil {
			return err
		}
		product = p
		return nil
	})

	g.Go(func() error {
		candidates = s.loadCandidates(gctx, productID)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to open product page %s: %w", productID, err)
	}

	return newPageView(s, product, candidates), nil
}

// LoadCart returns the shopper's current cart
func (s *Service) LoadCart(ctx context.Context) (*domain.Cart, error) {
	return s.client.GetCart(ctx)
}

func (s *Service) loadCandidates(ctx context.Context, productID string) []domain.BundleCandidate {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, productID)
		if err != nil {
			log.Warnf("⚠️ Candidate cache unavailable for %s: %v", productID, err)
		} else if ok {
			log.Debugf("Using %d cached bundle candidates for %s", len(cached), productID)
			return cached
		}
	}

	candidates, err := s.client.GetFrequentlyBought(ctx, productID)
	if err != nil {
		log.Warnf("⚠️ Bundle hidden for %s, candidates unavailable: %v", productID, err)
		return nil
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, productID, candidates); err != nil {
			log.Warnf("⚠️ Failed to cache bundle candidates for %s: %v", productID, err)
		}
	}

	return candidates
}

// afterCommit publishes and records a finished commit. Failures are logged only:
// the cart itself already holds whatever landed.
func (s *Service) afterCommit(ctx context.Context, commit *domain.Commit) {
	if s.repository != nil {
		if err := s.repository.SaveCommit(ctx, commit); err != nil {
			log.Errorf("❌ Failed to record commit %s: %v", commit.ID, err)
		}
	}

	if s.queue != nil {
		if _, err := s.queue.AddTask(ctx, task.NewCommitReportTask(commit)); err != nil {
			log.Errorf("❌ Failed to publish report for commit %s: %v", commit.ID, err)
		}
	}
}

package cart

import (
	"context"
	"fmt"
	"time"

	"storefront/client/internal/domain"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Store adds items to the shopper's cart.
type Store interface {
	AddToCart(ctx context.Context, productID string, quantity int) error
}

// PartialCommitError is returned when some of the bundle did not reach the cart.
// Successful additions are kept.
type PartialCommitError struct {
	Commit *domain.Commit
}

func (e *PartialCommitError) Error() string {
	failed := e.Commit.Failed()
	ids := make([]string, 0, len(failed))
	for _, s := range failed {
		ids = append(ids, s.ProductID)
	}
	return fmt.Sprintf("added %d of %d items, failed: %v", e.Commit.Added(), len(e.Commit.Steps), ids)
}

// Orchestrator turns a bundle selection into sequential add-to-cart calls.
type Orchestrator struct {
	store Store
	now   func() time.Time
}

func NewOrchestrator(store Store) *Orchestrator {
	return &Orchestrator{
		store: store,
		now:   time.Now,
	}
}

// CommitBundle adds the current product and then every selected id, one at a time.
// A failing step does not stop the following ones and nothing is rolled back.
// The returned commit is always non-nil; err is a *PartialCommitError when any step failed.
func (o *Orchestrator) CommitBundle(ctx context.Context, currentProductID string, selectedIDs []string) (*domain.Commit, error) {
	commit := &domain.Commit{
		ID:               uuid.NewString(),
		CurrentProductID: currentProductID,
		Status:           domain.CommitRunning,
		Steps:            make([]domain.CommitStep, 0, len(selectedIDs)+1),
		StartedAt:        o.now(),
	}

	commit.Steps = append(commit.Steps, domain.CommitStep{
		ProductID: currentProductID,
		Quantity:  1,
		Status:    domain.StepPending,
	})
	for _, id := range selectedIDs {
		commit.Steps = append(commit.Steps, domain.CommitStep{
			ProductID: id,
			Quantity:  1,
			Status:    domain.StepPending,
		})
	}

	for i := range commit.Steps {
		step := &commit.Steps[i]

		if err := ctx.Err(); err != nil {
			step.Status = domain.StepFailed
			step.Error = err.Error()
			continue
		}

		if err := o.store.AddToCart(ctx, step.ProductID, step.Quantity); err != nil {
			step.Status = domain.StepFailed
			step.Error = err.Error()
			log.Warnf("❌ Failed to add %s to cart (commit %s): %v", step.ProductID, commit.ID, err)
			continue
		}

		step.Status = domain.StepSucceeded
		log.Debugf("Added %s to cart (commit %s)", step.ProductID, commit.ID)
	}

	commit.FinishedAt = o.now()

	if commit.Added() != len(commit.Steps) {
		commit.Status = domain.CommitPartial
		return commit, &PartialCommitError{Commit: commit}
	}

	commit.Status = domain.CommitSucceeded
	log.Infof("🛒 Commit %s added %d items to cart", commit.ID, commit.Added())
	return commit, nil
}

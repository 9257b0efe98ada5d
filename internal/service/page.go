package service

import (
	"context"

	"storefront/client/internal/client"
	"storefront/client/internal/domain"
	"storefront/client/internal/money"
	"storefront/client/internal/pricing"
	"storefront/client/internal/promo"
	"storefront/client/internal/selection"

	log "github.com/sirupsen/logrus"
)

// PageView is the state of one product page: the bundle selection and the promo code.
// It belongs to a single user session and is not safe for concurrent use.
type PageView struct {
	service    *Service
	product    domain.Product
	candidates []domain.BundleCandidate
	selection  *selection.Set
	promo      *promo.Machine
}

func newPageView(s *Service, product *domain.Product, candidates []domain.BundleCandidate) *PageView {
	// The current product is always part of the bundle and never selectable
	filtered := make([]domain.BundleCandidate, 0, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == product.ID {
			continue
		}
		filtered = append(filtered, c)
		ids = append(ids, c.ID)
	}

	sel := selection.New()
	sel.Initialize(ids)

	return &PageView{
		service:    s,
		product:    *product,
		candidates: filtered,
		selection:  sel,
		promo:      promo.NewMachine(s.client),
	}
}

func (v *PageView) Product() domain.Product {
	return v.product
}

func (v *PageView) Candidates() []domain.BundleCandidate {
	return v.candidates
}

// HasBundle reports whether the bundle section should be shown at all.
func (v *PageView) HasBundle() bool {
	return len(v.candidates) > 0
}

func (v *PageView) Toggle(candidateID string) {
	v.selection.Toggle(candidateID)
}

func (v *PageView) IsSelected(candidateID string) bool {
	return v.selection.Contains(candidateID)
}

func (v *PageView) SelectedIDs() []string {
	return v.selection.IDs()
}

// Snapshot prices the bundle as currently selected
func (v *PageView) Snapshot() pricing.Snapshot {
	return pricing.Calculate(v.product, v.candidates, v.selection)
}

// Description returns the product description as plain text
func (v *PageView) Description() (*client.Description, error) {
	return client.ParseDescription(v.service.opts.BaseURL, v.product.DescriptionHTML)
}

// SubmitPromo validates a code against the given cart
func (v *PageView) SubmitPromo(ctx context.Context, rawCode string, cart *domain.Cart) error {
	var (
		total int64
		items []domain.CartItem
	)
	if cart != nil {
		total = cart.Total
		items = cart.Items
	}
	return v.promo.Submit(ctx, rawCode, total, items, v.service.opts.UserID)
}

func (v *PageView) RemovePromo() error {
	return v.promo.Remove()
}

func (v *PageView) Promo() *promo.Machine {
	return v.promo
}

// CommitBundle adds the product and the selected candidates to the cart.
// The commit is returned even when err reports a partial failure.
func (v *PageView) CommitBundle(ctx context.Context) (*domain.Commit, error) {
	if !v.HasBundle() {
		return nil, ErrBundleUnavailable
	}

	commit, err := v.service.orchestrator.CommitBundle(ctx, v.product.ID, v.selection.IDs())
	v.service.afterCommit(ctx, commit)

	if err != nil {
		log.Warnf("⚠️ %s", v.Notification(commit))
		return commit, err
	}

	log.Infof("✅ %s", v.Notification(commit))
	return commit, nil
}

// Notification is the message shown to the user after a commit
func (v *PageView) Notification(commit *domain.Commit) string {
	return Notification(commit.Added(), len(commit.Steps), failedIDs(commit))
}

// Format renders an amount in the configured currency
func (v *PageView) Format(amount int64) string {
	return money.Format(amount, v.service.opts.Currency)
}

func failedIDs(commit *domain.Commit) []string {
	failed := commit.Failed()
	ids := make([]string, 0, len(failed))
	for _, s := range failed {
		ids = append(ids, s.ProductID)
	}
	return ids
}

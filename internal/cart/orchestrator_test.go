package cart

import (
	"context"
	"errors"
	"testing"

	"storefront/client/internal/domain"
	"storefront/client/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrchestrator_CommitBundleNoSelection(t *testing.T) {
	ctx := context.Background()
	store := &testutil.MockStorefront{}
	store.On("AddToCart", ctx, "p", 1).Return(nil).Once()

	commit, err := NewOrchestrator(store).CommitBundle(ctx, "p", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.CommitSucceeded, commit.Status)
	assert.Equal(t, 1, commit.Added())
	assert.NotEmpty(t, commit.ID)
	store.AssertExpectations(t)
}

func TestOrchestrator_CommitBundleSequentialOrder(t *testing.T) {
	ctx := context.Background()
	var order []string

	store := &testutil.MockStorefront{}
	store.On("AddToCart", ctx, mock.AnythingOfType("string"), 1).
		Run(func(args mock.Arguments) {
			order = append(order, args.String(1))
		}).
		Return(nil)

	commit, err := NewOrchestrator(store).CommitBundle(ctx, "p", []string{"a", "b", "c"})

	require.NoError(t, err)
	assert.Equal(t, []string{"p", "a", "b", "c"}, order)
	assert.Equal(t, 4, commit.Added())
	for _, step := range commit.Steps {
		assert.Equal(t, domain.StepSucceeded, step.Status)
	}
}

func TestOrchestrator_CommitBundlePartialFailure(t *testing.T) {
	ctx := context.Background()
	store := &testutil.MockStorefront{}
	store.On("AddToCart", ctx, "p", 1).Return(nil).Once()
	store.On("AddToCart", ctx, "a", 1).Return(errors.New("out of stock")).Once()
	store.On("AddToCart", ctx, "b", 1).Return(nil).Once()

	commit, err := NewOrchestrator(store).CommitBundle(ctx, "p", []string{"a", "b"})

	var partial *PartialCommitError
	require.ErrorAs(t, err, &partial)
	assert.Same(t, commit, partial.Commit)
	assert.Equal(t, domain.CommitPartial, commit.Status)
	assert.Equal(t, 2, commit.Added())
	assert.Equal(t, []domain.CommitStep{
		{ProductID: "p", Quantity: 1, Status: domain.StepSucceeded},
		{ProductID: "a", Quantity: 1, Status: domain.StepFailed, Error: "out of stock"},
		{ProductID: "b", Quantity: 1, Status: domain.StepSucceeded},
	}, commit.Steps)
	assert.Contains(t, err.Error(), "added 2 of 3 items")
	store.AssertExpectations(t)
}

func TestOrchestrator_CommitBundleCurrentProductFails(t *testing.T) {
	ctx := context.Background()
	store := &testutil.MockStorefront{}
	store.On("AddToCart", ctx, "p", 1).Return(errors.New("unavailable")).Once()
	store.On("AddToCart", ctx, "a", 1).Return(nil).Once()

	commit, err := NewOrchestrator(store).CommitBundle(ctx, "p", []string{"a"})

	var partial *PartialCommitError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, commit.Added())
	assert.Equal(t, domain.StepFailed, commit.Steps[0].Status)
}

func TestOrchestrator_CommitBundleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &testutil.MockStorefront{}
	store.On("AddToCart", ctx, "p", 1).Run(func(mock.Arguments) { cancel() }).Return(nil).Once()

	commit, err := NewOrchestrator(store).CommitBundle(ctx, "p", []string{"a", "b"})

	var partial *PartialCommitError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, commit.Added())
	assert.Equal(t, domain.StepFailed, commit.Steps[1].Status)
	assert.Equal(t, context.Canceled.Error(), commit.Steps[1].Error)
	store.AssertNumberOfCalls(t, "AddToCart", 1)
}

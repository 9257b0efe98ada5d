package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"storefront/client/internal/cart"
	"storefront/client/internal/client"
	"storefront/client/internal/domain"
	"storefront/client/internal/domain/task"
	"storefront/client/internal/promo"
	"storefront/client/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	espresso = &domain.Product{
		ID:              "p",
		Name:            "Espresso machine",
		Price:           10000,
		OriginalPrice:   testutil.Price(12000),
		DescriptionHTML: "<p>Two cups at once</p>",
	}
	grinder = domain.BundleCandidate{ID: "a", Name: "Grinder", Price: 5000, OriginalPrice: testutil.Price(5000)}
	beans   = domain.BundleCandidate{ID: "b", Name: "Beans", Price: 1500}
)

func newTestService(api *testutil.MockStorefront, opts ...func(*Service)) *Service {
	s := NewService(api, nil, nil, nil, Options{
		Currency:  "EUR",
		UserID:    "u-1",
		BaseURL:   "https://shop.example.com",
		GroupName: "notifier",
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func TestService_OpenPage(t *testing.T) {
	api := &testutil.MockStorefront{}
	api.On("GetProduct", mock.Anything, "p").Return(espresso, nil).Once()
	api.On("GetFrequentlyBought", mock.Anything, "p").
		Return([]domain.BundleCandidate{grinder, {ID: "p", Price: 10000}, beans}, nil).Once()

	view, err := newTestService(api).OpenPage(context.Background(), "p")
	require.NoError(t, err)

	assert.True(t, view.HasBundle())
	assert.Equal(t, []domain.BundleCandidate{grinder, beans}, view.Candidates())
	assert.Equal(t, []string{"a", "b"}, view.SelectedIDs())
	assert.False(t, view.IsSelected("p"))

	snap := view.Snapshot()
	assert.Equal(t, int64(16500), snap.Total)
	assert.Equal(t, int64(18500), snap.TotalOriginal)
	assert.Equal(t, 11, snap.DiscountPercent)
	assert.Equal(t, "€165.00", view.Format(snap.Total))

	view.Toggle("b")
	snap = view.Snapshot()
	assert.Equal(t, int64(15000), snap.Total)
	assert.Equal(t, 12, snap.DiscountPercent)

	desc, err := view.Description()
	require.NoError(t, err)
	assert.Equal(t, "Two cups at once", desc.Text)
	api.AssertExpectations(t)
}

func TestService_OpenPageProductFails(t *testing.T) {
	api := &testutil.MockStorefront{}
	api.On("GetProduct", mock.Anything, "p").Return(nil, errors.New("not found")).Once()
	api.On("GetFrequentlyBought", mock.Anything, "p").Return([]domain.BundleCandidate{grinder}, nil).Maybe()

	_, err := newTestService(api).OpenPage(context.Background(), "p")
	assert.ErrorContains(t, err, "not found")
}

func TestService_BundleHiddenWhenCandidatesUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		candidates []domain.BundleCandidate
		err        error
	}{
		{"fetch fails", nil, errors.New("timeout")},
		{"empty list", []domain.BundleCandidate{}, nil},
		{"only the current product", []domain.BundleCandidate{{ID: "p"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &testutil.MockStorefront{}
			api.On("GetProduct", mock.Anything, "p").Return(espresso, nil).Once()
			api.On("GetFrequentlyBought", mock.Anything, "p").Return(tt.candidates, tt.err).Once()

			view, err := newTestService(api).OpenPage(context.Background(), "p")
			require.NoError(t, err)
			assert.False(t, view.HasBundle())

			commit, err := view.CommitBundle(context.Background())
			assert.ErrorIs(t, err, ErrBundleUnavailable)
			assert.Nil(t, commit)
			api.AssertNotCalled(t, "AddToCart", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_CandidateCache(t *testing.T) {
	t.Run("hit skips the backend", func(t *testing.T) {
		api := &testutil.MockStorefront{}
		api.On("GetProduct", mock.Anything, "p").Return(espresso, nil).Once()
		candidateCache := &testutil.MockCandidateCache{}
		candidateCache.On("Get", mock.Anything, "p").Return([]domain.BundleCandidate{grinder}, true, nil).Once()

		view, err := newTestService(api, func(s *Service) { s.cache = candidateCache }).OpenPage(context.Background(), "p")
		require.NoError(t, err)

		assert.Equal(t, []string{"a"}, view.SelectedIDs())
		api.AssertNotCalled(t, "GetFrequentlyBought", mock.Anything, mock.Anything)
	})

	t.Run("miss fills the cache", func(t *testing.T) {
		api := &testutil.MockStorefront{}
		api.On("GetProduct", mock.Anything, "p").Return(espresso, nil).Once()
		api.On("GetFrequentlyBought", mock.Anything, "p").Return([]domain.BundleCandidate{grinder}, nil).Once()
		candidateCache := &testutil.MockCandidateCache{}
		candidateCache.On("Get", mock.Anything, "p").Return(nil, false, nil).Once()
		candidateCache.On("Set", mock.Anything, "p", []domain.BundleCandidate{grinder}).Return(nil).Once()

		_, err := newTestService(api, func(s *Service) { s.cache = candidateCache }).OpenPage(context.Background(), "p")
		require.NoError(t, err)
		candidateCache.AssertExpectations(t)
	})

	t.Run("cache errors fall back to the backend", func(t *testing.T) {
		api := &testutil.MockStorefront{}
		api.On("GetProduct", mock.Anything, "p").Return(espresso, nil).Once()
		api.On("GetFrequentlyBought", mock.Anything, "p").Return([]domain.BundleCandidate{grinder}, nil).Once()
		candidateCache := &testutil.MockCandidateCache{}
		candidateCache.On("Get", mock.Anything, "p").Return(nil, false, errors.New("redis down")).Once()
		candidateCache.On("Set", mock.Anything, "p", mock.Anything).Return(errors.New("redis down")).Once()

		view, err := newTestService(api, func(s *Service) { s.cache = candidateCache }).OpenPage(context.Background(), "p")
		require.NoError(t, err)
		assert.True(t, view.HasBundle())
	})
}

func TestPageView_CommitBundle(t *testing.T) {
	api := &testutil.MockStorefront{}
	api.On("GetProduct", mock.Anything, "p").Return(espresso, nil).Once()
	api.On("GetFrequentlyBought", mock.Anything, "p").Return([]domain.BundleCandidate{grinder, beans}, nil).Once()
	api.On("AddToCart", mock.Anything, "p", 1).Return(nil).Once()
	api.On("AddToCart", mock.Anything, "b", 1).Return(nil).Once()

	repo := &testutil.MockCommitRepository{}
	repo.On("SaveCommit", mock.Anything, mock.AnythingOfType("*domain.Commit")).Return(nil).Once()
	q := &testutil.MockQueue{}
	q.On("AddTask", mock.Anything, mock.MatchedBy(func(t *task.CommitReportTask) bool {
		return t.Added == 2 && t.Requested == 2 && len(t.FailedProducts) == 0
	})).Return("1-0", nil).Once()

	s := newTestService(api, func(s *Service) {
		s.repository = repo
		s.queue = q
	})
	view, err := s.OpenPage(context.Background(), "p")
	require.NoError(t, err)

	view.Toggle("a")
	commit, err := view.CommitBundle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.CommitSucceeded, commit.Status)
	assert.Equal(t, "2 items added to cart", view.Notification(commit))
	api.AssertExpectations(t)
	repo.AssertExpectations(t)
	q.AssertExpectations(t)
}

func TestPageView_CommitBundlePartialFailure(t *testing.T) {
	api := &testutil.MockStorefront{}
	api.On("GetProduct", mock.Anything, "p").Return(espresso, nil).Once()
	api.On("GetFrequentlyBought", mock.Anything, "p").Return([]domain.BundleCandidate{grinder, beans}, nil).Once()
	api.On("AddToCart", mock.Anything, "p", 1).Return(nil).Once()
	api.On("AddToCart", mock.Anything, "a", 1).Return(&client.APIError{StatusCode: http.StatusConflict, Detail: "Out of stock"}).Once()
	api.On("AddToCart", mock.Anything, "b", 1).Return(nil).Once()

	repo := &testutil.MockCommitRepository{}
	repo.On("SaveCommit", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	q := &testutil.MockQueue{}
	q.On("AddTask", mock.Anything, mock.MatchedBy(func(t *task.CommitReportTask) bool {
		return t.Added == 2 && t.Requested == 3 && assert.ObjectsAreEqual([]string{"a"}, t.FailedProducts)
	})).Return("1-0", nil).Once()

	s := newTestService(api, func(s *Service) {
		s.repository = repo
		s.queue = q
	})
	view, err := s.OpenPage(context.Background(), "p")
	require.NoError(t, err)

	commit, err := view.CommitBundle(context.Background())

	var partial *cart.PartialCommitError
	require.ErrorAs(t, err, &partial)
	require.NotNil(t, commit)
	assert.Equal(t, 2, commit.Added())
	assert.Equal(t, "Added 2 of 3 items to cart; could not add: a", view.Notification(commit))
	api.AssertExpectations(t)
	q.AssertExpectations(t)
}

func TestPageView_Promo(t *testing.T) {
	api := &testutil.MockStorefront{}
	api.On("GetProduct", mock.Anything, "p").Return(espresso, nil).Once()
	api.On("GetFrequentlyBought", mock.Anything, "p").Return([]domain.BundleCandidate{grinder}, nil).Once()

	shopperCart := &domain.Cart{
		Items: []domain.CartItem{{ProductID: "p", Quantity: 1, UnitPrice: 10000}},
		Total: 10000,
	}
	api.On("ValidatePromoCode", mock.Anything, domain.PromoValidationRequest{
		Code:      "EXPIRED",
		CartTotal: 10000,
		CartItems: shopperCart.Items,
		UserID:    "u-1",
	}).Return(nil, &client.APIError{StatusCode: http.StatusBadRequest, Detail: "Code has expired"}).Once()
	api.On("ValidatePromoCode", mock.Anything, mock.MatchedBy(func(req domain.PromoValidationRequest) bool {
		return req.Code == "SAVE10"
	})).Return(&domain.PromoValidation{Code: "SAVE10", Message: "Saved!", DiscountAmount: 1000}, nil).Once()

	view, err := newTestService(api).OpenPage(context.Background(), "p")
	require.NoError(t, err)
	before := view.Snapshot()

	require.NoError(t, view.SubmitPromo(context.Background(), "expired", shopperCart))
	assert.Equal(t, promo.StateFailed, view.Promo().State())
	assert.Equal(t, "Code has expired", view.Promo().Error())
	assert.Equal(t, before, view.Snapshot(), "a rejected code leaves the bundle untouched")

	require.NoError(t, view.SubmitPromo(context.Background(), "save10", shopperCart))
	assert.Equal(t, promo.StateApplied, view.Promo().State())
	assert.Equal(t, int64(9000), view.Promo().DiscountedTotal(shopperCart.Total))

	require.NoError(t, view.RemovePromo())
	assert.Equal(t, promo.StateIdle, view.Promo().State())
	assert.ErrorIs(t, view.RemovePromo(), promo.ErrNoPromoApplied)
	api.AssertExpectations(t)
}

func TestService_LoadCart(t *testing.T) {
	api := &testutil.MockStorefront{}
	want := &domain.Cart{Total: 42}
	api.On("GetCart", mock.Anything).Return(want, nil).Once()

	got, err := newTestService(api).LoadCart(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, got)
}

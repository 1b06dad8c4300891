package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/stckr/qr-server-go/internal/errors"
	"github.com/stckr/qr-server-go/internal/model"
)

// Mock repositories shared by the service tests in this package.

type mockCodeRepo struct {
	mock.Mock
}

func (m *mockCodeRepo) Exists(ctx context.Context, codeKey string) (bool, error) {
	args := m.Called(ctx, codeKey)
	return args.Bool(0), args.Error(1)
}

func (m *mockCodeRepo) FindByKey(ctx context.Context, codeKey string) (*model.Code, error) {
	args := m.Called(ctx, codeKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Code), args.Error(1)
}

func (m *mockCodeRepo) FindInfoByKey(ctx context.Context, codeKey string) (*model.CodeInfo, error) {
	args := m.Called(ctx, codeKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CodeInfo), args.Error(1)
}

func (m *mockCodeRepo) Insert(ctx context.Context, codeKey string, packID *string) (*model.Code, error) {
	args := m.Called(ctx, codeKey, packID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Code), args.Error(1)
}

func (m *mockCodeRepo) Purge(ctx context.Context, codeKey string) (bool, error) {
	args := m.Called(ctx, codeKey)
	return args.Bool(0), args.Error(1)
}

type mockClaimRepo struct {
	mock.Mock
}

func (m *mockClaimRepo) Upsert(ctx context.Context, params model.UpsertClaimParams) (*model.ClaimResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClaimResult), args.Error(1)
}

func (m *mockClaimRepo) FindByUserAndCode(ctx context.Context, userID, codeKey string) (*model.Claim, error) {
	args := m.Called(ctx, userID, codeKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Claim), args.Error(1)
}

func (m *mockClaimRepo) ListViewsByUserAndCode(ctx context.Context, userID, codeKey string) ([]model.ClaimView, error) {
	args := m.Called(ctx, userID, codeKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ClaimView), args.Error(1)
}

func (m *mockClaimRepo) Delete(ctx context.Context, userID, codeKey string) (bool, error) {
	args := m.Called(ctx, userID, codeKey)
	return args.Bool(0), args.Error(1)
}

type mockItemRepo struct {
	mock.Mock
}

func (m *mockItemRepo) FindOwned(ctx context.Context, itemID, userID string) (*model.Item, error) {
	args := m.Called(ctx, itemID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func (m *mockItemRepo) FindByID(ctx context.Context, itemID string) (*model.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Item), args.Error(1)
}

func newClaimService() (*ClaimService, *mockClaimRepo, *mockCodeRepo, *mockItemRepo) {
	claimRepo := new(mockClaimRepo)
	codeRepo := new(mockCodeRepo)
	itemRepo := new(mockItemRepo)
	return NewClaimService(claimRepo, codeRepo, itemRepo), claimRepo, codeRepo, itemRepo
}

func TestClaim_FreshClaim(t *testing.T) {
	svc, claimRepo, codeRepo, itemRepo := newClaimService()
	ctx := context.Background()

	codeRepo.On("Exists", mock.Anything, "X7QK2P").Return(true, nil)
	itemRepo.On("FindOwned", mock.Anything, "item-1", "user-a").
		Return(&model.Item{ID: "item-1", UserID: "user-a", Name: "Dishwasher"}, nil)
	claimRepo.On("Upsert", mock.Anything, model.UpsertClaimParams{
		UserID: "user-a", CodeKey: "X7QK2P", ItemID: "item-1",
	}).Return(&model.ClaimResult{
		Claim:   model.Claim{UserID: "user-a", CodeKey: "X7QK2P", ItemID: "item-1", ClaimedAt: time.Now()},
		Created: true,
	}, nil)

	result, err := svc.Claim(ctx, "user-a", "X7QK2P", "item-1")

	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "item-1", result.ItemID)
	claimRepo.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestClaim_Retarget(t *testing.T) {
	svc, claimRepo, codeRepo, itemRepo := newClaimService()
	ctx := context.Background()

	codeRepo.On("Exists", mock.Anything, "X7QK2P").Return(true, nil)
	itemRepo.On("FindOwned", mock.Anything, "item-2", "user-a").
		Return(&model.Item{ID: "item-2", UserID: "user-a", Name: "Boiler"}, nil)
	claimRepo.On("Upsert", mock.Anything, mock.AnythingOfType("model.UpsertClaimParams")).
		Return(&model.ClaimResult{
			Claim:   model.Claim{UserID: "user-a", CodeKey: "X7QK2P", ItemID: "item-2", ClaimedAt: time.Now()},
			Created: false,
		}, nil)

	result, err := svc.Claim(ctx, "user-a", "X7QK2P", "item-2")

	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, "item-2", result.ItemID)
}

func TestClaim_CodeNotFound(t *testing.T) {
	svc, claimRepo, codeRepo, _ := newClaimService()
	ctx := context.Background()

	codeRepo.On("Exists", mock.Anything, "NOSUCH").Return(false, nil)

	_, err := svc.Claim(ctx, "user-a", "NOSUCH", "item-1")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeCodeNotFound, apperrors.GetCode(err))
	claimRepo.AssertNotCalled(t, "Upsert")
}

func TestClaim_ItemNotOwned(t *testing.T) {
	svc, claimRepo, codeRepo, itemRepo := newClaimService()
	ctx := context.Background()

	codeRepo.On("Exists", mock.Anything, "X7QK2P").Return(true, nil)
	itemRepo.On("FindOwned", mock.Anything, "item-of-b", "user-a").Return(nil, nil)

	_, err := svc.Claim(ctx, "user-a", "X7QK2P", "item-of-b")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeItemNotOwned, apperrors.GetCode(err))
	// Any prior claim for the pair is left untouched.
	claimRepo.AssertNotCalled(t, "Upsert")
}

func TestClaim_RetriesTransientConflict(t *testing.T) {
	svc, claimRepo, codeRepo, itemRepo := newClaimService()
	ctx := context.Background()

	codeRepo.On("Exists", mock.Anything, "X7QK2P").Return(true, nil)
	itemRepo.On("FindOwned", mock.Anything, "item-1", "user-a").
		Return(&model.Item{ID: "item-1", UserID: "user-a", Name: "Dishwasher"}, nil)

	serializationFailure := &pq.Error{Code: "40001"}
	claimRepo.On("Upsert", mock.Anything, mock.AnythingOfType("model.UpsertClaimParams")).
		Return(nil, serializationFailure).Once()
	claimRepo.On("Upsert", mock.Anything, mock.AnythingOfType("model.UpsertClaimParams")).
		Return(&model.ClaimResult{
			Claim:   model.Claim{UserID: "user-a", CodeKey: "X7QK2P", ItemID: "item-1", ClaimedAt: time.Now()},
			Created: false,
		}, nil).Once()

	result, err := svc.Claim(ctx, "user-a", "X7QK2P", "item-1")

	require.NoError(t, err)
	assert.Equal(t, "item-1", result.ItemID)
	claimRepo.AssertNumberOfCalls(t, "Upsert", 2)
	// Preconditions are re-checked before each attempt.
	codeRepo.AssertNumberOfCalls(t, "Exists", 2)
}

func TestClaim_ExhaustedRetriesSurfaceTransient(t *testing.T) {
	svc, claimRepo, codeRepo, itemRepo := newClaimService()
	ctx := context.Background()

	codeRepo.On("Exists", mock.Anything, "X7QK2P").Return(true, nil)
	itemRepo.On("FindOwned", mock.Anything, "item-1", "user-a").
		Return(&model.Item{ID: "item-1", UserID: "user-a", Name: "Dishwasher"}, nil)
	claimRepo.On("Upsert", mock.Anything, mock.AnythingOfType("model.UpsertClaimParams")).
		Return(nil, &pq.Error{Code: "40P01"})

	_, err := svc.Claim(ctx, "user-a", "X7QK2P", "item-1")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTransientConflict, apperrors.GetCode(err))
	claimRepo.AssertNumberOfCalls(t, "Upsert", 3)
}

func TestClaim_NonRetryableErrorFailsFast(t *testing.T) {
	svc, claimRepo, codeRepo, itemRepo := newClaimService()
	ctx := context.Background()

	codeRepo.On("Exists", mock.Anything, "X7QK2P").Return(true, nil)
	itemRepo.On("FindOwned", mock.Anything, "item-1", "user-a").
		Return(&model.Item{ID: "item-1", UserID: "user-a", Name: "Dishwasher"}, nil)
	claimRepo.On("Upsert", mock.Anything, mock.AnythingOfType("model.UpsertClaimParams")).
		Return(nil, errors.New("connection reset"))

	_, err := svc.Claim(ctx, "user-a", "X7QK2P", "item-1")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeDatabase, apperrors.GetCode(err))
	claimRepo.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestUnclaim_Idempotent(t *testing.T) {
	svc, claimRepo, _, _ := newClaimService()
	ctx := context.Background()

	claimRepo.On("Delete", mock.Anything, "user-a", "X7QK2P").Return(true, nil).Once()
	claimRepo.On("Delete", mock.Anything, "user-a", "X7QK2P").Return(false, nil).Once()

	deleted, err := svc.Unclaim(ctx, "user-a", "X7QK2P")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Unclaim(ctx, "user-a", "X7QK2P")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGetClaims_ScopedToCaller(t *testing.T) {
	svc, claimRepo, _, _ := newClaimService()
	ctx := context.Background()

	views := []model.ClaimView{
		{ItemID: "item-2", ItemName: "Boiler", ClaimedAt: time.Now()},
	}
	claimRepo.On("ListViewsByUserAndCode", mock.Anything, "user-a", "X7QK2P").Return(views, nil)

	got, err := svc.GetClaims(ctx, "user-a", "X7QK2P")

	require.NoError(t, err)
	assert.Equal(t, views, got)
}

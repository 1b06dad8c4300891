package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/stckr/qr-server-go/internal/config"
	apperrors "github.com/stckr/qr-server-go/internal/errors"
	"github.com/stckr/qr-server-go/internal/model"
	"github.com/stckr/qr-server-go/internal/repository"
)

// ClaimService is the sole write path for claim rows. The state machine per
// (user, code) pair is UNCLAIMED -> CLAIMED(item) -> CLAIMED(item') ->
// UNCLAIMED; nothing else mutates claims.
type ClaimService struct {
	claimRepo repository.ClaimRepository
	codeRepo  repository.CodeRepository
	itemRepo  repository.ItemRepository
}

func NewClaimService(
	claimRepo repository.ClaimRepository,
	codeRepo repository.CodeRepository,
	itemRepo repository.ItemRepository,
) *ClaimService {
	return &ClaimService{
		claimRepo: claimRepo,
		codeRepo:  codeRepo,
		itemRepo:  itemRepo,
	}
}

// Claim attaches codeKey to an item owned by the caller. An existing claim
// for the pair is retargeted in place; the pair never holds two rows.
// Transient storage conflicts are retried a bounded number of times, with
// preconditions re-checked before each attempt.
func (s *ClaimService) Claim(ctx context.Context, userID, codeKey, itemID string) (*model.ClaimResult, error) {
	var lastErr error

	for attempt := 0; attempt < config.ClaimUpsertAttempts; attempt++ {
		exists, err := s.codeRepo.Exists(ctx, codeKey)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if !exists {
			return nil, apperrors.CodeNotFound(codeKey)
		}

		item, err := s.itemRepo.FindOwned(ctx, itemID, userID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if item == nil {
			return nil, apperrors.ItemNotOwned(itemID)
		}

		result, err := s.claimRepo.Upsert(ctx, model.UpsertClaimParams{
			UserID:  userID,
			CodeKey: codeKey,
			ItemID:  itemID,
		})
		if err == nil {
			log.Info().
				Str("userId", userID).
				Str("codeKey", codeKey).
				Str("itemId", itemID).
				Bool("created", result.Created).
				Msg("code claimed")
			return result, nil
		}

		if !repository.IsRetryableConflict(err) {
			return nil, apperrors.Database(err)
		}

		lastErr = err
		log.Warn().
			Err(err).
			Str("userId", userID).
			Str("codeKey", codeKey).
			Int("attempt", attempt+1).
			Msg("claim upsert conflict, retrying")
	}

	return nil, apperrors.TransientConflict(lastErr)
}

// Unclaim detaches the caller's claim on codeKey. Idempotent: a second call
// reports deleted=false rather than an error.
func (s *ClaimService) Unclaim(ctx context.Context, userID, codeKey string) (bool, error) {
	deleted, err := s.claimRepo.Delete(ctx, userID, codeKey)
	if err != nil {
		return false, apperrors.Database(err)
	}

	if deleted {
		log.Info().
			Str("userId", userID).
			Str("codeKey", codeKey).
			Msg("code unclaimed")
	}

	return deleted, nil
}

// GetClaims lists the caller's claims on codeKey, joined with item names.
// Practically zero or one today; a list keeps the contract stable if the
// claim model ever changes.
func (s *ClaimService) GetClaims(ctx context.Context, userID, codeKey string) ([]model.ClaimView, error) {
	views, err := s.claimRepo.ListViewsByUserAndCode(ctx, userID, codeKey)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return views, nil
}

package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/rs/zerolog/log"

	apperrors "github.com/stckr/qr-server-go/internal/errors"
	"github.com/stckr/qr-server-go/internal/model"
	"github.com/stckr/qr-server-go/internal/repository"
)

// codeKeyChars excludes ambiguous characters (0/O, 1/I) so printed
// stickers survive manual entry.
const (
	codeKeyChars    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeKeyLength   = 8
	maxMintAttempts = 10
	maxMintBatch    = 1000
)

// RegistryService is the source of truth for minted codes.
type RegistryService struct {
	codeRepo repository.CodeRepository
}

func NewRegistryService(codeRepo repository.CodeRepository) *RegistryService {
	return &RegistryService{codeRepo: codeRepo}
}

func (s *RegistryService) Exists(ctx context.Context, codeKey string) (bool, error) {
	if codeKey == "" {
		return false, nil
	}
	return s.codeRepo.Exists(ctx, codeKey)
}

// Mint creates count fresh codes with collision-free canonical keys.
// Key collisions are rare at this alphabet and length; generation retries
// per code up to a fixed bound.
func (s *RegistryService) Mint(ctx context.Context, count int, packID *string) ([]model.Code, error) {
	if count <= 0 {
		return nil, apperrors.InvalidInput("count", "must be positive")
	}
	if count > maxMintBatch {
		return nil, apperrors.InvalidInput("count", fmt.Sprintf("must be at most %d", maxMintBatch))
	}

	codes := make([]model.Code, 0, count)
	for i := 0; i < count; i++ {
		code, err := s.mintOne(ctx, packID)
		if err != nil {
			return nil, err
		}
		codes = append(codes, *code)
	}

	log.Info().
		Int("count", len(codes)).
		Msg("codes minted")

	return codes, nil
}

func (s *RegistryService) mintOne(ctx context.Context, packID *string) (*model.Code, error) {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		key := generateCodeKey()
		code, err := s.codeRepo.Insert(ctx, key, packID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if code != nil {
			return code, nil
		}
		log.Warn().Str("codeKey", key).Msg("mint collision, regenerating")
	}
	return nil, apperrors.Internal("exhausted code generation attempts")
}

// Purge irreversibly removes a code together with all claims and scan
// events referencing it.
func (s *RegistryService) Purge(ctx context.Context, codeKey string) (bool, error) {
	deleted, err := s.codeRepo.Purge(ctx, codeKey)
	if err != nil {
		return false, apperrors.Database(err)
	}
	return deleted, nil
}

func (s *RegistryService) Describe(ctx context.Context, codeKey string) (*model.CodeInfo, error) {
	info, err := s.codeRepo.FindInfoByKey(ctx, codeKey)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return info, nil
}

func generateCodeKey() string {
	chars := []byte(codeKeyChars)
	key := make([]byte, codeKeyLength)
	for i := range key {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		key[i] = chars[n.Int64()]
	}
	return string(key)
}

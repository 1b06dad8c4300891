package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/stckr/qr-server-go/internal/errors"
	"github.com/stckr/qr-server-go/internal/model"
)

func TestMint_CreatesRequestedCount(t *testing.T) {
	codeRepo := new(mockCodeRepo)
	svc := NewRegistryService(codeRepo)

	codeRepo.On("Insert", mock.Anything, mock.AnythingOfType("string"), (*string)(nil)).
		Return(&model.Code{CodeKey: "GENERATED"}, nil)

	codes, err := svc.Mint(context.Background(), 9, nil)

	require.NoError(t, err)
	assert.Len(t, codes, 9)
	codeRepo.AssertNumberOfCalls(t, "Insert", 9)
}

func TestMint_RetriesOnCollision(t *testing.T) {
	codeRepo := new(mockCodeRepo)
	svc := NewRegistryService(codeRepo)

	// First generated key collides; second succeeds.
	codeRepo.On("Insert", mock.Anything, mock.AnythingOfType("string"), (*string)(nil)).
		Return(nil, nil).Once()
	codeRepo.On("Insert", mock.Anything, mock.AnythingOfType("string"), (*string)(nil)).
		Return(&model.Code{CodeKey: "FRESH"}, nil).Once()

	codes, err := svc.Mint(context.Background(), 1, nil)

	require.NoError(t, err)
	assert.Len(t, codes, 1)
	codeRepo.AssertNumberOfCalls(t, "Insert", 2)
}

func TestMint_RejectsInvalidCount(t *testing.T) {
	svc := NewRegistryService(new(mockCodeRepo))

	_, err := svc.Mint(context.Background(), 0, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))

	_, err = svc.Mint(context.Background(), maxMintBatch+1, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
}

func TestExists_EmptyKeyIsNeverFound(t *testing.T) {
	codeRepo := new(mockCodeRepo)
	svc := NewRegistryService(codeRepo)

	exists, err := svc.Exists(context.Background(), "")

	require.NoError(t, err)
	assert.False(t, exists)
	// The empty key is not a wildcard; the store is never consulted.
	codeRepo.AssertNotCalled(t, "Exists")
}

func TestGenerateCodeKey_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		key := generateCodeKey()
		assert.Len(t, key, codeKeyLength)
		for _, ch := range key {
			assert.Contains(t, codeKeyChars, string(ch),
				"key should only contain characters from codeKeyChars")
		}
		assert.Equal(t, strings.ToUpper(key), key)
	}
}

func TestGenerateCodeKey_Uniqueness(t *testing.T) {
	keys := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key := generateCodeKey()
		assert.False(t, keys[key], "generated duplicate key: %s", key)
		keys[key] = true
	}
}

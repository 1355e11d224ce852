package goOTT

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goOTT/internal"
)

// IdentifierPrefix namespaces one-time token records inside a shared
// verification store.
const IdentifierPrefix = "one-time-token:"

// TokenHasher transforms a logical token into its stored form. It must be
// deterministic: the same input always yields the same output.
type TokenHasher func(ctx context.Context, token string) (string, error)

// TokenStorage maps a logical token to the key it is persisted under.
// Implementations are selected once at [Builder.Build].
type TokenStorage interface {
	StoreKey(ctx context.Context, token string) (string, error)
}

type plainStorage struct{}

func (plainStorage) StoreKey(_ context.Context, token string) (string, error) {
	return token, nil
}

type hashedStorage struct{}

func (hashedStorage) StoreKey(_ context.Context, token string) (string, error) {
	return internal.HashToken(token), nil
}

type customHasherStorage struct {
	hash TokenHasher
}

func (s customHasherStorage) StoreKey(ctx context.Context, token string) (string, error) {
	key, err := s.hash(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenStorage, err)
	}
	return key, nil
}

// NewTokenStorage returns the storage transform for mode. hasher is required
// for [StoreCustomHasher] and ignored otherwise.
func NewTokenStorage(mode StorageMode, hasher TokenHasher) (TokenStorage, error) {
	switch mode {
	case StorePlain, "":
		return plainStorage{}, nil
	case StoreHashed:
		return hashedStorage{}, nil
	case StoreCustomHasher:
		if hasher == nil {
			return nil, errors.New("custom-hasher storage requires a TokenHasher")
		}
		return customHasherStorage{hash: hasher}, nil
	default:
		return nil, fmt.Errorf("unsupported storage mode %q", mode)
	}
}

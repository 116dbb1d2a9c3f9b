package service

import (
	"context"
	"time"

	"farcaster-claim-backend/internal/features/airdrop/models"
)

// AirdropService exposes campaign directory reads with caching.
type AirdropService interface {
	GetCampaign(ctx context.Context, id, authenticatedUser string) (*models.Campaign, error)
	GetToken(ctx context.Context, chainID int64, address, authenticatedUser string) (*models.TokenData, error)
}

// Directory is the campaign directory backing the service. Satisfied by the
// Coinvise client.
type Directory interface {
	GetAirdrop(ctx context.Context, id, authenticatedUser string) (*models.Campaign, error)
	GetToken(ctx context.Context, chainID int64, address, authenticatedUser string) (*models.TokenData, error)
}

// Store is the cache the service reads through. Satisfied by the shared
// cache service.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

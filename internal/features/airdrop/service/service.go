package service

import (
	"context"
	"time"

	"farcaster-claim-backend/internal/common/cache"
	"farcaster-claim-backend/internal/common/config"
	"farcaster-claim-backend/internal/common/logger"
	"farcaster-claim-backend/internal/features/airdrop/models"
)

type airdropService struct {
	directory   Directory
	cache       Store
	campaignTTL time.Duration
	tokenTTL    time.Duration
}

func NewAirdropService(directory Directory, cacheService Store, cfg *config.Config) AirdropService {
	return &airdropService{
		directory:   directory,
		cache:       cacheService,
		campaignTTL: time.Duration(cfg.Coinvise.CampaignTTLSec) * time.Second,
		tokenTTL:    time.Duration(cfg.Coinvise.TokenTTLSec) * time.Second,
	}
}

// GetCampaign reads through the cache to the campaign directory. Campaign
// records change rarely after creation, so a short TTL is enough to absorb
// frame-client refresh bursts.
func (s *airdropService) GetCampaign(ctx context.Context, id, authenticatedUser string) (*models.Campaign, error) {
	key := cache.CampaignKey(id)

	var cached models.Campaign
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	campaign, err := s.directory.GetAirdrop(ctx, id, authenticatedUser)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, campaign, s.campaignTTL); err != nil {
		logger.Warn().Err(err).Str("campaign_id", id).Msg("failed to cache campaign")
	}

	return campaign, nil
}

func (s *airdropService) GetToken(ctx context.Context, chainID int64, address, authenticatedUser string) (*models.TokenData, error) {
	key := cache.TokenKey(chainID, address)

	var cached models.TokenData
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	token, err := s.directory.GetToken(ctx, chainID, address, authenticatedUser)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, token, s.tokenTTL); err != nil {
		logger.Warn().Err(err).Str("token", address).Msg("failed to cache token metadata")
	}

	return token, nil
}

package service

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	airdropmodels "farcaster-claim-backend/internal/features/airdrop/models"
	"farcaster-claim-backend/internal/features/claim/models"
	"farcaster-claim-backend/internal/platform/chain"
)

// ConditionEvaluator decides eligibility for a campaign condition.
type ConditionEvaluator interface {
	Evaluate(ctx context.Context, condition airdropmodels.Condition, identity models.Identity) (models.Outcome, error)
}

// SignatureIssuer signs the (campaignManager, campaignId, claimer) triple.
type SignatureIssuer interface {
	Issue(campaignManager common.Address, campaignID *big.Int, claimer common.Address) (*models.ClaimSignature, error)
}

// CampaignResolver recovers the on-chain campaign reference from the
// creation transaction's receipt.
type CampaignResolver interface {
	ResolveCampaignCreation(ctx context.Context, txHash string) (*chain.CampaignCreation, error)
}

// SessionStore persists claim sessions. Satisfied by the shared cache
// service.
type SessionStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ClaimService owns the claim flow: the stateless verify-and-sign endpoint
// and the session state machine that sequences campaign fetch, wallet
// connection, eligibility, signature issuance and transaction preparation.
type ClaimService interface {
	// Verify is the signing endpoint: evaluates eligibility when requested
	// and issues a claim signature for the attested claimer.
	Verify(ctx context.Context, req *models.VerifyRequest) (*models.VerifyResponse, error)

	CreateSession(ctx context.Context, airdropID string, identity models.Identity) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ConnectWallet(ctx context.Context, id, address string) (*models.Session, error)
	DisconnectWallet(ctx context.Context, id string) (*models.Session, error)
	VerifySession(ctx context.Context, id string) (*models.Session, error)
	PrepareTransaction(ctx context.Context, id string) (*models.PreparedCall, *models.Session, error)
	RecordResult(ctx context.Context, id, txHash, walletError string) (*models.Session, error)
}

package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"farcaster-claim-backend/internal/common/cache"
	"farcaster-claim-backend/internal/common/config"
	"farcaster-claim-backend/internal/common/errors"
	"farcaster-claim-backend/internal/common/logger"
	airdropmodels "farcaster-claim-backend/internal/features/airdrop/models"
	airdropservice "farcaster-claim-backend/internal/features/airdrop/service"
	"farcaster-claim-backend/internal/features/claim/models"
	"farcaster-claim-backend/internal/platform/chain"
)

type claimService struct {
	airdrops    airdropservice.AirdropService
	evaluator   ConditionEvaluator
	issuer      SignatureIssuer
	chainClient CampaignResolver
	callBuilder *chain.CallBuilder
	sessions    SessionStore
	sessionTTL  time.Duration
}

func NewClaimService(
	airdrops airdropservice.AirdropService,
	evaluator ConditionEvaluator,
	issuer SignatureIssuer,
	chainClient CampaignResolver,
	callBuilder *chain.CallBuilder,
	sessions SessionStore,
	cfg *config.Config,
) ClaimService {
	return &claimService{
		airdrops:    airdrops,
		evaluator:   evaluator,
		issuer:      issuer,
		chainClient: chainClient,
		callBuilder: callBuilder,
		sessions:    sessions,
		sessionTTL:  time.Duration(cfg.Session.TTLSecs) * time.Second,
	}
}

// Verify implements the signing endpoint. When CheckYap is set the feed scan
// runs server-side; otherwise the signature is issued on the caller's word
// alone (follow-type conditions have nothing to scan). The unchecked path is
// a trust boundary inherited from the claim flow and is kept explicit here
// rather than hidden behind a blanket eligible=true.
func (s *claimService) Verify(ctx context.Context, req *models.VerifyRequest) (*models.VerifyResponse, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, errors.NewMissingParamsError(missing)
	}

	if !common.IsHexAddress(req.AuthenticatedUserAddress) {
		return nil, errors.NewValidationError("authenticatedUserAddress", "must be a hex address")
	}

	campaign, err := s.airdrops.GetCampaign(ctx, req.AirdropID, req.AuthenticatedUserAddress)
	if err != nil {
		return nil, err
	}

	if !campaign.Active {
		return nil, errors.New(errors.ErrCodeCampaignInactive, "Campaign is not active").
			WithDetail("campaign_id", campaign.ID)
	}

	if req.CheckYap {
		condition := airdropmodels.Condition{
			Type: airdropmodels.ConditionFarcasterTokenYap,
			Metadata: airdropmodels.ConditionMetadata{
				TokenName: req.TokenName,
				ValidFrom: req.ValidFrom,
				ValidTo:   req.ValidTo,
			},
		}
		identity := models.Identity{FID: req.FID, WalletAddress: req.AuthenticatedUserAddress}

		outcome, err := s.evaluator.Evaluate(ctx, condition, identity)
		if err != nil {
			return nil, err
		}

		if outcome.Status == models.StatusIneligible {
			return &models.VerifyResponse{Eligible: false}, nil
		}
	}

	sig, _, err := s.issueForCampaign(ctx, campaign, req.AuthenticatedUserAddress)
	if err != nil {
		return nil, err
	}

	return &models.VerifyResponse{
		Eligible: true,
		V:        sig.V,
		R:        sig.R,
		S:        sig.S,
	}, nil
}

// issueForCampaign resolves the campaign's on-chain reference from its
// creation receipt, then signs the claim triple. Signing never precedes the
// eligibility decision; callers reach this only after a positive outcome or
// on the explicitly unchecked path.
func (s *claimService) issueForCampaign(ctx context.Context, campaign *airdropmodels.Campaign, claimerAddress string) (*models.ClaimSignature, *models.CampaignRef, error) {
	if campaign.TxHash == "" {
		return nil, nil, errors.NewReceiptResolutionError("", fmt.Errorf("campaign %s has no creation transaction", campaign.ID))
	}

	creation, err := s.chainClient.ResolveCampaignCreation(ctx, campaign.TxHash)
	if err != nil {
		return nil, nil, err
	}

	sig, err := s.issuer.Issue(creation.Manager, creation.CampaignID, common.HexToAddress(claimerAddress))
	if err != nil {
		return nil, nil, err
	}

	ref := &models.CampaignRef{
		Manager:    creation.Manager.Hex(),
		CampaignID: creation.CampaignID.String(),
	}

	return sig, ref, nil
}

func (s *claimService) CreateSession(ctx context.Context, airdropID string, identity models.Identity) (*models.Session, error) {
	if airdropID == "" {
		return nil, errors.NewValidationError("airdropId", "is required")
	}

	now := time.Now()
	session := &models.Session{
		ID:        uuid.New().String(),
		AirdropID: airdropID,
		State:     models.StateFetchingCampaign,
		Identity:  identity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.airdrops.GetCampaign(ctx, airdropID, identity.WalletAddress); err != nil {
		// Load failures are terminal for the session but not for the request:
		// the client renders the error state.
		session.State = models.StateLoadError
		session.FailureReason = err.Error()
		if saveErr := s.save(ctx, session); saveErr != nil {
			return nil, saveErr
		}
		return session, nil
	}

	if identity.WalletAddress == "" {
		session.State = models.StateAwaitingWalletConnect
	} else {
		session.State = models.StateReady
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *claimService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	return s.load(ctx, id)
}

func (s *claimService) ConnectWallet(ctx context.Context, id, address string) (*models.Session, error) {
	if !common.IsHexAddress(address) {
		return nil, errors.NewValidationError("address", "must be a hex address")
	}

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.State.Terminal() {
		return nil, invalidTransition(session.State, "connect wallet")
	}

	// Switching wallets invalidates everything minted for the previous one.
	// A signature bound to the old claimer would only revert on-chain and
	// burn the claim fee.
	if session.Identity.WalletAddress != "" && session.Identity.WalletAddress != address {
		session.Signature = nil
		session.Outcome = nil
		session.CampaignRef = nil
		session.State = models.StateReady
	}

	session.Identity.WalletAddress = address
	if session.State == models.StateAwaitingWalletConnect {
		session.State = models.StateReady
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// DisconnectWallet forces any non-terminal session back to
// awaiting_wallet_connect. The invariant holds from every state; a signature
// minted for the disconnected wallet is discarded.
func (s *claimService) DisconnectWallet(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.State.Terminal() {
		return nil, invalidTransition(session.State, "disconnect wallet")
	}

	session.Identity.WalletAddress = ""
	session.Signature = nil
	session.Outcome = nil
	session.State = models.StateAwaitingWalletConnect

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// VerifySession runs the eligibility check on the campaign's first condition
// and, on success, resolves the on-chain reference and mints a fresh
// signature. Re-verification always replaces any previous signature.
func (s *claimService) VerifySession(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch session.State {
	case models.StateReady, models.StateEligible, models.StateIneligible, models.StateFailed:
		// verifiable states
	default:
		return nil, invalidTransition(session.State, "verify")
	}

	if session.Identity.WalletAddress == "" {
		return nil, invalidTransition(session.State, "verify without a connected wallet")
	}

	campaign, err := s.airdrops.GetCampaign(ctx, session.AirdropID, session.Identity.WalletAddress)
	if err != nil {
		return nil, err
	}

	if !campaign.Active {
		return nil, errors.New(errors.ErrCodeCampaignInactive, "Campaign is not active").
			WithDetail("campaign_id", campaign.ID)
	}

	condition, ok := campaign.FirstCondition()
	if !ok {
		return nil, errors.NewValidationError("conditions", "campaign has no conditions")
	}

	// Yap conditions default to the campaign token name when the condition
	// metadata omits one.
	if condition.Metadata.TokenName == "" {
		condition.Metadata.TokenName = campaign.Token.Name
	}

	previousState := session.State
	session.State = models.StateVerifying
	session.Signature = nil
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	outcome, err := s.evaluator.Evaluate(ctx, condition, session.Identity)
	if err != nil {
		// Evaluator failures are retryable: the session returns to where it
		// was instead of dying in a terminal state.
		session.State = previousState
		if saveErr := s.save(ctx, session); saveErr != nil {
			logger.Error().Err(saveErr).Str("session_id", id).Msg("failed to restore session state")
		}
		return nil, err
	}

	session.Outcome = &outcome

	if !outcome.Passed() {
		session.State = models.StateIneligible
		if err := s.save(ctx, session); err != nil {
			return nil, err
		}
		return session, nil
	}

	sig, ref, err := s.issueForCampaign(ctx, campaign, session.Identity.WalletAddress)
	if err != nil {
		session.State = models.StateFailed
		session.FailureReason = err.Error()
		if saveErr := s.save(ctx, session); saveErr != nil {
			logger.Error().Err(saveErr).Str("session_id", id).Msg("failed to persist failure state")
		}
		return nil, err
	}

	session.State = models.StateEligible
	session.Signature = sig
	session.CampaignRef = ref
	session.FailureReason = ""

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *claimService) PrepareTransaction(ctx context.Context, id string) (*models.PreparedCall, *models.Session, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if session.State != models.StateEligible || session.Signature == nil || session.CampaignRef == nil {
		return nil, nil, invalidTransition(session.State, "prepare transaction")
	}

	campaignID, ok := new(big.Int).SetString(session.CampaignRef.CampaignID, 10)
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeInternal, "Corrupt campaign reference in session")
	}

	call, err := s.callBuilder.BuildClaimCall(
		common.HexToAddress(session.CampaignRef.Manager),
		campaignID,
		*session.Signature,
		chain.ZeroAddress,
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeInternal, "Failed to build claim call")
	}

	session.State = models.StateClaiming
	if err := s.save(ctx, session); err != nil {
		return nil, nil, err
	}

	return call, session, nil
}

// RecordResult stores the wallet's outcome. A submitted transaction's result
// is accepted even after a disconnect, since an in-flight transaction cannot
// be cancelled. Wallet rejection lands in failed and stays retryable.
func (s *claimService) RecordResult(ctx context.Context, id, txHash, walletError string) (*models.Session, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	switch session.State {
	case models.StateClaiming, models.StateAwaitingWalletConnect:
		// expected
	default:
		return nil, invalidTransition(session.State, "record result")
	}

	if txHash != "" {
		session.State = models.StateClaimed
		session.TxHash = txHash
		session.FailureReason = ""
	} else {
		session.State = models.StateFailed
		if walletError == "" {
			walletError = "wallet rejected the transaction"
		}
		session.FailureReason = walletError
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (s *claimService) load(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := s.sessions.Get(ctx, cache.SessionKey(id), &session); err != nil {
		if stderrors.Is(err, cache.ErrCacheMiss) {
			return nil, errors.NewSessionNotFoundError(id)
		}
		return nil, errors.NewCacheError("load session", err)
	}
	return &session, nil
}

func (s *claimService) save(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now()
	if err := s.sessions.Set(ctx, cache.SessionKey(session.ID), session, s.sessionTTL); err != nil {
		return errors.NewCacheError("save session", err)
	}
	return nil
}

func invalidTransition(state models.SessionState, action string) *errors.AppError {
	return errors.New(errors.ErrCodeInvalidTransition, fmt.Sprintf("Cannot %s in state %q", action, state)).
		WithDetail("state", string(state))
}

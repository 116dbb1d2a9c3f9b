package service

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farcaster-claim-backend/internal/common/cache"
	"farcaster-claim-backend/internal/common/config"
	"farcaster-claim-backend/internal/common/errors"
	airdropmodels "farcaster-claim-backend/internal/features/airdrop/models"
	"farcaster-claim-backend/internal/features/claim/models"
	"farcaster-claim-backend/internal/platform/chain"
)

const (
	testClaimer  = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	testManager  = "0x1111111111111111111111111111111111111111"
	testContract = "0xf482f26F43459186a8E17A08a2FbBDf07C7aBc66"
)

type fakeAirdrops struct {
	campaign *airdropmodels.Campaign
	err      error
}

func (f *fakeAirdrops) GetCampaign(ctx context.Context, id, authenticatedUser string) (*airdropmodels.Campaign, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.campaign, nil
}

func (f *fakeAirdrops) GetToken(ctx context.Context, chainID int64, address, authenticatedUser string) (*airdropmodels.TokenData, error) {
	return nil, errors.New(errors.ErrCodeInternal, "not implemented")
}

type fakeEvaluator struct {
	outcome models.Outcome
	err     error
	calls   int
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, condition airdropmodels.Condition, identity models.Identity) (models.Outcome, error) {
	f.calls++
	if f.err != nil {
		return models.Outcome{}, f.err
	}
	return f.outcome, nil
}

type fakeIssuer struct {
	err   error
	calls int
}

func (f *fakeIssuer) Issue(campaignManager common.Address, campaignID *big.Int, claimer common.Address) (*models.ClaimSignature, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.ClaimSignature{
		V: 27,
		R: "0x1111111111111111111111111111111111111111111111111111111111111111",
		S: "0x2222222222222222222222222222222222222222222222222222222222222222",
	}, nil
}

type fakeResolver struct {
	creation *chain.CampaignCreation
	err      error
}

func (f *fakeResolver) ResolveCampaignCreation(ctx context.Context, txHash string) (*chain.CampaignCreation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.creation, nil
}

// memStore is an in-memory SessionStore with the cache service's JSON
// round-trip and miss semantics.
type memStore struct {
	data   map[string][]byte
	getErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

type fixture struct {
	airdrops  *fakeAirdrops
	evaluator *fakeEvaluator
	issuer    *fakeIssuer
	resolver  *fakeResolver
	store     *memStore
	svc       ClaimService
}

func activeCampaign() *airdropmodels.Campaign {
	return &airdropmodels.Campaign{
		ID:     "airdrop-1",
		Title:  "Degen Drop",
		Active: true,
		Token:  airdropmodels.Token{Name: "DEGEN", Symbol: "DEGEN"},
		Conditions: []airdropmodels.Condition{
			{
				Type: airdropmodels.ConditionFarcasterTokenYap,
				Metadata: airdropmodels.ConditionMetadata{
					TokenName: "DEGEN",
					ValidFrom: "2024-05-01T00:00:00Z",
					ValidTo:   "2024-05-31T23:59:59Z",
				},
			},
		},
		TxHash: "0xabc",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Session.TTLSecs = 3600

	builder, err := chain.NewCallBuilder(testContract, "150000000000000")
	require.NoError(t, err)

	f := &fixture{
		airdrops:  &fakeAirdrops{campaign: activeCampaign()},
		evaluator: &fakeEvaluator{outcome: models.Outcome{Status: models.StatusEligible}},
		issuer:    &fakeIssuer{},
		resolver: &fakeResolver{creation: &chain.CampaignCreation{
			Manager:    common.HexToAddress(testManager),
			CampaignID: big.NewInt(7),
		}},
		store: newMemStore(),
	}
	f.svc = NewClaimService(f.airdrops, f.evaluator, f.issuer, f.resolver, builder, f.store, cfg)
	return f
}

func validRequest(checkYap bool) *models.VerifyRequest {
	return &models.VerifyRequest{
		FID:                      42,
		TokenName:                "DEGEN",
		ValidFrom:                "2024-05-01T00:00:00Z",
		ValidTo:                  "2024-05-31T23:59:59Z",
		AirdropID:                "airdrop-1",
		AuthenticatedUserAddress: testClaimer,
		CheckYap:                 checkYap,
	}
}

func TestVerify_CheckedEligible(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Verify(context.Background(), validRequest(true))
	require.NoError(t, err)

	assert.True(t, resp.Eligible)
	assert.Contains(t, []uint8{27, 28}, resp.V)
	assert.NotEmpty(t, resp.R)
	assert.NotEmpty(t, resp.S)
	assert.Equal(t, 1, f.evaluator.calls)
	assert.Equal(t, 1, f.issuer.calls)
}

func TestVerify_CheckedIneligible(t *testing.T) {
	f := newFixture(t)
	f.evaluator.outcome = models.Outcome{Status: models.StatusIneligible, Reason: "no qualifying cast"}

	resp, err := f.svc.Verify(context.Background(), validRequest(true))
	require.NoError(t, err)

	// Ineligibility is a result, not an error, and no signature is minted.
	assert.False(t, resp.Eligible)
	assert.Empty(t, resp.R)
	assert.Equal(t, 0, f.issuer.calls)
}

func TestVerify_UncheckedSignsUnconditionally(t *testing.T) {
	f := newFixture(t)

	req := &models.VerifyRequest{
		AirdropID:                "airdrop-1",
		AuthenticatedUserAddress: testClaimer,
		CheckYap:                 false,
	}

	resp, err := f.svc.Verify(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, resp.Eligible)
	assert.NotEmpty(t, resp.R)
	assert.Equal(t, 0, f.evaluator.calls)
	assert.Equal(t, 1, f.issuer.calls)
}

func TestVerify_MissingParams(t *testing.T) {
	f := newFixture(t)

	t.Run("checked requires the full parameter set", func(t *testing.T) {
		req := validRequest(true)
		req.FID = 0
		req.TokenName = ""

		_, err := f.svc.Verify(context.Background(), req)
		require.Error(t, err)

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
		assert.Contains(t, appErr.Message, "fid")
		assert.Contains(t, appErr.Message, "tokenName")
	})

	t.Run("unchecked ignores scan parameters", func(t *testing.T) {
		req := validRequest(false)
		req.FID = 0
		req.TokenName = ""
		req.ValidFrom = ""
		req.ValidTo = ""

		_, err := f.svc.Verify(context.Background(), req)
		assert.NoError(t, err)
	})

	t.Run("claimer address is always required", func(t *testing.T) {
		req := validRequest(false)
		req.AuthenticatedUserAddress = ""

		_, err := f.svc.Verify(context.Background(), req)
		require.Error(t, err)

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Contains(t, appErr.Message, "authenticatedUserAddress")
	})
}

func TestVerify_InactiveCampaign(t *testing.T) {
	f := newFixture(t)
	f.airdrops.campaign.Active = false

	_, err := f.svc.Verify(context.Background(), validRequest(true))
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCampaignInactive, appErr.Code)
	assert.Equal(t, 0, f.issuer.calls)
}

func TestVerify_ReceiptResolutionFailure(t *testing.T) {
	f := newFixture(t)
	f.resolver.err = errors.NewReceiptResolutionError("0xabc", assert.AnError)

	_, err := f.svc.Verify(context.Background(), validRequest(true))
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeReceiptResolution, appErr.Code)
}

func TestSession_HappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42})
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingWalletConnect, session.State)

	session, err = f.svc.ConnectWallet(ctx, session.ID, testClaimer)
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, session.State)

	session, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateEligible, session.State)
	require.NotNil(t, session.Signature)
	require.NotNil(t, session.CampaignRef)
	assert.Equal(t, common.HexToAddress(testManager).Hex(), session.CampaignRef.Manager)
	assert.Equal(t, "7", session.CampaignRef.CampaignID)

	call, session, err := f.svc.PrepareTransaction(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateClaiming, session.State)
	assert.Equal(t, testContract, call.To)
	assert.Equal(t, "150000000000000", call.Value)
	assert.NotEmpty(t, call.Data)

	session, err = f.svc.RecordResult(ctx, session.ID, "0xdeadbeef", "")
	require.NoError(t, err)
	assert.Equal(t, models.StateClaimed, session.State)
	assert.Equal(t, "0xdeadbeef", session.TxHash)
}

func TestSession_CreateWithConnectedWallet(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.CreateSession(context.Background(), "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, session.State)
}

func TestSession_LoadError(t *testing.T) {
	f := newFixture(t)
	f.airdrops.err = errors.NewCampaignNotFoundError("airdrop-1")

	session, err := f.svc.CreateSession(context.Background(), "airdrop-1", models.Identity{FID: 42})
	require.NoError(t, err)

	assert.Equal(t, models.StateLoadError, session.State)
	assert.NotEmpty(t, session.FailureReason)

	// Terminal: the session cannot be revived by connecting a wallet.
	_, err = f.svc.ConnectWallet(context.Background(), session.ID, testClaimer)
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidTransition, appErr.Code)
}

func TestSession_DisconnectDiscardsSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)

	session, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, session.Signature)

	session, err = f.svc.DisconnectWallet(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StateAwaitingWalletConnect, session.State)
	assert.Empty(t, session.Identity.WalletAddress)
	assert.Nil(t, session.Signature)
	assert.Nil(t, session.Outcome)
}

func TestSession_DisconnectFromAnyNonTerminalState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Reached claiming.
	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)
	_, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)
	_, _, err = f.svc.PrepareTransaction(ctx, session.ID)
	require.NoError(t, err)

	session, err = f.svc.DisconnectWallet(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingWalletConnect, session.State)

	// A transaction already in flight can still land its result.
	session, err = f.svc.RecordResult(ctx, session.ID, "0xdeadbeef", "")
	require.NoError(t, err)
	assert.Equal(t, models.StateClaimed, session.State)
}

func TestSession_DisconnectAfterClaimedRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)
	_, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)
	_, _, err = f.svc.PrepareTransaction(ctx, session.ID)
	require.NoError(t, err)
	_, err = f.svc.RecordResult(ctx, session.ID, "0xdeadbeef", "")
	require.NoError(t, err)

	_, err = f.svc.DisconnectWallet(ctx, session.ID)
	assert.Error(t, err)
}

func TestSession_VerifyIneligible(t *testing.T) {
	f := newFixture(t)
	f.evaluator.outcome = models.Outcome{Status: models.StatusIneligible, Reason: "no qualifying cast"}
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)

	session, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StateIneligible, session.State)
	assert.Nil(t, session.Signature)
	assert.Equal(t, 0, f.issuer.calls)

	// Ineligible sessions may re-verify.
	f.evaluator.outcome = models.Outcome{Status: models.StatusEligible}
	session, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateEligible, session.State)
}

func TestSession_VerifyFeedFailureRestoresState(t *testing.T) {
	f := newFixture(t)
	f.evaluator.err = errors.NewFeedUnavailableError(assert.AnError)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)

	_, err = f.svc.VerifySession(ctx, session.ID)
	require.Error(t, err)

	// Retryable: the session returns to ready rather than a terminal state.
	session, err = f.svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateReady, session.State)
}

func TestSession_VerifySigningFailure(t *testing.T) {
	f := newFixture(t)
	f.issuer.err = errors.NewSigningError(assert.AnError)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)

	_, err = f.svc.VerifySession(ctx, session.ID)
	require.Error(t, err)

	session, err = f.svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, session.State)
	assert.NotEmpty(t, session.FailureReason)

	// Failed sessions may retry verification.
	f.issuer.err = nil
	session, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateEligible, session.State)
}

func TestSession_VerifyRequiresWallet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42})
	require.NoError(t, err)

	_, err = f.svc.VerifySession(ctx, session.ID)
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidTransition, appErr.Code)
}

func TestSession_PrepareRequiresEligible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)

	_, _, err = f.svc.PrepareTransaction(ctx, session.ID)
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidTransition, appErr.Code)
}

func TestSession_RecordWalletRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)
	_, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)
	_, _, err = f.svc.PrepareTransaction(ctx, session.ID)
	require.NoError(t, err)

	session, err = f.svc.RecordResult(ctx, session.ID, "", "user rejected in wallet")
	require.NoError(t, err)

	assert.Equal(t, models.StateFailed, session.State)
	assert.Equal(t, "user rejected in wallet", session.FailureReason)

	// Rejection is not terminal; re-verification mints a fresh signature.
	session, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateEligible, session.State)
}

func TestSession_SwitchWalletDiscardsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	otherWallet := "0x1234567890AbcdEF1234567890aBcdef12345678"

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)

	session, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)
	require.NotNil(t, session.Signature)

	// Connecting a different wallet over a verified session discards the
	// previous wallet's verification entirely.
	session, err = f.svc.ConnectWallet(ctx, session.ID, otherWallet)
	require.NoError(t, err)

	assert.Equal(t, models.StateReady, session.State)
	assert.Equal(t, otherWallet, session.Identity.WalletAddress)
	assert.Nil(t, session.Signature)
	assert.Nil(t, session.Outcome)
	assert.Nil(t, session.CampaignRef)

	// No claim call can be built from the stale verification.
	_, _, err = f.svc.PrepareTransaction(ctx, session.ID)
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidTransition, appErr.Code)
}

func TestSession_ReconnectSameWalletKeepsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, "airdrop-1", models.Identity{FID: 42, WalletAddress: testClaimer})
	require.NoError(t, err)

	session, err = f.svc.VerifySession(ctx, session.ID)
	require.NoError(t, err)

	session, err = f.svc.ConnectWallet(ctx, session.ID, testClaimer)
	require.NoError(t, err)

	assert.Equal(t, models.StateEligible, session.State)
	assert.NotNil(t, session.Signature)
}

func TestSession_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetSession(context.Background(), "missing")
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSessionNotFound, appErr.Code)
}

func TestSession_StoreOutageIsNotNotFound(t *testing.T) {
	f := newFixture(t)
	f.store.getErr = assert.AnError

	_, err := f.svc.GetSession(context.Background(), "s1")
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCacheError, appErr.Code)
}

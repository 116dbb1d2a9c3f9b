package models

import (
	"time"
)

// Identity is the caller's Farcaster identity bundle: numeric fid plus the
// wallet address the frame client is connected with. Both are attested by the
// client through request headers.
type Identity struct {
	FID           int64  `json:"fid"`
	WalletAddress string `json:"walletAddress"`
}

// EligibilityStatus is the outcome class of an eligibility evaluation.
type EligibilityStatus string

const (
	// StatusEligible means a qualifying cast was found server-side.
	StatusEligible EligibilityStatus = "eligible"

	// StatusIneligible means the condition was checked and not satisfied.
	StatusIneligible EligibilityStatus = "ineligible"

	// StatusClientAttested marks follow-type conditions, for which no server
	// check exists. Never silently equivalent to eligible: callers must treat
	// it as an unverified claim by the client.
	StatusClientAttested EligibilityStatus = "client_attested"
)

// Outcome is the result of evaluating a condition for an identity.
type Outcome struct {
	Status EligibilityStatus `json:"status"`
	Reason string            `json:"reason,omitempty"`
}

func (o Outcome) Passed() bool {
	return o.Status == StatusEligible || o.Status == StatusClientAttested
}

// ClaimSignature is the split ECDSA signature over the EIP-712 claim message.
// V is the canonical recovery id (27 or 28); R and S are 0x-prefixed 32-byte
// hex scalars. It is bound to (campaignManager, campaignId, claimer) at
// signing time and held only for the duration of one claim attempt.
type ClaimSignature struct {
	V uint8  `json:"v"`
	R string `json:"r"`
	S string `json:"s"`
}

// CampaignRef is the on-chain reference recovered from the campaign-creation
// receipt: the managing address and the numeric campaign id, as a decimal
// string to survive JSON round-trips.
type CampaignRef struct {
	Manager    string `json:"manager"`
	CampaignID string `json:"campaignId"`
}

// VerifyRequest is the signing endpoint's input. When CheckYap is false the
// signature is issued without a server-side feed scan; that path trusts the
// caller to have established eligibility (follow-type conditions).
type VerifyRequest struct {
	FID                      int64  `json:"fid"`
	TokenName                string `json:"tokenName"`
	ValidFrom                string `json:"validFrom"`
	ValidTo                  string `json:"validTo"`
	AirdropID                string `json:"airdropId"`
	AuthenticatedUserAddress string `json:"authenticatedUserAddress"`
	CheckYap                 bool   `json:"checkYap"`
}

// MissingFields lists every absent required parameter, not just the first.
// Only the airdrop id and claimer address are required when the feed scan is
// skipped.
func (r *VerifyRequest) MissingFields() []string {
	var missing []string
	if r.CheckYap {
		if r.FID == 0 {
			missing = append(missing, "fid")
		}
		if r.TokenName == "" {
			missing = append(missing, "tokenName")
		}
		if r.ValidFrom == "" {
			missing = append(missing, "validFrom")
		}
		if r.ValidTo == "" {
			missing = append(missing, "validTo")
		}
	}
	if r.AirdropID == "" {
		missing = append(missing, "airdropId")
	}
	if r.AuthenticatedUserAddress == "" {
		missing = append(missing, "authenticatedUserAddress")
	}
	return missing
}

// VerifyResponse mirrors the original endpoint contract: eligible plus the
// signature components when a signature was issued.
type VerifyResponse struct {
	Eligible bool   `json:"eligible"`
	V        uint8  `json:"v,omitempty"`
	R        string `json:"r,omitempty"`
	S        string `json:"s,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SessionState is a claim-session state machine node.
type SessionState string

const (
	StateIdle                  SessionState = "idle"
	StateFetchingCampaign      SessionState = "fetching_campaign"
	StateLoadError             SessionState = "load_error"
	StateAwaitingWalletConnect SessionState = "awaiting_wallet_connect"
	StateReady                 SessionState = "ready"
	StateVerifying             SessionState = "verifying"
	StateEligible              SessionState = "eligible"
	StateIneligible            SessionState = "ineligible"
	StateClaiming              SessionState = "claiming"
	StateClaimed               SessionState = "claimed"
	StateFailed                SessionState = "failed"
)

// Terminal reports whether a session can no longer transition.
func (s SessionState) Terminal() bool {
	return s == StateLoadError || s == StateClaimed
}

// Session is the server-side claim orchestration record, persisted per
// claim attempt. The signature is kept only here and replaced on every
// re-verification.
type Session struct {
	ID            string          `json:"id"`
	AirdropID     string          `json:"airdropId"`
	State         SessionState    `json:"state"`
	Identity      Identity        `json:"identity"`
	CampaignRef   *CampaignRef    `json:"campaignRef,omitempty"`
	Signature     *ClaimSignature `json:"signature,omitempty"`
	Outcome       *Outcome        `json:"outcome,omitempty"`
	TxHash        string          `json:"txHash,omitempty"`
	FailureReason string          `json:"failureReason,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// PreparedCall is the claim transaction handed to the wallet: destination,
// calldata and the native-currency claim fee.
type PreparedCall struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

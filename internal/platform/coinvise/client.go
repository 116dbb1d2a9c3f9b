package coinvise

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"farcaster-claim-backend/internal/common/errors"
	"farcaster-claim-backend/internal/features/airdrop/models"
	claimmodels "farcaster-claim-backend/internal/features/claim/models"
)

// Client talks to the campaign directory. Every call carries the API key and
// the authenticated user's wallet address, matching what the directory
// expects from frame clients.
type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string, timeout time.Duration, retryMax int) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.HTTPClient.Timeout = timeout
	retryClient.Logger = nil

	return &Client{
		httpClient: retryClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// GetAirdrop fetches a campaign record by id.
func (c *Client) GetAirdrop(ctx context.Context, id, authenticatedUser string) (*models.Campaign, error) {
	var campaign models.Campaign
	url := fmt.Sprintf("%s/airdrop/%s", c.baseURL, id)
	if err := c.getJSON(ctx, url, authenticatedUser, &campaign); err != nil {
		return nil, err
	}

	if campaign.ID == "" {
		return nil, errors.NewCampaignNotFoundError(id)
	}

	return &campaign, nil
}

// GetToken fetches extended token metadata for a token on a chain.
func (c *Client) GetToken(ctx context.Context, chainID int64, address, authenticatedUser string) (*models.TokenData, error) {
	var token models.TokenData
	url := fmt.Sprintf("%s/token/%d/%s", c.baseURL, chainID, address)
	if err := c.getJSON(ctx, url, authenticatedUser, &token); err != nil {
		return nil, err
	}

	return &token, nil
}

type verifyResponse struct {
	Signature *claimmodels.ClaimSignature `json:"signature"`
}

// VerifySignature asks the directory to re-confirm eligibility and return a
// signature triple directly. Legacy path for deployments where the directory
// holds the signing key instead of this service.
func (c *Client) VerifySignature(ctx context.Context, airdropID, authenticatedUser string) (*claimmodels.ClaimSignature, error) {
	var resp verifyResponse
	url := fmt.Sprintf("%s/airdrop/verify?id=%s", c.baseURL, airdropID)
	if err := c.getJSON(ctx, url, authenticatedUser, &resp); err != nil {
		return nil, err
	}

	if resp.Signature == nil {
		return nil, errors.New(errors.ErrCodeSigning, "Directory verification returned no signature")
	}

	return resp.Signature, nil
}

func (c *Client) getJSON(ctx context.Context, url, authenticatedUser string, dest interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.NewDirectoryError("build request", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("X-Authenticated-User", authenticatedUser)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewDirectoryError("request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewDirectoryError("read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewDirectoryError("request", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)).
			WithDetail("status", resp.StatusCode)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return errors.NewDirectoryError("decode response", err)
	}

	return nil
}

package models

// ConditionType is the eligibility rule variant attached to a campaign.
type ConditionType string

const (
	// ConditionFarcasterTokenYap requires a cast mentioning the token within
	// the condition's validity window.
	ConditionFarcasterTokenYap ConditionType = "FARCASTER_TOKEN_YAP"

	// ConditionFarcasterFollow requires following listed accounts. There is no
	// server-side check for this variant; the client attests completion after
	// opening the follow links.
	ConditionFarcasterFollow ConditionType = "FARCASTER_FOLLOW"
)

// ConditionMetadata carries the rule parameters. ValidFrom/ValidTo are
// ISO 8601 timestamps bounding the window, inclusive on both ends.
type ConditionMetadata struct {
	FarcasterUsername string   `json:"farcasterUsername,omitempty"`
	TokenName         string   `json:"tokenName,omitempty"`
	ValidFrom         string   `json:"validFrom,omitempty"`
	ValidTo           string   `json:"validTo,omitempty"`
	Accounts          []string `json:"accounts,omitempty"`
}

// Condition is a single eligibility rule. Campaigns carry an ordered list but
// only the first condition is evaluated; multi-condition evaluation is a
// noted limitation of the current flow.
type Condition struct {
	Type     ConditionType     `json:"type"`
	Metadata ConditionMetadata `json:"metadata"`
}

// Token is the asset a campaign distributes.
type Token struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	ImageURL string `json:"imageUrl"`
}

// CampaignMetadata is display-only campaign decoration.
type CampaignMetadata struct {
	CoverImage string `json:"coverImage,omitempty"`
}

// Campaign identifies a claimable airdrop as served by the campaign
// directory. TxHash references the on-chain campaign-creation transaction;
// the claim flow re-reads its receipt to recover the campaign manager and
// numeric campaign id.
type Campaign struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Active      bool             `json:"active"`
	Token       Token            `json:"token"`
	Conditions  []Condition      `json:"conditions"`
	TxHash      string           `json:"txHash"`
	ImageURL    string           `json:"imageUrl,omitempty"`
	Metadata    CampaignMetadata `json:"metadata,omitempty"`
}

// FirstCondition returns the campaign's first condition, the only one the
// claim flow evaluates.
func (c *Campaign) FirstCondition() (Condition, bool) {
	if len(c.Conditions) == 0 {
		return Condition{}, false
	}
	return c.Conditions[0], true
}

// TokenData is extended token metadata from the directory's token endpoint.
type TokenData struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Description     string `json:"description"`
	ImageURL        string `json:"imageUrl"`
	TokenSupply     string `json:"tokenSupply"`
	Decimals        int    `json:"decimals"`
	LpLockerAddress string `json:"lpLockerAddress"`
}

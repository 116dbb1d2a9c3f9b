package eligibility

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farcaster-claim-backend/internal/common/errors"
	"farcaster-claim-backend/internal/common/logger"
	airdropmodels "farcaster-claim-backend/internal/features/airdrop/models"
	"farcaster-claim-backend/internal/features/claim/models"
	"farcaster-claim-backend/internal/platform/neynar"
)

// Feed is the slice of the social feed client the evaluator needs.
type Feed interface {
	UserCasts(ctx context.Context, fid int64, limit int) ([]neynar.Cast, error)
}

// Evaluator decides claim eligibility for a condition and identity.
type Evaluator struct {
	feed      Feed
	castLimit int
}

func NewEvaluator(feed Feed, castLimit int) *Evaluator {
	if castLimit <= 0 {
		castLimit = 100
	}
	return &Evaluator{feed: feed, castLimit: castLimit}
}

// Evaluate checks the condition for the identity. Yap conditions scan the
// user's recent casts; follow conditions have no server-side check and come
// back client-attested so callers cannot mistake them for a verified result.
func (e *Evaluator) Evaluate(ctx context.Context, condition airdropmodels.Condition, identity models.Identity) (models.Outcome, error) {
	switch condition.Type {
	case airdropmodels.ConditionFarcasterTokenYap:
		return e.evaluateYap(ctx, condition.Metadata, identity)

	case airdropmodels.ConditionFarcasterFollow:
		return models.Outcome{
			Status: models.StatusClientAttested,
			Reason: "follow conditions are completed in the client and not verified server-side",
		}, nil

	default:
		return models.Outcome{}, errors.NewValidationError("condition.type", fmt.Sprintf("unsupported condition type %q", condition.Type))
	}
}

func (e *Evaluator) evaluateYap(ctx context.Context, meta airdropmodels.ConditionMetadata, identity models.Identity) (models.Outcome, error) {
	if identity.FID == 0 {
		return models.Outcome{}, errors.NewValidationError("fid", "farcaster id is required for yap conditions")
	}

	validFrom, validTo, err := parseWindow(meta.ValidFrom, meta.ValidTo)
	if err != nil {
		return models.Outcome{}, errors.NewValidationError("condition.metadata", err.Error())
	}

	casts, err := e.feed.UserCasts(ctx, identity.FID, e.castLimit)
	if err != nil {
		return models.Outcome{}, err
	}

	// Scan in feed order and stop at the first qualifying cast. An empty feed
	// is an answer (ineligible), not an error.
	for _, cast := range casts {
		ts, err := time.Parse(time.RFC3339, cast.Timestamp)
		if err != nil {
			logger.Debug().Str("cast", cast.Hash).Str("timestamp", cast.Timestamp).Msg("skipping cast with unparseable timestamp")
			continue
		}

		if WithinWindow(ts, validFrom, validTo) && MatchesToken(cast.Text, meta.TokenName) {
			logger.Info().Int64("fid", identity.FID).Str("cast", cast.Hash).Msg("qualifying cast found")
			return models.Outcome{Status: models.StatusEligible}, nil
		}
	}

	return models.Outcome{
		Status: models.StatusIneligible,
		Reason: fmt.Sprintf("no cast mentioning %q between %s and %s", meta.TokenName, meta.ValidFrom, meta.ValidTo),
	}, nil
}

// WithinWindow reports whether ts falls inside [from, to], inclusive on both
// ends.
func WithinWindow(ts, from, to time.Time) bool {
	return !ts.Before(from) && !ts.After(to)
}

// MatchesToken reports whether text mentions tokenName, case-insensitively.
// Substring semantics, not whole-word.
func MatchesToken(text, tokenName string) bool {
	if tokenName == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(tokenName))
}

func parseWindow(validFrom, validTo string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, validFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid validFrom %q: %v", validFrom, err)
	}

	to, err := time.Parse(time.RFC3339, validTo)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid validTo %q: %v", validTo, err)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("validTo %q precedes validFrom %q", validTo, validFrom)
	}

	return from, to, nil
}

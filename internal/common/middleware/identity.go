package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"farcaster-claim-backend/internal/features/claim/models"
)

const (
	// HeaderAuthenticatedUser carries the wallet address the frame client is
	// connected with. The campaign directory expects the same header upstream.
	HeaderAuthenticatedUser = "X-Authenticated-User"

	// HeaderFarcasterFID carries the numeric Farcaster user id from the frame
	// context. Both headers are client-attested: the frame SDK is the only
	// authentication surface the client has, so the server treats the pair as
	// an identity claim, not a proof.
	HeaderFarcasterFID = "X-Farcaster-Fid"

	identityContextKey = "identity"
)

// FrameIdentity extracts the caller's Farcaster identity from request
// headers and stores it in the gin context for downstream handlers.
func FrameIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := models.Identity{
			WalletAddress: c.GetHeader(HeaderAuthenticatedUser),
		}

		if fidStr := c.GetHeader(HeaderFarcasterFID); fidStr != "" {
			fid, err := strconv.ParseInt(fidStr, 10, 64)
			if err != nil || fid <= 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + HeaderFarcasterFID + " header"})
				return
			}
			identity.FID = fid
		}

		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// RequireIdentity rejects requests that did not present both identity headers.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok || identity.FID == 0 || identity.WalletAddress == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Farcaster identity headers required"})
			return
		}

		c.Next()
	}
}

// GetIdentity returns the identity stored by FrameIdentity.
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	v, exists := c.Get(identityContextKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := v.(models.Identity)
	return identity, ok
}

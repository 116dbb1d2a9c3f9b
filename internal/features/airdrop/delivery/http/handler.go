package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"farcaster-claim-backend/internal/common/errors"
	"farcaster-claim-backend/internal/common/middleware"
	"farcaster-claim-backend/internal/features/airdrop/service"
)

type AirdropHandler struct {
	service service.AirdropService
}

func NewAirdropHandler(service service.AirdropService) *AirdropHandler {
	return &AirdropHandler{service: service}
}

func (h *AirdropHandler) RegisterRoutes(router *gin.RouterGroup) {
	airdrops := router.Group("/airdrops")
	{
		airdrops.GET("/:id", h.getByID)
	}

	tokens := router.Group("/tokens")
	{
		tokens.GET("/:chainId/:address", h.getToken)
	}
}

// @Summary Get airdrop campaign
// @Description Fetches a campaign record from the campaign directory
// @Tags airdrops
// @Produce json
// @Param id path string true "Airdrop id"
// @Success 200 {object} models.Campaign
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /airdrops/{id} [get]
func (h *AirdropHandler) getByID(c *gin.Context) {
	identity, _ := middleware.GetIdentity(c)

	campaign, err := h.service.GetCampaign(c.Request.Context(), c.Param("id"), identity.WalletAddress)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

// @Summary Get token metadata
// @Description Fetches extended token metadata for a token on a chain
// @Tags tokens
// @Produce json
// @Param chainId path int true "Chain id"
// @Param address path string true "Token address"
// @Success 200 {object} models.TokenData
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /tokens/{chainId}/{address} [get]
func (h *AirdropHandler) getToken(c *gin.Context) {
	chainID, err := strconv.ParseInt(c.Param("chainId"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidationError("chainId", "must be a numeric chain id"))
		return
	}

	identity, _ := middleware.GetIdentity(c)

	token, err := h.service.GetToken(c.Request.Context(), chainID, c.Param("address"), identity.WalletAddress)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, token)
}

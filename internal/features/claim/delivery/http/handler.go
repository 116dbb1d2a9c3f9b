package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farcaster-claim-backend/internal/common/middleware"
	"farcaster-claim-backend/internal/features/claim/models"
	"farcaster-claim-backend/internal/features/claim/service"
)

type ClaimHandler struct {
	service service.ClaimService
}

func NewClaimHandler(service service.ClaimService) *ClaimHandler {
	return &ClaimHandler{service: service}
}

func (h *ClaimHandler) RegisterRoutes(router *gin.RouterGroup) {
	claims := router.Group("/claims")
	{
		claims.POST("/verify", h.verify)

		sessions := claims.Group("/sessions")
		{
			sessions.POST("", middleware.RequireIdentity(), h.createSession)
			sessions.GET("/:id", h.getSession)
			sessions.POST("/:id/wallet", h.connectWallet)
			sessions.DELETE("/:id/wallet", h.disconnectWallet)
			sessions.POST("/:id/verify", h.verifySession)
			sessions.POST("/:id/transaction", h.prepareTransaction)
			sessions.POST("/:id/result", h.recordResult)
		}
	}
}

// @Summary Verify eligibility and issue a claim signature
// @Description Checks the caller's recent casts against the campaign window when checkYap is true, then signs the claim. With checkYap false the signature is issued without a server-side check.
// @Tags claims
// @Accept json
// @Produce json
// @Param input body models.VerifyRequest true "Verification request"
// @Success 200 {object} models.VerifyResponse
// @Failure 400 {object} middleware.ErrorResponse "Missing parameters, all listed"
// @Failure 502 {object} middleware.ErrorResponse "Social feed or directory unavailable"
// @Router /claims/verify [post]
func (h *ClaimHandler) verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Verify(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type createSessionRequest struct {
	AirdropID string `json:"airdropId" binding:"required"`
}

// @Summary Start a claim session
// @Tags claims
// @Accept json
// @Produce json
// @Security FrameIdentity
// @Param input body createSessionRequest true "Airdrop to claim"
// @Success 201 {object} models.Session
// @Failure 401 {object} middleware.ErrorResponse
// @Router /claims/sessions [post]
func (h *ClaimHandler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, _ := middleware.GetIdentity(c)

	session, err := h.service.CreateSession(c.Request.Context(), req.AirdropID, identity)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// @Summary Get a claim session
// @Tags claims
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} models.Session
// @Failure 404 {object} middleware.ErrorResponse
// @Router /claims/sessions/{id} [get]
func (h *ClaimHandler) getSession(c *gin.Context) {
	session, err := h.service.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, session)
}

type connectWalletRequest struct {
	Address string `json:"address" binding:"required"`
}

func (h *ClaimHandler) connectWallet(c *gin.Context) {
	var req connectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.ConnectWallet(c.Request.Context(), c.Param("id"), req.Address)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *ClaimHandler) disconnectWallet(c *gin.Context) {
	session, err := h.service.DisconnectWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// @Summary Verify a claim session
// @Description Runs the eligibility check for the session's campaign and, on success, stores a fresh claim signature.
// @Tags claims
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} models.Session
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse "Retryable: session returns to its previous state"
// @Router /claims/sessions/{id}/verify [post]
func (h *ClaimHandler) verifySession(c *gin.Context) {
	session, err := h.service.VerifySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, session)
}

type prepareTransactionResponse struct {
	Session *models.Session      `json:"session"`
	Call    *models.PreparedCall `json:"call"`
}

// @Summary Prepare the claim transaction
// @Description Returns the contract call the wallet should submit, with the fixed claim fee as value.
// @Tags claims
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} prepareTransactionResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /claims/sessions/{id}/transaction [post]
func (h *ClaimHandler) prepareTransaction(c *gin.Context) {
	call, session, err := h.service.PrepareTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, prepareTransactionResponse{Session: session, Call: call})
}

type recordResultRequest struct {
	TxHash string `json:"txHash"`
	Error  string `json:"error"`
}

func (h *ClaimHandler) recordResult(c *gin.Context) {
	var req recordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.RecordResult(c.Request.Context(), c.Param("id"), req.TxHash, req.Error)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, session)
}

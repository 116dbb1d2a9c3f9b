package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "farcaster-claim-backend/docs"
	"farcaster-claim-backend/internal/common/cache"
	"farcaster-claim-backend/internal/common/config"
	"farcaster-claim-backend/internal/common/logger"
	"farcaster-claim-backend/internal/common/middleware"
	airdropdelivery "farcaster-claim-backend/internal/features/airdrop/delivery/http"
	airdropservice "farcaster-claim-backend/internal/features/airdrop/service"
	claimdelivery "farcaster-claim-backend/internal/features/claim/delivery/http"
	"farcaster-claim-backend/internal/features/claim/eligibility"
	claimservice "farcaster-claim-backend/internal/features/claim/service"
	"farcaster-claim-backend/internal/features/claim/signer"
	"farcaster-claim-backend/internal/platform/chain"
	"farcaster-claim-backend/internal/platform/coinvise"
	"farcaster-claim-backend/internal/platform/neynar"
	redisplatform "farcaster-claim-backend/internal/platform/redis"

	zlog "github.com/rs/zerolog/log"
)

// @title           Farcaster Claim API
// @version         1.0
// @description     Backend for a Farcaster Frame that verifies airdrop eligibility and issues EIP-712 claim signatures.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey FrameIdentity
// @in header
// @name X-Authenticated-User
// @description Wallet address the frame client is connected with, paired with X-Farcaster-Fid

// @tag.name airdrops
// @tag.description Campaign directory reads

// @tag.name claims
// @tag.description Eligibility verification, signature issuance and claim sessions

func main() {
	cfg := config.MustLoad()

	logger.Init("farcaster-claim-backend", cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisplatform.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	cacheService := cache.NewCacheService(rdb)

	directory := coinvise.NewClient(
		cfg.Coinvise.BaseURL,
		cfg.Coinvise.APIKey,
		time.Duration(cfg.Coinvise.TimeoutSecs)*time.Second,
		cfg.Coinvise.RetryMax,
	)

	feed := neynar.NewClient(
		cfg.Neynar.BaseURL,
		cfg.Neynar.APIKey,
		time.Duration(cfg.Neynar.TimeoutSecs)*time.Second,
		cfg.Neynar.RetryMax,
		cfg.Neynar.RPS,
	)

	chainClient, err := chain.Dial(cfg.Chain.RPCURL, time.Duration(cfg.Chain.TimeoutSecs)*time.Second)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to chain RPC")
	}

	callBuilder, err := chain.NewCallBuilder(cfg.Chain.ClaimContract, cfg.Chain.ClaimFeeWei)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid claim contract configuration")
	}

	// A missing or malformed signing key is a configuration fault; there is
	// no unsigned fallback in any environment.
	issuer, err := signer.NewIssuer(
		cfg.Signer.PrivateKey,
		cfg.Signer.Domain.Name,
		cfg.Signer.Domain.Version,
		cfg.Chain.ChainID,
		cfg.Chain.ClaimContract,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize claim signer")
	}
	logger.Info().Str("signer", issuer.Address().Hex()).Msg("Claim signer initialized")

	evaluator := eligibility.NewEvaluator(feed, cfg.Neynar.CastLimit)

	airdropSvc := airdropservice.NewAirdropService(directory, cacheService, cfg)
	claimSvc := claimservice.NewClaimService(airdropSvc, evaluator, issuer, chainClient, callBuilder, cacheService, cfg)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	// ErrorHandler recovers panics itself; gin.Recovery would intercept them
	// first and answer with a bare 500.
	router.Use(middleware.ErrorHandler(zlog.Logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", middleware.HeaderAuthenticatedUser, middleware.HeaderFarcasterFID}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.FrameIdentity())

	airdropdelivery.NewAirdropHandler(airdropSvc).RegisterRoutes(v1)
	claimdelivery.NewClaimHandler(claimSvc).RegisterRoutes(v1)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Info().Msg("Server exited")
}

package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	// Coinvise is the campaign directory holding airdrop and token records.
	Coinvise struct {
		BaseURL        string `env:"COINVISE_BASE_URL" envDefault:"https://api-staging.coinvise.co"`
		APIKey         string `env:"COINVISE_API_KEY,required"`
		TimeoutSecs    int    `env:"COINVISE_TIMEOUT_SECS" envDefault:"10"`
		RetryMax       int    `env:"COINVISE_RETRY_MAX" envDefault:"3"`
		CampaignTTLSec int    `env:"COINVISE_CAMPAIGN_CACHE_TTL_SECS" envDefault:"60"`
		TokenTTLSec    int    `env:"COINVISE_TOKEN_CACHE_TTL_SECS" envDefault:"300"`
	}

	// Neynar is the social feed used to scan a user's recent casts.
	Neynar struct {
		BaseURL     string  `env:"NEYNAR_BASE_URL" envDefault:"https://api.neynar.com"`
		APIKey      string  `env:"NEYNAR_API_KEY,required"`
		TimeoutSecs int     `env:"NEYNAR_TIMEOUT_SECS" envDefault:"10"`
		RetryMax    int     `env:"NEYNAR_RETRY_MAX" envDefault:"3"`
		CastLimit   int     `env:"NEYNAR_CAST_LIMIT" envDefault:"100"`
		RPS         float64 `env:"NEYNAR_RPS" envDefault:"5"`
	}

	Chain struct {
		RPCURL        string `env:"CHAIN_RPC_URL,required"`
		ChainID       int64  `env:"CHAIN_ID" envDefault:"8453"`
		ClaimContract string `env:"CLAIM_CONTRACT_ADDRESS,required"`
		ClaimFeeWei   string `env:"CLAIM_FEE_WEI" envDefault:"150000000000000"`
		TimeoutSecs   int    `env:"CHAIN_TIMEOUT_SECS" envDefault:"15"`
	}

	Signer struct {
		// Hex-encoded secp256k1 key, no 0x prefix. Never logged, never served.
		PrivateKey string `env:"SIGNER_PRIVATE_KEY,required"`
		Domain     struct {
			Name    string `env:"EIP712_DOMAIN_NAME" envDefault:"Campaigns"`
			Version string `env:"EIP712_DOMAIN_VERSION" envDefault:"1.0"`
		}
	}

	Session struct {
		TTLSecs int `env:"CLAIM_SESSION_TTL_SECS" envDefault:"3600"`
	}
}

func Load() (*Config, error) {
	// Missing .env is fine, production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

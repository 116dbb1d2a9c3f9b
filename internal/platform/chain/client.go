package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"farcaster-claim-backend/internal/common/errors"
	"farcaster-claim-backend/internal/common/logger"
)

// Client reads the chain through a JSON-RPC endpoint. It only ever reads;
// transaction submission belongs to the user's wallet.
type Client struct {
	eth     *ethclient.Client
	timeout time.Duration
}

func Dial(rpcURL string, timeout time.Duration) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial chain rpc: %w", err)
	}

	return &Client{eth: eth, timeout: timeout}, nil
}

// ResolveCampaignCreation fetches the receipt for the campaign-creation
// transaction and extracts the manager address and campaign id from its
// creation-event log. The receipt read is retried with backoff since RPC
// nodes drop reads transiently; a receipt without the expected log is not
// retried, it is a data inconsistency.
func (c *Client) ResolveCampaignCreation(ctx context.Context, txHash string) (*CampaignCreation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	hash := common.HexToHash(txHash)

	var receipt *types.Receipt
	err := backoff.Retry(func() error {
		var err error
		receipt, err = c.eth.TransactionReceipt(ctx, hash)
		if err != nil {
			logger.Warn().Err(err).Str("tx_hash", txHash).Msg("receipt fetch failed, retrying")
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx))
	if err != nil {
		return nil, errors.NewReceiptResolutionError(txHash, fmt.Errorf("fetch receipt: %w", err))
	}

	creation, err := FindCampaignCreation(receipt.Logs)
	if err != nil {
		return nil, errors.NewReceiptResolutionError(txHash, err)
	}

	return creation, nil
}

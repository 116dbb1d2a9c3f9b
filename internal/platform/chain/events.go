package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CampaignCreatedTopic is topic0 of the campaign-creation event emitted by
// the claim contract when a campaign is funded.
var CampaignCreatedTopic = common.HexToHash("0xfc5b9d1c2c1134048e1792e3ae27d4eee04f460d341711c7088000d2ca218621")

// CampaignCreation is the decoded creation event: the managing address from
// topic1 and the numeric campaign id from topic2.
type CampaignCreation struct {
	Manager    common.Address
	CampaignID *big.Int
}

// FindCampaignCreation scans receipt logs for the creation event and decodes
// it. Absence of a matching log means the directory record and the chain
// disagree; the claim attempt cannot proceed.
func FindCampaignCreation(logs []*types.Log) (*CampaignCreation, error) {
	for _, l := range logs {
		if len(l.Topics) < 3 || l.Topics[0] != CampaignCreatedTopic {
			continue
		}

		return &CampaignCreation{
			Manager:    common.BytesToAddress(l.Topics[1].Bytes()[12:]),
			CampaignID: new(big.Int).SetBytes(l.Topics[2].Bytes()),
		}, nil
	}

	return nil, fmt.Errorf("no log with campaign creation topic %s", CampaignCreatedTopic.Hex())
}

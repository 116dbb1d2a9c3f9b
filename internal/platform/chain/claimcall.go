package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"farcaster-claim-backend/internal/features/claim/models"
)

// claimFunctionSig is the claim entrypoint on the campaigns contract. The
// wallet pays a fixed native-currency fee alongside the call.
const claimFunctionSig = "claim(address,uint256,bytes32,bytes32,uint8,address)"

// ZeroAddress is the default referrer.
var ZeroAddress = common.Address{}

// CallBuilder packs claim transactions for a fixed contract and fee.
type CallBuilder struct {
	contract common.Address
	feeWei   *big.Int
}

func NewCallBuilder(contractAddress string, feeWei string) (*CallBuilder, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid claim contract address %q", contractAddress)
	}

	fee, ok := new(big.Int).SetString(feeWei, 10)
	if !ok || fee.Sign() < 0 {
		return nil, fmt.Errorf("invalid claim fee %q", feeWei)
	}

	return &CallBuilder{
		contract: common.HexToAddress(contractAddress),
		feeWei:   fee,
	}, nil
}

// Contract returns the claim contract address.
func (b *CallBuilder) Contract() common.Address {
	return b.contract
}

// BuildClaimCall packs calldata for claim(campaignManager, campaignId, r, s,
// v, referrer) and pairs it with the contract address and fee. All six
// arguments are static, so encoding is selector plus six 32-byte words.
func (b *CallBuilder) BuildClaimCall(manager common.Address, campaignID *big.Int, sig models.ClaimSignature, referrer common.Address) (*models.PreparedCall, error) {
	if campaignID == nil || campaignID.Sign() < 0 {
		return nil, fmt.Errorf("invalid campaign id")
	}

	r, err := parseWord(sig.R)
	if err != nil {
		return nil, fmt.Errorf("invalid signature r: %w", err)
	}
	s, err := parseWord(sig.S)
	if err != nil {
		return nil, fmt.Errorf("invalid signature s: %w", err)
	}
	if sig.V != 27 && sig.V != 28 {
		return nil, fmt.Errorf("invalid recovery id %d", sig.V)
	}

	selector := crypto.Keccak256([]byte(claimFunctionSig))[:4]

	data := make([]byte, 0, 4+6*32)
	data = append(data, selector...)
	data = append(data, common.LeftPadBytes(manager.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(campaignID.Bytes(), 32)...)
	data = append(data, r...)
	data = append(data, s...)
	data = append(data, common.LeftPadBytes([]byte{sig.V}, 32)...)
	data = append(data, common.LeftPadBytes(referrer.Bytes(), 32)...)

	return &models.PreparedCall{
		To:    b.contract.Hex(),
		Data:  hexutil.Encode(data),
		Value: b.feeWei.String(),
	}, nil
}

func parseWord(hex string) ([]byte, error) {
	trimmed := strings.TrimPrefix(hex, "0x")
	if len(trimmed) != 64 {
		return nil, fmt.Errorf("expected 32-byte hex word, got %d chars", len(trimmed))
	}

	word, err := hexutil.Decode("0x" + trimmed)
	if err != nil {
		return nil, err
	}

	return word, nil
}

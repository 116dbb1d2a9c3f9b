package signer

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	apitypes "github.com/ethereum/go-ethereum/signer/core/apitypes"

	"farcaster-claim-backend/internal/common/errors"
	"farcaster-claim-backend/internal/features/claim/models"
)

// Issuer signs EIP-712 claim authorizations with a server-held key. The key
// never leaves this process; the contract recovers the signer address from
// (v, r, s) and checks it against its trusted signer.
type Issuer struct {
	privateKey        *ecdsa.PrivateKey
	signerAddress     common.Address
	domainName        string
	domainVersion     string
	chainID           *big.Int
	verifyingContract string
}

// NewIssuer parses the hex-encoded private key and fixes the EIP-712 domain.
// A missing or malformed key is a configuration fault and fails construction;
// there is no unsigned fallback.
func NewIssuer(privateKeyHex, domainName, domainVersion string, chainID int64, verifyingContract string) (*Issuer, error) {
	trimmed := strings.TrimPrefix(privateKeyHex, "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("signer private key is not configured")
	}

	pkBytes, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("decode signer private key: %w", err)
	}

	privateKey, err := crypto.ToECDSA(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("parse signer private key: %w", err)
	}

	if !common.IsHexAddress(verifyingContract) {
		return nil, fmt.Errorf("invalid verifying contract address %q", verifyingContract)
	}

	return &Issuer{
		privateKey:        privateKey,
		signerAddress:     crypto.PubkeyToAddress(privateKey.PublicKey),
		domainName:        domainName,
		domainVersion:     domainVersion,
		chainID:           big.NewInt(chainID),
		verifyingContract: verifyingContract,
	}, nil
}

// Address returns the address signatures recover to.
func (i *Issuer) Address() common.Address {
	return i.signerAddress
}

// Issue signs Claim{campaignManager, campaignId, claimer} under the fixed
// domain and splits the 65-byte signature into (v, r, s) with v in {27, 28}.
// Signing is deterministic: the same triple yields the same signature.
func (i *Issuer) Issue(campaignManager common.Address, campaignID *big.Int, claimer common.Address) (*models.ClaimSignature, error) {
	var bad []string
	if campaignManager == (common.Address{}) {
		bad = append(bad, "campaignManager")
	}
	if campaignID == nil || campaignID.Sign() < 0 {
		bad = append(bad, "campaignId")
	}
	if claimer == (common.Address{}) {
		bad = append(bad, "claimer")
	}
	if len(bad) > 0 {
		return nil, errors.New(errors.ErrCodeValidation, "Invalid claim parameters").
			WithDetail("invalid", bad)
	}

	typedData := i.typedData(campaignManager, campaignID, claimer)

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, errors.NewSigningError(fmt.Errorf("encode typed data: %w", err))
	}

	sig, err := crypto.Sign(digest, i.privateKey)
	if err != nil {
		return nil, errors.NewSigningError(err)
	}

	// Transform V from 0/1 to 27/28 according to the yellow paper.
	sig[64] += 27

	return &models.ClaimSignature{
		V: sig[64],
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
	}, nil
}

func (i *Issuer) typedData(campaignManager common.Address, campaignID *big.Int, claimer common.Address) apitypes.TypedData {
	return apitypes.TypedData{
		PrimaryType: "Claim",
		Types: apitypes.Types{
			"Claim": []apitypes.Type{
				{Name: "campaignManager", Type: "address"},
				{Name: "campaignId", Type: "uint256"},
				{Name: "claimer", Type: "address"},
			},
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
		},
		Domain: apitypes.TypedDataDomain{
			Name:              i.domainName,
			Version:           i.domainVersion,
			ChainId:           (*math.HexOrDecimal256)(i.chainID),
			VerifyingContract: i.verifyingContract,
		},
		Message: apitypes.TypedDataMessage{
			"campaignManager": campaignManager.Hex(),
			"campaignId":      (*math.HexOrDecimal256)(campaignID),
			"claimer":         claimer.Hex(),
		},
	}
}

// Recover returns the address that produced sig over the claim message.
// Used by tests and health checks to confirm the configured key matches the
// contract's trusted signer.
func (i *Issuer) Recover(campaignManager common.Address, campaignID *big.Int, claimer common.Address, sig models.ClaimSignature) (common.Address, error) {
	digest, _, err := apitypes.TypedDataAndHash(i.typedData(campaignManager, campaignID, claimer))
	if err != nil {
		return common.Address{}, err
	}

	r, err := hexutil.Decode(sig.R)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode r: %w", err)
	}
	s, err := hexutil.Decode(sig.S)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode s: %w", err)
	}
	if sig.V != 27 && sig.V != 28 {
		return common.Address{}, fmt.Errorf("invalid recovery id %d", sig.V)
	}

	raw := make([]byte, 65)
	copy(raw[:32], r)
	copy(raw[32:64], s)
	raw[64] = sig.V - 27

	pubKey, err := crypto.SigToPub(digest, raw)
	if err != nil {
		return common.Address{}, err
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

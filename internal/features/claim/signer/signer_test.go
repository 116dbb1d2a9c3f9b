package signer

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// Hardhat's first well-known development key. Never funded on any real
	// network.
	testKeyHex     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testKeyAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

	testContract = "0xf482f26F43459186a8E17A08a2FbBDf07C7aBc66"
)

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()

	issuer, err := NewIssuer(testKeyHex, "Campaigns", "1.0", 8453, testContract)
	require.NoError(t, err)
	return issuer
}

func TestNewIssuer(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		contract string
		wantErr  bool
	}{
		{"valid key", testKeyHex, testContract, false},
		{"valid key with 0x prefix", "0x" + testKeyHex, testContract, false},
		{"empty key", "", testContract, true},
		{"prefix only", "0x", testContract, true},
		{"not hex", "zzzz", testContract, true},
		{"truncated key", testKeyHex[:32], testContract, true},
		{"bad contract address", testKeyHex, "not-an-address", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer, err := NewIssuer(tt.key, "Campaigns", "1.0", 8453, tt.contract)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, common.HexToAddress(testKeyAddress), issuer.Address())
		})
	}
}

func TestIssue_RecoversToSignerAddress(t *testing.T) {
	issuer := newTestIssuer(t)

	manager := common.HexToAddress("0x1111111111111111111111111111111111111111")
	campaignID := big.NewInt(7)
	claimer := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")

	sig, err := issuer.Issue(manager, campaignID, claimer)
	require.NoError(t, err)

	assert.Contains(t, []uint8{27, 28}, sig.V)
	assert.Len(t, sig.R, 66)
	assert.Len(t, sig.S, 66)

	recovered, err := issuer.Recover(manager, campaignID, claimer, *sig)
	require.NoError(t, err)

	// The signature authenticates the server, never the claimer.
	assert.Equal(t, issuer.Address(), recovered)
	assert.NotEqual(t, claimer, recovered)
}

func TestIssue_Deterministic(t *testing.T) {
	issuer := newTestIssuer(t)

	manager := common.HexToAddress("0x1111111111111111111111111111111111111111")
	claimer := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")

	first, err := issuer.Issue(manager, big.NewInt(7), claimer)
	require.NoError(t, err)
	second, err := issuer.Issue(manager, big.NewInt(7), claimer)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestIssue_BindsToTriple(t *testing.T) {
	issuer := newTestIssuer(t)

	manager := common.HexToAddress("0x1111111111111111111111111111111111111111")
	claimer := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")

	sig, err := issuer.Issue(manager, big.NewInt(7), claimer)
	require.NoError(t, err)

	// Verifying against a different campaign id must not recover the signer.
	recovered, err := issuer.Recover(manager, big.NewInt(8), claimer, *sig)
	if err == nil {
		assert.NotEqual(t, issuer.Address(), recovered)
	}
}

func TestIssue_InvalidParams(t *testing.T) {
	issuer := newTestIssuer(t)

	manager := common.HexToAddress("0x1111111111111111111111111111111111111111")
	claimer := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")

	tests := []struct {
		name       string
		manager    common.Address
		campaignID *big.Int
		claimer    common.Address
	}{
		{"zero manager", common.Address{}, big.NewInt(7), claimer},
		{"nil campaign id", manager, nil, claimer},
		{"negative campaign id", manager, big.NewInt(-1), claimer},
		{"zero claimer", manager, big.NewInt(7), common.Address{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Issue(tt.manager, tt.campaignID, tt.claimer)
			assert.Error(t, err)
		})
	}
}

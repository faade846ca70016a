package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	registryconfig "github.com/cosmasken/arcadehub-sub003/internal/config/registry"
	registryIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/registry"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

func strPtr(s string) *string { return &s }

func TestDefaultABIs(t *testing.T) {
	hub, err := DefaultABI(registryIface.ArcadeHub)
	require.NoError(t, err)
	assert.Contains(t, hub.Methods, "claimPayout")
	assert.Contains(t, hub.Errors, "NothingToClaim")

	nft, err := DefaultABI(registryIface.ArcadeNFT)
	require.NoError(t, err)
	assert.Len(t, nft.Methods["mintNFT"].Inputs, 2)

	token, err := DefaultABI(registryIface.ArcToken)
	require.NoError(t, err)
	assert.Contains(t, token.Methods, "approve")
	assert.Contains(t, token.Methods, "decimals")

	_, err = DefaultABI("unknown")
	assert.Error(t, err)
}

func TestLoad_FromUserConfig(t *testing.T) {
	dir := t.TempDir()
	abiFile := filepath.Join(dir, "leaderboard.json")
	require.NoError(t, os.WriteFile(abiFile, []byte(`[{"type":"function","name":"submit","inputs":[{"name":"score","type":"uint256"}],"outputs":[]}]`), 0o600))

	decimals := uint8(6)
	opts := registryconfig.New(&types.UserRegistryConfig{
		Contracts: map[string]*types.UserContractConfig{
			registryIface.ArcadeHub: {Address: strPtr("0x00000000000000000000000000000000000000a1")},
			registryIface.ArcToken:  {Address: strPtr(" 0x00000000000000000000000000000000000000a3 "), Decimals: &decimals},
			registryIface.ArcadeNFT: {},
			"leaderboard":           {Address: strPtr("0x00000000000000000000000000000000000000b1"), ABIFile: &abiFile},
			"inline": {
				Address: strPtr("0x00000000000000000000000000000000000000b2"),
				ABI:     strPtr(`[{"type":"function","name":"ping","inputs":[],"outputs":[]}]`),
			},
		},
	}).GetOptions()

	r, err := Load(opts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{registryIface.ArcToken, registryIface.ArcadeHub, "inline", "leaderboard"}, r.Names())

	hub, err := r.Contract(registryIface.ArcadeHub)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xa1"), hub.Address)
	assert.Contains(t, hub.ABI.Methods, "claimPayout")
	assert.Nil(t, hub.Decimals)

	token, err := r.Contract(registryIface.ArcToken)
	require.NoError(t, err)
	require.NotNil(t, token.Decimals)
	assert.Equal(t, uint8(6), *token.Decimals)

	board, err := r.Contract("leaderboard")
	require.NoError(t, err)
	assert.Contains(t, board.ABI.Methods, "submit")

	inline, err := r.Contract("inline")
	require.NoError(t, err)
	assert.Contains(t, inline.ABI.Methods, "ping")

	_, err = r.Contract(registryIface.ArcadeNFT)
	assert.ErrorContains(t, err, "not registered")
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]*registryconfig.ContractOptions{
		"bad address":   {Address: "0x1234"},
		"zero address":  {Address: "0x0000000000000000000000000000000000000000"},
		"bad abi":       {Address: "0x00000000000000000000000000000000000000c1", ABI: "{not json"},
		"missing file":  {Address: "0x00000000000000000000000000000000000000c1", ABIFile: "/nonexistent/abi.json"},
		"custom no abi": {Address: "0x00000000000000000000000000000000000000c1"},
	}
	for name, opt := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(&registryconfig.RegistryOptions{
				Contracts: map[string]*registryconfig.ContractOptions{"custom": opt},
			}, nil)
			assert.Error(t, err)
		})
	}
}

func TestRegister(t *testing.T) {
	r, err := Load(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, r.Names())

	parsed, err := DefaultABI(registryIface.ArcadeNFT)
	require.NoError(t, err)
	require.NoError(t, r.Register(&registryIface.Contract{
		Name:    registryIface.ArcadeNFT,
		Address: common.HexToAddress("0xa2"),
		ABI:     parsed,
	}))
	c, err := r.Contract(registryIface.ArcadeNFT)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xa2"), c.Address)

	assert.Error(t, r.Register(&registryIface.Contract{Name: "x"}))
	assert.Error(t, r.Register(nil))
}

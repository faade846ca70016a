package mnemonic

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identityconfig "github.com/cosmasken/arcadehub-sub003/internal/config/identity"
	"github.com/cosmasken/arcadehub-sub003/internal/core/bridge"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/identity"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// 公开测试向量：m/44'/60'/0'/0/0
var testOwner = common.HexToAddress("0x9858EfFD232B4033E47d90003D41EC34EcaEda94")

func TestParseDerivationPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"m/44'/60'/0'/0/0", "m/44'/60'/0'/0/0", false},
		{"44h/60h/1h/1/7", "m/44'/60'/1'/1/7", false},
		{" M/44'/60'/0'/0/3 ", "m/44'/60'/0'/0/3", false},
		{"m/44'/60'/0'/0", "", true},
		{"m/49'/60'/0'/0/0", "", true},
		{"m/44/60'/0'/0/0", "", true},
		{"m/44'/60'/0'/2/0", "", true},
		{"m/44'/60'/0'/0'/0", "", true},
		{"m/44'/60'/x'/0/0", "", true},
	}
	for _, tt := range tests {
		dp, err := ParseDerivationPath(tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, dp.String())
	}
}

func TestDeriveKey(t *testing.T) {
	path, err := ParseDerivationPath("m/44'/60'/0'/0/0")
	require.NoError(t, err)

	key, err := DeriveKey("  "+testMnemonic+"  ", "", path)
	require.NoError(t, err)
	require.Len(t, key, 32)
	priv, err := crypto.ToECDSA(key)
	require.NoError(t, err)
	assert.Equal(t, testOwner, crypto.PubkeyToAddress(priv.PublicKey))

	withPass, err := DeriveKey(testMnemonic, "arcade", path)
	require.NoError(t, err)
	assert.NotEqual(t, key, withPass)

	_, err = DeriveKey("abandon abandon abandon", "", path)
	assert.ErrorIs(t, err, ErrInvalidMnemonic)

	generated, err := GenerateMnemonic()
	require.NoError(t, err)
	_, err = DeriveKey(generated, "", path)
	assert.NoError(t, err)
}

func newTestProvider(t *testing.T, dir string, interactive, silent Source) *Provider {
	t.Helper()
	return NewProvider(Options{
		Config:      identityconfig.New(nil).GetOptions(),
		DataDir:     dir,
		Interactive: interactive,
		Silent:      silent,
	})
}

func TestProvider_ConnectRestoreDisconnect(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	p := newTestProvider(t, dir, StaticSource(testMnemonic), StaticSource(""))
	assert.Equal(t, filepath.Join(dir, "session.json"), p.SessionFile())

	h, err := p.Connect(ctx)
	require.NoError(t, err)
	keyed, ok := h.(identity.KeyMaterialHandle)
	require.True(t, ok)
	assert.True(t, keyed.Connected())

	signer, err := bridge.New(nil).ToSigner(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, testOwner, signer.Address())

	data, err := os.ReadFile(p.SessionFile())
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(string(data)), strings.ToLower(testOwner.Hex()))
	assert.NotContains(t, string(data), "abandon")

	// 新进程：没有非交互来源时无法静默恢复
	restarted := newTestProvider(t, dir, nil, StaticSource(""))
	restored, err := restarted.RestoreSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, restored)

	// 有非交互来源时恢复出同一所有者
	restarted = newTestProvider(t, dir, nil, StaticSource(testMnemonic))
	restored, err = restarted.RestoreSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, testOwner, restored.(*keyHandle).Address())

	require.NoError(t, restarted.Disconnect(ctx))
	assert.False(t, restored.Connected())
	_, err = restored.(*keyHandle).PrivateKey()
	assert.Error(t, err)
	_, err = os.Stat(p.SessionFile())
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// 重复断开不报错
	assert.NoError(t, restarted.Disconnect(ctx))
}

func TestProvider_RestoreWithoutMarker(t *testing.T) {
	p := newTestProvider(t, t.TempDir(), nil, StaticSource(testMnemonic))
	h, err := p.RestoreSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestProvider_RestoreOwnerMismatch(t *testing.T) {
	dir := t.TempDir()
	other, err := GenerateMnemonic()
	require.NoError(t, err)

	p := newTestProvider(t, dir, StaticSource(other), nil)
	_, err = p.Connect(context.Background())
	require.NoError(t, err)

	restarted := newTestProvider(t, dir, nil, StaticSource(testMnemonic))
	h, err := restarted.RestoreSession(context.Background())
	assert.Nil(t, h)
	assert.Error(t, err)
}

func TestProvider_CorruptMarker(t *testing.T) {
	dir := t.TempDir()
	p := newTestProvider(t, dir, nil, StaticSource(testMnemonic))
	require.NoError(t, os.WriteFile(p.SessionFile(), []byte("{not json"), 0o600))

	h, err := p.RestoreSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, h)
	_, err = os.Stat(p.SessionFile())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestProvider_ConnectErrors(t *testing.T) {
	cancelled := func(context.Context) (string, error) { return "", types.ErrUserCancelled }

	p := newTestProvider(t, t.TempDir(), cancelled, nil)
	_, err := p.Connect(context.Background())
	assert.ErrorIs(t, err, types.ErrUserCancelled)

	p = newTestProvider(t, t.TempDir(), StaticSource(""), nil)
	_, err = p.Connect(context.Background())
	assert.ErrorIs(t, err, ErrNoMnemonic)

	p = newTestProvider(t, t.TempDir(), StaticSource("not a mnemonic at all"), nil)
	_, err = p.Connect(context.Background())
	assert.ErrorIs(t, err, ErrInvalidMnemonic)

	bad := "m/44'/60'"
	p = NewProvider(Options{
		Config:      identityconfig.New(&types.UserIdentityConfig{DerivationPath: &bad}).GetOptions(),
		Interactive: StaticSource(testMnemonic),
	})
	_, err = p.Connect(context.Background())
	assert.Error(t, err)
}

func TestProvider_ReconnectInvalidatesPreviousHandle(t *testing.T) {
	p := newTestProvider(t, t.TempDir(), StaticSource(testMnemonic), nil)
	first, err := p.Connect(context.Background())
	require.NoError(t, err)
	second, err := p.Connect(context.Background())
	require.NoError(t, err)

	assert.False(t, first.Connected())
	assert.True(t, second.Connected())
}

func TestFirstOf(t *testing.T) {
	src := FirstOf(nil, StaticSource(""), StaticSource("picked"), StaticSource("ignored"))
	m, err := src(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "picked", m)

	_, err = FirstOf(StaticSource(""))(context.Background())
	assert.ErrorIs(t, err, ErrNoMnemonic)

	t.Setenv("ARCADE_TEST_MNEMONIC", " words ")
	m, err = EnvSource("ARCADE_TEST_MNEMONIC")(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "words", m)
}

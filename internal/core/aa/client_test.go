package aa

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmasken/arcadehub-sub003/internal/core/aa/testutil"
	aaIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

func TestRPCClient_UserOperationRoundTrip(t *testing.T) {
	chain := testutil.NewChain(testChainID)
	defer chain.Stop()
	chain.SetAutoInclude(false)
	signer := newSigner(t)

	acct, err := newTestResolver(t, chain, nil).Resolve(context.Background(), signer)
	require.NoError(t, err)
	client := acct.Client
	ctx := context.Background()

	id, err := client.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(testChainID), id.Int64())

	nonce, err := client.GetNonce(ctx, acct.Address, nil)
	require.NoError(t, err)
	assert.Zero(t, nonce.Sign())

	op, err := acct.Builder.Build(ctx, aaIface.Call{To: common.HexToAddress("0x01")}, nonce)
	require.NoError(t, err)
	hash, err := acct.Builder.Sign(ctx, op)
	require.NoError(t, err)

	sent, err := client.SendUserOperation(ctx, op)
	require.NoError(t, err)
	assert.Equal(t, hash, sent)

	receipt, err := client.GetUserOperationReceipt(ctx, hash)
	require.NoError(t, err)
	assert.Nil(t, receipt, "尚未上链")

	require.NoError(t, chain.Include(hash))
	receipt, err = client.GetUserOperationReceipt(ctx, hash)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.True(t, receipt.Success)
	assert.Equal(t, acct.Address, receipt.Sender)
	assert.NotEqual(t, common.Hash{}, receipt.TxHash)

	nonce, err = client.GetNonce(ctx, acct.Address, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nonce.Int64())

	code, err := client.CodeAt(ctx, acct.Address)
	require.NoError(t, err)
	assert.NotEmpty(t, code, "首个操作部署了钱包")

	// 重复提交相同 nonce 被拒绝
	_, err = client.SendUserOperation(ctx, op)
	assert.ErrorIs(t, err, types.ErrNetwork)
}

func TestRPCClient_BalanceAndFees(t *testing.T) {
	chain := testutil.NewChain(testChainID)
	defer chain.Stop()
	addr := common.HexToAddress("0xabc")
	chain.SetBalance(addr, big.NewInt(12345))

	client := NewClient(chain.RPC(), nil, ClientOptions{EntryPoint: chain.EntryPoint})
	defer client.Close()

	balance, err := client.BalanceAt(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12345), balance)

	maxFee, tip, err := client.SuggestFees(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000_000), maxFee, "倍率低于 100 时按 100 处理")
	assert.Equal(t, big.NewInt(100_000_000), tip)
}

package aa

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	aaIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
)

var proxyArgs = func() abi.Arguments {
	addressTy, _ := abi.NewType("address", "", nil)
	bytesTy, _ := abi.NewType("bytes", "", nil)
	return abi.Arguments{{Type: addressTy}, {Type: bytesTy}}
}()

// Create2Address 按 SimpleAccountFactory 的规则离线计算钱包地址：
//
//	CREATE2(factory, salt, keccak256(proxyCreationCode ‖ abi.encode(implementation, initialize(owner))))
func Create2Address(factory common.Address, salt *big.Int, proxyCreationCode []byte, implementation, owner common.Address) (common.Address, error) {
	initCall, err := accountABI.Pack("initialize", owner)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack initialize: %w", err)
	}
	ctorArgs, err := proxyArgs.Pack(implementation, initCall)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack proxy constructor: %w", err)
	}
	initCodeHash := crypto.Keccak256(proxyCreationCode, ctorArgs)
	return crypto.CreateAddress2(factory, common.BigToHash(salt), initCodeHash), nil
}

// FactoryAddress 只读调用 factory.getAddress(owner, salt)
func FactoryAddress(ctx context.Context, client aaIface.Client, factory common.Address, owner common.Address, salt *big.Int) (common.Address, error) {
	input, err := factoryABI.Pack("getAddress", owner, salt)
	if err != nil {
		return common.Address{}, fmt.Errorf("pack getAddress: %w", err)
	}
	out, err := client.Call(ctx, factory, input)
	if err != nil {
		return common.Address{}, err
	}
	values, err := factoryABI.Unpack("getAddress", out)
	if err != nil || len(values) != 1 {
		return common.Address{}, fmt.Errorf("unexpected getAddress result %x: %v", out, err)
	}
	addr, ok := values[0].(common.Address)
	if !ok || addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("factory %s returned no address", factory.Hex())
	}
	return addr, nil
}

// InitCode 工厂地址 ‖ createAccount(owner, salt)
func InitCode(factory, owner common.Address, salt *big.Int) ([]byte, error) {
	call, err := factoryABI.Pack("createAccount", owner, salt)
	if err != nil {
		return nil, fmt.Errorf("pack createAccount: %w", err)
	}
	return append(factory.Bytes(), call...), nil
}

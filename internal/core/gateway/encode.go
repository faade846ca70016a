package gateway

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	aaIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	registryIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/registry"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// route 操作到合约方法的映射
type route struct {
	contract string
	method   string
}

var routes = map[types.OperationKind]route{
	types.OperationClaimPayout:  {contract: registryIface.ArcadeHub, method: "claimPayout"},
	types.OperationMintNFT:      {contract: registryIface.ArcadeNFT, method: "mintNFT"},
	types.OperationApproveToken: {contract: registryIface.ArcToken, method: "approve"},
}

// encodedCall 编码后的内部调用
type encodedCall struct {
	contract *registryIface.Contract
	call     aaIface.Call
}

// encode 校验参数并编码合约调用
//
// approve_token 需要代币精度：优先使用注册表中声明的值，否则读取链上 decimals()。
func (s *Service) encode(ctx context.Context, client aaIface.Client, kind types.OperationKind, params types.OperationParams) (*encodedCall, error) {
	r, ok := routes[kind]
	if !ok {
		return nil, types.NewInvalidParamsError("encode", fmt.Sprintf("unsupported operation kind %q", kind), nil)
	}
	contract, err := s.registry.Contract(r.contract)
	if err != nil {
		return nil, types.NewInvalidParamsError("encode", "contract lookup failed", err)
	}
	if _, ok := contract.ABI.Methods[r.method]; !ok {
		return nil, types.NewInvalidParamsError("encode",
			fmt.Sprintf("contract %s has no method %s", contract.Name, r.method), nil)
	}

	var args []interface{}
	switch kind {
	case types.OperationClaimPayout:
	case types.OperationMintNFT:
		if params.To == (common.Address{}) {
			return nil, types.NewInvalidParamsError("encode", "mint recipient is the zero address", nil)
		}
		if params.URI == "" {
			return nil, types.NewInvalidParamsError("encode", "token URI is empty", nil)
		}
		args = []interface{}{params.To, params.URI}
	case types.OperationApproveToken:
		if params.Spender == (common.Address{}) {
			return nil, types.NewInvalidParamsError("encode", "spender is the zero address", nil)
		}
		decimals, err := s.tokenDecimals(ctx, client, contract)
		if err != nil {
			return nil, err
		}
		amount, err := ParseUnits(params.Amount, decimals)
		if err != nil {
			return nil, types.NewInvalidParamsError("encode", "invalid approve amount", err)
		}
		args = []interface{}{params.Spender, amount.Units()}
	}

	data, err := contract.ABI.Pack(r.method, args...)
	if err != nil {
		return nil, types.NewInvalidParamsError("encode", "cannot encode "+r.method, err)
	}
	return &encodedCall{
		contract: contract,
		call:     aaIface.Call{To: contract.Address, Value: new(big.Int), Data: data},
	}, nil
}

// tokenDecimals 读取代币精度，链上结果按合约地址缓存
func (s *Service) tokenDecimals(ctx context.Context, client aaIface.Client, contract *registryIface.Contract) (uint8, error) {
	if contract.Decimals != nil {
		return *contract.Decimals, nil
	}
	if v, ok := s.decimals.Load(contract.Address); ok {
		return v.(uint8), nil
	}
	if _, ok := contract.ABI.Methods["decimals"]; !ok {
		return 0, types.NewInvalidParamsError("encode",
			fmt.Sprintf("token %s declares no decimals and its ABI has no decimals()", contract.Name), nil)
	}

	input, err := contract.ABI.Pack("decimals")
	if err != nil {
		return 0, types.NewInvalidParamsError("encode", "cannot encode decimals()", err)
	}

	var decimals uint8
	err = s.retry(ctx, func() error {
		out, err := client.Call(ctx, contract.Address, input)
		if err != nil {
			return classify("token_decimals", err, &contract.ABI)
		}
		values, err := contract.ABI.Unpack("decimals", out)
		if err != nil || len(values) != 1 {
			return types.NewContractCallError(types.CodeReverted, "token_decimals", "malformed decimals() result", err)
		}
		d, ok := values[0].(uint8)
		if !ok {
			return types.NewContractCallError(types.CodeReverted, "token_decimals",
				fmt.Sprintf("unexpected decimals() type %T", values[0]), nil)
		}
		decimals = d
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.decimals.Store(contract.Address, decimals)
	return decimals, nil
}

package types

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// UserOperation ERC-4337（EntryPoint v0.6）用户操作
//
// 由智能合约钱包代替普通交易提交给 Bundler；InitCode 非空时
// EntryPoint 会先通过工厂部署钱包再执行 CallData。
type UserOperation struct {
	Sender               common.Address
	Nonce                *big.Int
	InitCode             []byte
	CallData             []byte
	CallGasLimit         uint64
	VerificationGasLimit uint64
	PreVerificationGas   uint64
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	PaymasterAndData     []byte // 前 20 字节为 paymaster 地址
	Signature            []byte
}

// Copy 深拷贝
func (op *UserOperation) Copy() *UserOperation {
	cp := *op
	cp.Nonce = copyBig(op.Nonce)
	cp.MaxFeePerGas = copyBig(op.MaxFeePerGas)
	cp.MaxPriorityFeePerGas = copyBig(op.MaxPriorityFeePerGas)
	cp.InitCode = common.CopyBytes(op.InitCode)
	cp.CallData = common.CopyBytes(op.CallData)
	cp.PaymasterAndData = common.CopyBytes(op.PaymasterAndData)
	cp.Signature = common.CopyBytes(op.Signature)
	return &cp
}

// PaymasterAddress 提取 paymaster 地址，无 paymaster 时返回零地址
func (op *UserOperation) PaymasterAddress() common.Address {
	if len(op.PaymasterAndData) < common.AddressLength {
		return common.Address{}
	}
	return common.BytesToAddress(op.PaymasterAndData[:common.AddressLength])
}

// HasPaymaster 是否由 paymaster 代付
func (op *UserOperation) HasPaymaster() bool {
	return op.PaymasterAddress() != (common.Address{})
}

// TotalGasLimit 操作所需总 gas
func (op *UserOperation) TotalGasLimit() uint64 {
	return op.CallGasLimit + op.VerificationGasLimit + op.PreVerificationGas
}

var (
	addressTy, _ = abi.NewType("address", "", nil)
	uint256Ty, _ = abi.NewType("uint256", "", nil)
	bytes32Ty, _ = abi.NewType("bytes32", "", nil)

	packedOpArgs = abi.Arguments{
		{Type: addressTy}, // sender
		{Type: uint256Ty}, // nonce
		{Type: bytes32Ty}, // keccak(initCode)
		{Type: bytes32Ty}, // keccak(callData)
		{Type: uint256Ty}, // callGasLimit
		{Type: uint256Ty}, // verificationGasLimit
		{Type: uint256Ty}, // preVerificationGas
		{Type: uint256Ty}, // maxFeePerGas
		{Type: uint256Ty}, // maxPriorityFeePerGas
		{Type: bytes32Ty}, // keccak(paymasterAndData)
	}

	opHashArgs = abi.Arguments{
		{Type: bytes32Ty}, // keccak(pack(op))
		{Type: addressTy}, // entryPoint
		{Type: uint256Ty}, // chainId
	}
)

// Pack 按 EntryPoint v0.6 规则编码（不含签名）
func (op *UserOperation) Pack() ([]byte, error) {
	return packedOpArgs.Pack(
		op.Sender,
		bigOrZero(op.Nonce),
		[32]byte(crypto.Keccak256Hash(op.InitCode)),
		[32]byte(crypto.Keccak256Hash(op.CallData)),
		new(big.Int).SetUint64(op.CallGasLimit),
		new(big.Int).SetUint64(op.VerificationGasLimit),
		new(big.Int).SetUint64(op.PreVerificationGas),
		bigOrZero(op.MaxFeePerGas),
		bigOrZero(op.MaxPriorityFeePerGas),
		[32]byte(crypto.Keccak256Hash(op.PaymasterAndData)),
	)
}

// Hash 计算 userOpHash = keccak256(abi.encode(keccak256(pack(op)), entryPoint, chainId))
func (op *UserOperation) Hash(entryPoint common.Address, chainID *big.Int) (common.Hash, error) {
	packed, err := op.Pack()
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack user operation: %w", err)
	}
	enc, err := opHashArgs.Pack([32]byte(crypto.Keccak256Hash(packed)), entryPoint, bigOrZero(chainID))
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode user operation hash: %w", err)
	}
	return crypto.Keccak256Hash(enc), nil
}

// userOperationJSON Bundler JSON-RPC 线上格式（十六进制数量）
type userOperationJSON struct {
	Sender               common.Address `json:"sender"`
	Nonce                *hexutil.Big   `json:"nonce"`
	InitCode             hexutil.Bytes  `json:"initCode"`
	CallData             hexutil.Bytes  `json:"callData"`
	CallGasLimit         hexutil.Uint64 `json:"callGasLimit"`
	VerificationGasLimit hexutil.Uint64 `json:"verificationGasLimit"`
	PreVerificationGas   hexutil.Uint64 `json:"preVerificationGas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	PaymasterAndData     hexutil.Bytes  `json:"paymasterAndData"`
	Signature            hexutil.Bytes  `json:"signature"`
}

// MarshalJSON 实现 json.Marshaler
func (op UserOperation) MarshalJSON() ([]byte, error) {
	return json.Marshal(userOperationJSON{
		Sender:               op.Sender,
		Nonce:                (*hexutil.Big)(bigOrZero(op.Nonce)),
		InitCode:             nonNilBytes(op.InitCode),
		CallData:             nonNilBytes(op.CallData),
		CallGasLimit:         hexutil.Uint64(op.CallGasLimit),
		VerificationGasLimit: hexutil.Uint64(op.VerificationGasLimit),
		PreVerificationGas:   hexutil.Uint64(op.PreVerificationGas),
		MaxFeePerGas:         (*hexutil.Big)(bigOrZero(op.MaxFeePerGas)),
		MaxPriorityFeePerGas: (*hexutil.Big)(bigOrZero(op.MaxPriorityFeePerGas)),
		PaymasterAndData:     nonNilBytes(op.PaymasterAndData),
		Signature:            nonNilBytes(op.Signature),
	})
}

// UnmarshalJSON 实现 json.Unmarshaler
func (op *UserOperation) UnmarshalJSON(data []byte) error {
	var dec userOperationJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	op.Sender = dec.Sender
	op.Nonce = (*big.Int)(dec.Nonce)
	op.InitCode = dec.InitCode
	op.CallData = dec.CallData
	op.CallGasLimit = uint64(dec.CallGasLimit)
	op.VerificationGasLimit = uint64(dec.VerificationGasLimit)
	op.PreVerificationGas = uint64(dec.PreVerificationGas)
	op.MaxFeePerGas = (*big.Int)(dec.MaxFeePerGas)
	op.MaxPriorityFeePerGas = (*big.Int)(dec.MaxPriorityFeePerGas)
	op.PaymasterAndData = dec.PaymasterAndData
	op.Signature = dec.Signature
	return nil
}

// GasEstimate eth_estimateUserOperationGas 的结果
type GasEstimate struct {
	PreVerificationGas   hexutil.Uint64 `json:"preVerificationGas"`
	VerificationGasLimit hexutil.Uint64 `json:"verificationGasLimit"`
	CallGasLimit         hexutil.Uint64 `json:"callGasLimit"`
}

// SponsorResult pm_sponsorUserOperation 的结果
type SponsorResult struct {
	PaymasterAndData     hexutil.Bytes   `json:"paymasterAndData"`
	PreVerificationGas   *hexutil.Uint64 `json:"preVerificationGas,omitempty"`
	VerificationGasLimit *hexutil.Uint64 `json:"verificationGasLimit,omitempty"`
	CallGasLimit         *hexutil.Uint64 `json:"callGasLimit,omitempty"`
}

// UserOpReceipt eth_getUserOperationReceipt 的结果
type UserOpReceipt struct {
	UserOpHash    common.Hash
	EntryPoint    common.Address
	Sender        common.Address
	Nonce         *big.Int
	Paymaster     common.Address
	ActualGasCost *big.Int
	ActualGasUsed *big.Int
	Success       bool
	Reason        string // 失败时的回滚数据（十六进制）或文本
	TxHash        common.Hash
	BlockNumber   uint64
}

type userOpReceiptJSON struct {
	UserOpHash    common.Hash    `json:"userOpHash"`
	EntryPoint    common.Address `json:"entryPoint"`
	Sender        common.Address `json:"sender"`
	Nonce         *hexutil.Big   `json:"nonce"`
	Paymaster     common.Address `json:"paymaster"`
	ActualGasCost *hexutil.Big   `json:"actualGasCost"`
	ActualGasUsed *hexutil.Big   `json:"actualGasUsed"`
	Success       bool           `json:"success"`
	Reason        string         `json:"reason,omitempty"`
	Receipt       *struct {
		TransactionHash common.Hash    `json:"transactionHash"`
		BlockNumber     hexutil.Uint64 `json:"blockNumber"`
	} `json:"receipt,omitempty"`
}

// UnmarshalJSON 实现 json.Unmarshaler
func (r *UserOpReceipt) UnmarshalJSON(data []byte) error {
	var dec userOpReceiptJSON
	if err := json.Unmarshal(data, &dec); err != nil {
		return err
	}
	r.UserOpHash = dec.UserOpHash
	r.EntryPoint = dec.EntryPoint
	r.Sender = dec.Sender
	r.Nonce = (*big.Int)(dec.Nonce)
	r.Paymaster = dec.Paymaster
	r.ActualGasCost = (*big.Int)(dec.ActualGasCost)
	r.ActualGasUsed = (*big.Int)(dec.ActualGasUsed)
	r.Success = dec.Success
	r.Reason = dec.Reason
	if dec.Receipt != nil {
		r.TxHash = dec.Receipt.TransactionHash
		r.BlockNumber = uint64(dec.Receipt.BlockNumber)
	}
	return nil
}

// MarshalJSON 实现 json.Marshaler
func (r UserOpReceipt) MarshalJSON() ([]byte, error) {
	enc := userOpReceiptJSON{
		UserOpHash:    r.UserOpHash,
		EntryPoint:    r.EntryPoint,
		Sender:        r.Sender,
		Nonce:         (*hexutil.Big)(r.Nonce),
		Paymaster:     r.Paymaster,
		ActualGasCost: (*hexutil.Big)(r.ActualGasCost),
		ActualGasUsed: (*hexutil.Big)(r.ActualGasUsed),
		Success:       r.Success,
		Reason:        r.Reason,
	}
	enc.Receipt = &struct {
		TransactionHash common.Hash    `json:"transactionHash"`
		BlockNumber     hexutil.Uint64 `json:"blockNumber"`
	}{TransactionHash: r.TxHash, BlockNumber: hexutil.Uint64(r.BlockNumber)}
	return json.Marshal(enc)
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func nonNilBytes(b []byte) hexutil.Bytes {
	if b == nil {
		return hexutil.Bytes{}
	}
	return b
}

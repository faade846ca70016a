// Package registry 定义合约注册表接口
package registry

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// 逻辑合约名称
const (
	ArcadeHub = "arcadeHub"
	ArcadeNFT = "arcadeNFT"
	ArcToken  = "arcToken"
)

// Contract 合约登记项
type Contract struct {
	Name     string
	Address  common.Address
	ABI      abi.ABI
	Decimals *uint8 // 代币精度，未声明时为 nil
}

// Registry 合约注册表
type Registry interface {
	// Contract 按逻辑名称查找合约
	Contract(name string) (*Contract, error)

	// Names 已登记的逻辑名称
	Names() []string
}

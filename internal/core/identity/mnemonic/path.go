package mnemonic

import (
	"fmt"
	"strconv"
	"strings"
)

// BIP-44 常量
const (
	bip44Purpose   uint32 = 44
	hardenedOffset uint32 = 0x80000000
)

// DerivationPath BIP-44 派生路径 m/purpose'/coin'/account'/change/index
type DerivationPath struct {
	Purpose      uint32
	CoinType     uint32
	Account      uint32
	Change       uint32
	AddressIndex uint32
}

// ParseDerivationPath 解析派生路径字符串
// 支持格式: m/44'/60'/0'/0/0 或 44'/60'/0'/0/0，硬化标记可写作 ' 或 h
func ParseDerivationPath(path string) (*DerivationPath, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "m/")
	path = strings.TrimPrefix(path, "M/")

	parts := strings.Split(path, "/")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid derivation path: expected 5 components, got %d", len(parts))
	}

	dp := &DerivationPath{}
	fields := []struct {
		name     string
		dst      *uint32
		hardened bool
	}{
		{"purpose", &dp.Purpose, true},
		{"coin type", &dp.CoinType, true},
		{"account", &dp.Account, true},
		{"change", &dp.Change, false},
		{"address index", &dp.AddressIndex, false},
	}
	for i, f := range fields {
		v, err := parsePathComponent(parts[i], f.hardened)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", f.name, err)
		}
		*f.dst = v
	}

	if dp.Purpose != bip44Purpose {
		return nil, fmt.Errorf("invalid purpose: expected %d (BIP44), got %d", bip44Purpose, dp.Purpose)
	}
	if dp.Change > 1 {
		return nil, fmt.Errorf("invalid change: expected 0 or 1, got %d", dp.Change)
	}
	return dp, nil
}

func parsePathComponent(component string, requireHardened bool) (uint32, error) {
	hardened := strings.HasSuffix(component, "'") || strings.HasSuffix(component, "h") || strings.HasSuffix(component, "H")
	if requireHardened && !hardened {
		return 0, fmt.Errorf("hardened derivation required for %q", component)
	}
	if !requireHardened && hardened {
		return 0, fmt.Errorf("unexpected hardened component %q", component)
	}
	component = strings.TrimRight(component, "'hH")

	value, err := strconv.ParseUint(component, 10, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %q", component)
	}
	return uint32(value), nil
}

// String 返回路径字符串表示
func (dp *DerivationPath) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", dp.Purpose, dp.CoinType, dp.Account, dp.Change, dp.AddressIndex)
}

// indexes hdkeychain 使用的索引序列（含硬化偏移）
func (dp *DerivationPath) indexes() []uint32 {
	return []uint32{
		dp.Purpose + hardenedOffset,
		dp.CoinType + hardenedOffset,
		dp.Account + hardenedOffset,
		dp.Change,
		dp.AddressIndex,
	}
}

package gateway

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// TokenAmount 代币金额（最小单位）
//
// 金额系统：
//   - 1 代币 = 10^decimals 最小单位
//   - 全程使用 *big.Int，十进制字符串逐位解析，不经过浮点数
//   - 上限为 uint256
type TokenAmount struct {
	value    *big.Int // 最小单位
	decimals uint8
}

var (
	// ErrInvalidAmount 无效的金额
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNegativeAmount 负数金额
	ErrNegativeAmount = errors.New("negative amount")

	// ErrTooManyDecimals 小数位超过代币精度
	ErrTooManyDecimals = errors.New("too many decimal places")

	// ErrAmountOverflow 超出 uint256
	ErrAmountOverflow = errors.New("amount overflows uint256")

	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// ParseUnits 将十进制字符串按精度换算为最小单位
//
// 示例（decimals=18）：
//
//	"10"    → 10000000000000000000
//	"0.5"   → 500000000000000000
//	"1e18"  → 错误（不支持科学计数法）
func ParseUnits(s string, decimals uint8) (*TokenAmount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return nil, ErrNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac, hasDot := strings.Cut(s, ".")
	if hasDot && whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !isDigits(whole) || !isDigits(frac) || (whole == "" && !hasDot) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	// 去掉小数部分末尾的 0 后再比较精度，"1.500" 在 decimals=1 时合法
	frac = strings.TrimRight(frac, "0")
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("%w: %q has more than %d", ErrTooManyDecimals, s, decimals)
	}

	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	if digits == "" {
		digits = "0"
	}
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if value.Cmp(maxUint256) > 0 {
		return nil, ErrAmountOverflow
	}
	return &TokenAmount{value: value, decimals: decimals}, nil
}

// NewTokenAmount 从最小单位创建
func NewTokenAmount(units *big.Int, decimals uint8) *TokenAmount {
	v := new(big.Int)
	if units != nil {
		v.Set(units)
	}
	return &TokenAmount{value: v, decimals: decimals}
}

// Units 返回最小单位的副本
func (a *TokenAmount) Units() *big.Int {
	return new(big.Int).Set(a.value)
}

// Decimals 代币精度
func (a *TokenAmount) Decimals() uint8 {
	return a.decimals
}

// String 返回完整精度的十进制表示，如 "10.000000000000000000"
func (a *TokenAmount) String() string {
	return FormatUnits(a.value, a.decimals, false)
}

// StringTrimmed 返回去除末尾 0 的十进制表示，如 "10"
func (a *TokenAmount) StringTrimmed() string {
	return FormatUnits(a.value, a.decimals, true)
}

// FormatUnits 将最小单位格式化为十进制字符串
func FormatUnits(units *big.Int, decimals uint8, trim bool) string {
	if units == nil {
		units = new(big.Int)
	}
	neg := units.Sign() < 0
	digits := new(big.Int).Abs(units).String()

	if decimals > 0 {
		if pad := int(decimals) + 1 - len(digits); pad > 0 {
			digits = strings.Repeat("0", pad) + digits
		}
		cut := len(digits) - int(decimals)
		whole, frac := digits[:cut], digits[cut:]
		if trim {
			frac = strings.TrimRight(frac, "0")
		}
		if frac != "" {
			digits = whole + "." + frac
		} else {
			digits = whole
		}
	}
	if neg {
		return "-" + digits
	}
	return digits
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Package account 提供智能合约钱包部署参数配置
package account

import (
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// 地址派生模式
const (
	AddressModeFactory = "factory" // 调用工厂 getAddress(owner, salt)
	AddressModeCreate2 = "create2" // 本地按 CREATE2 规则计算
)

// Paymaster 模式
const (
	PaymasterNone    = "none"    // 钱包自付
	PaymasterStatic  = "static"  // 固定 paymasterAndData
	PaymasterSponsor = "sponsor" // pm_sponsorUserOperation
)

// AccountOptions 钱包部署参数（原始字符串，由解析器校验）
type AccountOptions struct {
	EntryPoint            string `json:"entry_point"`
	Factory               string `json:"factory"`
	Salt                  string `json:"salt"`
	AddressMode           string `json:"address_mode"`
	AccountImplementation string `json:"account_implementation"`
	ProxyCreationCode     string `json:"proxy_creation_code"`
	PaymasterMode         string `json:"paymaster_mode"`
	PaymasterAndData      string `json:"paymaster_and_data"`
	SponsorPolicyID       string `json:"sponsor_policy_id"`
}

// Config 钱包部署配置实现
type Config struct {
	options *AccountOptions
}

// New 创建钱包部署配置
func New(userConfig *types.UserAccountConfig) *Config {
	options := &AccountOptions{
		EntryPoint:    defaultEntryPoint,
		Factory:       defaultFactory,
		Salt:          defaultSalt,
		AddressMode:   defaultAddressMode,
		PaymasterMode: defaultPaymasterMode,
	}

	if userConfig != nil {
		setString(&options.EntryPoint, userConfig.EntryPoint)
		setString(&options.Factory, userConfig.Factory)
		setString(&options.Salt, userConfig.Salt)
		setString(&options.AddressMode, userConfig.AddressMode)
		setString(&options.AccountImplementation, userConfig.AccountImplementation)
		setString(&options.ProxyCreationCode, userConfig.ProxyCreationCode)
		setString(&options.PaymasterMode, userConfig.PaymasterMode)
		setString(&options.PaymasterAndData, userConfig.PaymasterAndData)
		setString(&options.SponsorPolicyID, userConfig.SponsorPolicyID)
	}

	return &Config{options: options}
}

// GetOptions 获取配置选项
func (c *Config) GetOptions() *AccountOptions {
	return c.options
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

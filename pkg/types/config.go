// Package types provides configuration type definitions.
package types

// AppConfig 应用程序根配置
// 只包含JSON配置文件解析所需的结构，不包含任何内部字段
// 默认值和完整配置结构在 internal/config/*/defaults.go 和 internal/config/*/config.go 中定义
type AppConfig struct {
	// 应用程序基本信息
	AppName *string `json:"app_name,omitempty"` // 应用名称
	DataDir *string `json:"data_dir,omitempty"` // 数据目录路径

	// Environment 运行环境：dev | test | prod
	Environment *string `json:"environment,omitempty"`

	Log        *UserLogConfig        `json:"log,omitempty"`
	Chain      *UserChainConfig      `json:"chain,omitempty"`
	Account    *UserAccountConfig    `json:"account,omitempty"`
	Gateway    *UserGatewayConfig    `json:"gateway,omitempty"`
	Registry   *UserRegistryConfig   `json:"registry,omitempty"`
	NonceStore *UserNonceStoreConfig `json:"nonce_store,omitempty"`
	Identity   *UserIdentityConfig   `json:"identity,omitempty"`
	Event      *UserEventConfig      `json:"event,omitempty"`
	Clock      *UserClockConfig      `json:"clock,omitempty"`
}

// UserLogConfig 用户日志配置
// 只包含JSON配置文件中实际出现的字段
type UserLogConfig struct {
	Level     *string `json:"level,omitempty"`      // 日志级别：debug, info, warn, error, fatal
	FilePath  *string `json:"file_path,omitempty"`  // 日志文件路径
	ToConsole *bool   `json:"to_console,omitempty"` // 是否输出到控制台
}

// UserChainConfig 链接入配置
// RPC 地址与链 ID 在启动时确定，运行期间不再变更
type UserChainConfig struct {
	RPCURL         *string `json:"rpc_url,omitempty"`            // 节点 JSON-RPC 地址
	BundlerURL     *string `json:"bundler_url,omitempty"`        // Bundler JSON-RPC 地址，留空时复用 rpc_url
	ChainID        *uint64 `json:"chain_id,omitempty"`           // 期望的链 ID
	DialTimeout    *string `json:"dial_timeout,omitempty"`       // 拨号超时，如 "10s"
	RequestTimeout *string `json:"request_timeout,omitempty"`    // 单次请求超时
	ProbeRetries   *int    `json:"probe_retries,omitempty"`      // 链 ID 探测重试次数
	FeeMultiplier  *uint64 `json:"fee_multiplier_pct,omitempty"` // maxFeePerGas 放大百分比
}

// UserAccountConfig 智能合约钱包部署参数
type UserAccountConfig struct {
	EntryPoint            *string `json:"entry_point,omitempty"`            // EntryPoint 合约地址
	Factory               *string `json:"factory,omitempty"`                // 账户工厂合约地址
	Salt                  *string `json:"salt,omitempty"`                   // 部署盐值（十进制或 0x 十六进制）
	AddressMode           *string `json:"address_mode,omitempty"`           // factory | create2
	AccountImplementation *string `json:"account_implementation,omitempty"` // create2 模式：账户实现合约
	ProxyCreationCode     *string `json:"proxy_creation_code,omitempty"`    // create2 模式：代理合约创建字节码
	PaymasterMode         *string `json:"paymaster_mode,omitempty"`         // none | static | sponsor
	PaymasterAndData      *string `json:"paymaster_and_data,omitempty"`     // static 模式下的 paymasterAndData
	SponsorPolicyID       *string `json:"sponsor_policy_id,omitempty"`      // sponsor 模式下的策略 ID
}

// UserGatewayConfig 合约网关配置
type UserGatewayConfig struct {
	InclusionTimeout *string  `json:"inclusion_timeout,omitempty"` // 等待上链超时
	PollInitial      *string  `json:"poll_initial,omitempty"`      // 首次轮询间隔
	PollMax          *string  `json:"poll_max,omitempty"`          // 最大轮询间隔
	PollFactor       *float64 `json:"poll_factor,omitempty"`       // 轮询退避系数
	MaxRetries       *int     `json:"max_retries,omitempty"`       // 提交前瞬时错误最大重试次数
	RetryBackoff     *string  `json:"retry_backoff,omitempty"`     // 重试间隔
}

// UserContractConfig 单个合约登记项
type UserContractConfig struct {
	Address  *string `json:"address,omitempty"`  // 合约地址
	ABI      *string `json:"abi,omitempty"`      // 内联 ABI JSON
	ABIFile  *string `json:"abi_file,omitempty"` // ABI 文件路径
	Decimals *uint8  `json:"decimals,omitempty"` // 代币精度（仅代币合约）
}

// UserRegistryConfig 合约注册表配置，键为逻辑名称（arcadeHub、arcadeNFT、arcToken）
type UserRegistryConfig struct {
	Contracts map[string]*UserContractConfig `json:"contracts,omitempty"`
}

// UserNonceStoreConfig nonce 缓存配置
type UserNonceStoreConfig struct {
	Backend       *string `json:"backend,omitempty"`        // memory | redis
	TTL           *string `json:"ttl,omitempty"`            // 缓存有效期
	RedisAddr     *string `json:"redis_addr,omitempty"`     // Redis 地址
	RedisPassword *string `json:"redis_password,omitempty"` // Redis 密码
	RedisDB       *int    `json:"redis_db,omitempty"`       // Redis DB
	KeyPrefix     *string `json:"key_prefix,omitempty"`     // 键前缀
}

// UserIdentityConfig 开发用身份提供者配置
type UserIdentityConfig struct {
	Provider       *string `json:"provider,omitempty"`        // mnemonic
	DerivationPath *string `json:"derivation_path,omitempty"` // BIP-44 派生路径
	SessionFile    *string `json:"session_file,omitempty"`    // 会话恢复标记文件
}

// UserEventConfig 事件总线配置
type UserEventConfig struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// UserClockConfig 时间源配置
type UserClockConfig struct {
	Source       *string `json:"source,omitempty"`        // system | ntp
	NTPServer    *string `json:"ntp_server,omitempty"`    // 如 time.google.com
	SyncInterval *string `json:"sync_interval,omitempty"` // 如 "5m"
}

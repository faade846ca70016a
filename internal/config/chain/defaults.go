package chain

import "time"

const (
	// defaultRPCURL 本地开发节点
	defaultRPCURL = "http://127.0.0.1:8545"

	// defaultChainID 本地开发链
	defaultChainID = 31337

	// defaultDialTimeout 拨号超时
	defaultDialTimeout = 10 * time.Second

	// defaultRequestTimeout 单次 RPC 请求超时
	defaultRequestTimeout = 15 * time.Second

	// defaultProbeRetries 链 ID 探测的额外重试次数
	defaultProbeRetries = 2

	// defaultFeeMultiplier maxFeePerGas 相对 eth_gasPrice 的百分比
	defaultFeeMultiplier = 125
)

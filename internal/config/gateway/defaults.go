package gateway

import "time"

const (
	// defaultInclusionTimeout 等待 Bundler 打包上链的最长时间
	defaultInclusionTimeout = 60 * time.Second

	// defaultPollInitial 首次轮询间隔
	defaultPollInitial = 1 * time.Second

	// defaultPollMax 轮询间隔上限
	defaultPollMax = 5 * time.Second

	// defaultPollFactor 轮询退避系数
	defaultPollFactor = 1.5

	// defaultMaxRetries 分配 nonce 之前的瞬时错误重试次数
	defaultMaxRetries = 3

	// defaultRetryBackoff 重试间隔
	defaultRetryBackoff = 500 * time.Millisecond
)

package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	aaIface "github.com/cosmasken/arcadehub-sub003/pkg/interfaces/aa"
	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

var errInclusionDeadline = errors.New("inclusion deadline exceeded")

// awaitInclusion 按退避间隔轮询回执，直到上链或超时
//
// 轮询是只读的，查询错误只记录不中断。超时或 ctx 取消时操作结果未知，
// 返回带 userOpHash 的 InclusionTimeoutError，调用方应先查询再决定是否重发。
func (s *Service) awaitInclusion(ctx context.Context, client aaIface.Client, hash common.Hash) (*types.UserOpReceipt, error) {
	opts := s.options
	deadline := s.clock.After(opts.InclusionTimeout)
	interval := opts.PollInitial

	for attempt := 1; ; attempt++ {
		receipt, err := client.GetUserOperationReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && s.logger != nil {
			s.logger.Debugf("查询回执失败: user_op_hash=%s, attempt=%d, err=%v", hash.Hex(), attempt, err)
		}

		select {
		case <-ctx.Done():
			return nil, types.NewInclusionTimeoutError(hash.Hex(), ctx.Err())
		case <-deadline:
			return nil, types.NewInclusionTimeoutError(hash.Hex(), errInclusionDeadline)
		case <-s.clock.After(interval):
		}
		interval = nextInterval(interval, opts.PollFactor, opts.PollMax)
	}
}

// nextInterval 按系数增长并封顶
func nextInterval(current time.Duration, factor float64, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * factor)
	if next > max {
		return max
	}
	return next
}

// retry 在分配 nonce 之前重试瞬时网络错误
func (s *Service) retry(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !types.IsTransient(err) || attempt >= s.options.MaxRetries {
			return err
		}
		if s.logger != nil {
			s.logger.Warnf("瞬时网络错误，%s 后重试 (%d/%d): %v", s.options.RetryBackoff, attempt+1, s.options.MaxRetries, err)
		}
		select {
		case <-ctx.Done():
			return types.NewNetworkError(types.CodeTransient, "retry", ctx.Err())
		case <-s.clock.After(s.options.RetryBackoff):
		}
	}
}

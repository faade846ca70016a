package mnemonic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// EnvMnemonic 非交互场景读取助记词的环境变量
const EnvMnemonic = "ARCADE_MNEMONIC"

// ErrNoMnemonic 来源中没有可用的助记词
var ErrNoMnemonic = errors.New("no mnemonic available")

// Source 助记词来源
type Source func(ctx context.Context) (string, error)

// EnvSource 从环境变量读取
func EnvSource(name string) Source {
	return func(context.Context) (string, error) {
		v := strings.TrimSpace(os.Getenv(name))
		if v == "" {
			return "", ErrNoMnemonic
		}
		return v, nil
	}
}

// StaticSource 固定助记词，空串视为无
func StaticSource(mnemonic string) Source {
	return func(context.Context) (string, error) {
		if strings.TrimSpace(mnemonic) == "" {
			return "", ErrNoMnemonic
		}
		return mnemonic, nil
	}
}

// TerminalSource 在终端上提示输入（不回显）
//
// 输入不是终端时返回 ErrNoMnemonic；直接回车视为用户取消。
func TerminalSource(in *os.File, out io.Writer) Source {
	return func(ctx context.Context) (string, error) {
		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			return "", ErrNoMnemonic
		}
		fmt.Fprint(out, "请输入助记词（输入不回显，直接回车取消）: ")

		type result struct {
			line []byte
			err  error
		}
		done := make(chan result, 1)
		go func() {
			line, err := term.ReadPassword(fd)
			done <- result{line, err}
		}()

		select {
		case r := <-done:
			fmt.Fprintln(out)
			if r.err != nil {
				return "", fmt.Errorf("读取助记词失败: %w", r.err)
			}
			m := strings.TrimSpace(string(r.line))
			if m == "" {
				return "", types.ErrUserCancelled
			}
			return m, nil
		case <-ctx.Done():
			fmt.Fprintln(out)
			return "", fmt.Errorf("%w: %v", types.ErrUserCancelled, ctx.Err())
		}
	}
}

// FirstOf 依次尝试多个来源，跳过返回 ErrNoMnemonic 的来源
func FirstOf(sources ...Source) Source {
	return func(ctx context.Context) (string, error) {
		for _, s := range sources {
			if s == nil {
				continue
			}
			m, err := s(ctx)
			if errors.Is(err, ErrNoMnemonic) {
				continue
			}
			return m, err
		}
		return "", ErrNoMnemonic
	}
}

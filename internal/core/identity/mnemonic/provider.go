// Package mnemonic 基于 BIP-39 助记词的开发用身份提供者
//
// Connect 从交互来源（环境变量或终端）读取助记词，按 BIP-44 路径派生私钥，
// 返回能直接提供私钥的句柄，并在数据目录写入会话标记。
// RestoreSession 仅在标记存在且能从非交互来源拿到助记词时静默恢复。
// 标记只记录所有者地址与派生路径，从不落盘助记词或私钥。
package mnemonic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	identityconfig "github.com/cosmasken/arcadehub-sub003/internal/config/identity"
	clockimpl "github.com/cosmasken/arcadehub-sub003/internal/core/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/identity"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/clock"
	"github.com/cosmasken/arcadehub-sub003/pkg/interfaces/infrastructure/log"
)

var errHandleDisconnected = errors.New("mnemonic handle is disconnected")

// Options 提供者参数
type Options struct {
	Config      *identityconfig.IdentityOptions
	DataDir     string // SessionFile 为相对路径时的基准目录
	Interactive Source // Connect 使用
	Silent      Source // RestoreSession 使用，不得提示用户
	Passphrase  string // BIP-39 密码，可为空
	Clock       clock.Clock
	Logger      log.Logger
}

// Provider 助记词身份提供者
type Provider struct {
	path        *DerivationPath
	pathErr     error
	sessionFile string
	interactive Source
	silent      Source
	passphrase  string
	clock       clock.Clock
	logger      log.Logger

	mu      sync.Mutex
	current *keyHandle
}

// sessionMarker 会话标记文件内容
type sessionMarker struct {
	Owner          common.Address `json:"owner"`
	DerivationPath string         `json:"derivation_path"`
	CreatedAt      time.Time      `json:"created_at"`
}

// NewProvider 创建提供者
//
// 派生路径无效时不在此报错，Connect 与 RestoreSession 会返回该错误。
func NewProvider(opts Options) *Provider {
	cfg := opts.Config
	if cfg == nil {
		cfg = identityconfig.New(nil).GetOptions()
	}
	p := &Provider{
		interactive: opts.Interactive,
		silent:      opts.Silent,
		passphrase:  opts.Passphrase,
		clock:       clockimpl.OrSystem(opts.Clock),
		logger:      opts.Logger,
	}
	if p.interactive == nil {
		p.interactive = EnvSource(EnvMnemonic)
	}
	if p.silent == nil {
		p.silent = EnvSource(EnvMnemonic)
	}
	p.path, p.pathErr = ParseDerivationPath(cfg.DerivationPath)

	p.sessionFile = cfg.SessionFile
	if p.sessionFile != "" && !filepath.IsAbs(p.sessionFile) && opts.DataDir != "" {
		p.sessionFile = filepath.Join(opts.DataDir, p.sessionFile)
	}
	return p
}

// Connect 实现 identity.Provider
func (p *Provider) Connect(ctx context.Context) (identity.ProviderHandle, error) {
	if p.pathErr != nil {
		return nil, fmt.Errorf("derivation path: %w", p.pathErr)
	}
	m, err := p.interactive(ctx)
	if err != nil {
		if errors.Is(err, ErrNoMnemonic) {
			return nil, fmt.Errorf("%w: set %s or run from a terminal", err, EnvMnemonic)
		}
		return nil, err
	}

	h, err := p.open(m)
	if err != nil {
		return nil, err
	}
	if err := p.writeMarker(h.address); err != nil {
		p.warnf("写入会话标记失败，下次启动需要重新登录: %v", err)
	}
	p.swap(h)
	p.debugf("助记词登录成功: owner=%s, path=%s", h.address.Hex(), p.path)
	return h, nil
}

// RestoreSession 实现 identity.Provider
func (p *Provider) RestoreSession(ctx context.Context) (identity.ProviderHandle, error) {
	marker, err := p.readMarker()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if p.pathErr != nil {
		return nil, fmt.Errorf("derivation path: %w", p.pathErr)
	}
	if marker.DerivationPath != "" && marker.DerivationPath != p.path.String() {
		p.debugf("会话标记的派生路径 %s 与当前配置 %s 不同，放弃恢复", marker.DerivationPath, p.path)
		return nil, nil
	}

	m, err := p.silent(ctx)
	if err != nil {
		if errors.Is(err, ErrNoMnemonic) {
			p.debugf("存在会话标记但没有非交互助记词来源，需要重新登录")
			return nil, nil
		}
		return nil, err
	}

	h, err := p.open(m)
	if err != nil {
		return nil, err
	}
	if h.address != marker.Owner {
		h.disconnect()
		return nil, fmt.Errorf("session marker belongs to %s, mnemonic derives %s", marker.Owner.Hex(), h.address.Hex())
	}
	p.swap(h)
	return h, nil
}

// Disconnect 实现 identity.Provider：作废当前句柄并删除会话标记
func (p *Provider) Disconnect(ctx context.Context) error {
	p.swap(nil)
	if p.sessionFile == "" {
		return nil
	}
	if err := os.Remove(p.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session marker: %w", err)
	}
	return nil
}

// SessionFile 会话标记路径，未启用时为空
func (p *Provider) SessionFile() string {
	return p.sessionFile
}

func (p *Provider) open(m string) (*keyHandle, error) {
	key, err := DeriveKey(m, p.passphrase, p.path)
	if err != nil {
		return nil, err
	}
	priv, err := crypto.ToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("derived key is invalid: %w", err)
	}
	return &keyHandle{key: key, address: crypto.PubkeyToAddress(priv.PublicKey)}, nil
}

// swap 替换当前句柄，旧句柄立即失效
func (p *Provider) swap(h *keyHandle) {
	p.mu.Lock()
	old := p.current
	p.current = h
	p.mu.Unlock()
	if old != nil && old != h {
		old.disconnect()
	}
}

func (p *Provider) readMarker() (*sessionMarker, error) {
	if p.sessionFile == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(p.sessionFile)
	if err != nil {
		return nil, err
	}
	var marker sessionMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		// 损坏的标记无法恢复，删除后按未登录处理
		_ = os.Remove(p.sessionFile)
		p.warnf("会话标记损坏，已删除: %v", err)
		return nil, os.ErrNotExist
	}
	return &marker, nil
}

func (p *Provider) writeMarker(owner common.Address) error {
	if p.sessionFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(p.sessionFile), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sessionMarker{
		Owner:          owner,
		DerivationPath: p.path.String(),
		CreatedAt:      p.clock.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.sessionFile, data, 0o600)
}

func (p *Provider) debugf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debugf(format, args...)
	}
}

func (p *Provider) warnf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warnf(format, args...)
	}
}

// keyHandle 持有派生私钥的句柄
type keyHandle struct {
	mu      sync.RWMutex
	key     []byte
	address common.Address
}

// Connected 实现 identity.ProviderHandle
func (h *keyHandle) Connected() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.key != nil
}

// PrivateKey 实现 identity.KeyMaterialHandle，返回副本
func (h *keyHandle) PrivateKey() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.key == nil {
		return nil, errHandleDisconnected
	}
	return common.CopyBytes(h.key), nil
}

// Address 所有者地址
func (h *keyHandle) Address() common.Address {
	return h.address
}

func (h *keyHandle) disconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.key {
		h.key[i] = 0
	}
	h.key = nil
}

var (
	_ identity.Provider          = (*Provider)(nil)
	_ identity.KeyMaterialHandle = (*keyHandle)(nil)
)

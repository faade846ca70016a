package types

// SessionStatus 会话状态
//
// 状态流转：
//
//	idle → initializing → (idle | provider_connected)
//	idle → awaiting_provider → provider_connected → deriving_wallet → ready
//	awaiting_provider | deriving_wallet → error
//	任意状态 → idle（logout）
type SessionStatus string

const (
	SessionIdle              SessionStatus = "idle"
	SessionInitializing      SessionStatus = "initializing"
	SessionAwaitingProvider  SessionStatus = "awaiting_provider"
	SessionProviderConnected SessionStatus = "provider_connected"
	SessionDerivingWallet    SessionStatus = "deriving_wallet"
	SessionReady             SessionStatus = "ready"
	SessionError             SessionStatus = "error"
)

// String 实现 fmt.Stringer
func (s SessionStatus) String() string {
	return string(s)
}

// InFlight 是否有登录/恢复流程正在进行
func (s SessionStatus) InFlight() bool {
	switch s {
	case SessionInitializing, SessionAwaitingProvider, SessionProviderConnected, SessionDerivingWallet:
		return true
	default:
		return false
	}
}

package event

const (
	// defaultEnabled 会话快照依赖事件总线分发，默认启用
	defaultEnabled = true
)

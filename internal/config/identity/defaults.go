package identity

const (
	// defaultProvider 助记词开发提供者
	defaultProvider = "mnemonic"

	// defaultDerivationPath 以太坊标准路径
	defaultDerivationPath = "m/44'/60'/0'/0/0"

	// defaultSessionFile 相对数据目录
	defaultSessionFile = "session.json"
)

package account

const (
	// defaultEntryPoint EntryPoint v0.6 标准部署地址
	defaultEntryPoint = "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"

	// defaultFactory SimpleAccountFactory v0.6 标准部署地址
	defaultFactory = "0x9406Cc6185a346906296840746125a0E44976454"

	// defaultSalt 每个所有者只派生一个钱包
	defaultSalt = "0"

	// defaultAddressMode 以工厂合约为准
	defaultAddressMode = AddressModeFactory

	// defaultPaymasterMode 钱包自付 gas
	defaultPaymasterMode = PaymasterNone
)

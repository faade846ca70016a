// Command arcade 管理游戏会话并通过智能合约钱包提交操作
package main

func main() {
	Execute()
}

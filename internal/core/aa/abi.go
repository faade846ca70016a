package aa

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// EntryPoint v0.6 中用到的方法
const entryPointABIJSON = `[
 {"type":"function","name":"getNonce","stateMutability":"view",
  "inputs":[{"name":"sender","type":"address"},{"name":"key","type":"uint192"}],
  "outputs":[{"name":"nonce","type":"uint256"}]}
]`

// SimpleAccountFactory
const factoryABIJSON = `[
 {"type":"function","name":"createAccount","stateMutability":"nonpayable",
  "inputs":[{"name":"owner","type":"address"},{"name":"salt","type":"uint256"}],
  "outputs":[{"name":"ret","type":"address"}]},
 {"type":"function","name":"getAddress","stateMutability":"view",
  "inputs":[{"name":"owner","type":"address"},{"name":"salt","type":"uint256"}],
  "outputs":[{"name":"","type":"address"}]}
]`

// SimpleAccount
const accountABIJSON = `[
 {"type":"function","name":"execute","stateMutability":"nonpayable",
  "inputs":[{"name":"dest","type":"address"},{"name":"value","type":"uint256"},{"name":"func","type":"bytes"}],
  "outputs":[]},
 {"type":"function","name":"initialize","stateMutability":"nonpayable",
  "inputs":[{"name":"anOwner","type":"address"}],
  "outputs":[]}
]`

var (
	entryPointABI = mustParseABI(entryPointABIJSON)
	factoryABI    = mustParseABI(factoryABIJSON)
	accountABI    = mustParseABI(accountABIJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("invalid built-in ABI: " + err.Error())
	}
	return parsed
}

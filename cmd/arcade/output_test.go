package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

func TestFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	f, err := NewFormatter(FormatJSON, &buf)
	require.NoError(t, err)

	wallet := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	units, _ := new(big.Int).SetString("10000000000000000000", 10)
	require.NoError(t, f.Print("ignored", []field{
		{"wallet", wallet},
		{"units", units},
		{"missing", (*common.Address)(nil)},
		{"success", true},
	}))

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, wallet.Hex(), out["wallet"])
	assert.Equal(t, "10000000000000000000", out["units"])
	assert.Nil(t, out["missing"])
	assert.Equal(t, true, out["success"])
}

func TestFormatter_RejectsUnknownFormat(t *testing.T) {
	_, err := NewFormatter("xml", nil)
	assert.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, "-"},
		{"", "-"},
		{"x", "x"},
		{(*big.Int)(nil), "-"},
		{big.NewInt(7), "7"},
		{time.Time{}, "-"},
		{ts, "2024-05-01T12:00:00Z"},
		{uint64(3), "3"},
		{types.SessionReady, "ready"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%T", tc.in), func(t *testing.T) {
			assert.Equal(t, tc.want, formatValue(tc.in))
		})
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := parseAddress("to", "")
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, addr)

	addr, err = parseAddress("to", "0x00000000000000000000000000000000000000a2")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xa2"), addr)

	_, err = parseAddress("spender", "0x123")
	assert.ErrorIs(t, err, types.ErrInvalidParams)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(types.NewInvalidParamsError("encode", "bad", nil)))
	assert.Equal(t, 3, exitCode(types.NewSessionNotReadyError(types.SessionIdle)))
	assert.Equal(t, 4, exitCode(types.NewContractCallError(types.CodeReverted, "execute", "nope", nil)))
	assert.Equal(t, 5, exitCode(types.NewInclusionTimeoutError("0x01", nil)))
	assert.Equal(t, 6, exitCode(types.NewNetworkError(types.CodeTransient, "send", nil)))
	assert.Equal(t, 1, exitCode(fmt.Errorf("plain")))
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"

	"github.com/cosmasken/arcadehub-sub003/pkg/types"
)

// Format 输出格式
type Format string

const (
	// FormatTable 表格格式（默认）
	FormatTable Format = "table"
	// FormatJSON 单行JSON
	FormatJSON Format = "json"
	// FormatPretty 美化JSON格式
	FormatPretty Format = "pretty"
)

// field 有序的键值对，表格按给出的顺序显示
type field struct {
	Key   string
	Value interface{}
}

// Formatter 输出格式化器
//
// 数据写到 writer（stdout），提示信息写到 logWriter（stderr），避免污染 JSON。
type Formatter struct {
	format    Format
	writer    io.Writer
	logWriter io.Writer
}

// NewFormatter 创建格式化器
func NewFormatter(format Format, writer io.Writer) (*Formatter, error) {
	switch format {
	case FormatTable, FormatJSON, FormatPretty:
	default:
		return nil, fmt.Errorf("unknown output format %q (table|json|pretty)", format)
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Formatter{format: format, writer: writer, logWriter: os.Stderr}, nil
}

// Interactive 是否面向人阅读（决定是否显示进度动画）
func (f *Formatter) Interactive() bool {
	return f.format == FormatTable
}

// Print 打印一组字段
func (f *Formatter) Print(title string, fields []field) error {
	switch f.format {
	case FormatJSON, FormatPretty:
		data := make(map[string]interface{}, len(fields))
		for _, fd := range fields {
			data[fd.Key] = jsonValue(fd.Value)
		}
		return f.printJSON(data)
	default:
		return f.printTable(title, fields)
	}
}

func (f *Formatter) printJSON(data interface{}) error {
	var output []byte
	var err error
	if f.format == FormatPretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, string(output)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (f *Formatter) printTable(title string, fields []field) error {
	if title != "" {
		pterm.DefaultSection.WithWriter(f.writer).Println(title)
	}
	data := pterm.TableData{{"Field", "Value"}}
	for _, fd := range fields {
		data = append(data, []string{fd.Key, formatValue(fd.Value)})
	}
	return pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").
		WithWriter(f.writer).WithData(data).Render()
}

// PrintSuccess 打印成功消息
func (f *Formatter) PrintSuccess(message string) {
	pterm.Success.WithWriter(f.logWriter).Println(message)
}

// PrintInfo 打印信息消息
func (f *Formatter) PrintInfo(message string) {
	pterm.Info.WithWriter(f.logWriter).Println(message)
}

// PrintWarning 打印警告消息
func (f *Formatter) PrintWarning(message string) {
	pterm.Warning.WithWriter(f.logWriter).Println(message)
}

// PrintError 打印错误；WalletError 附带分类与回滚原因
func (f *Formatter) PrintError(err error) {
	var we *types.WalletError
	if errors.As(err, &we) && f.format != FormatTable {
		_ = f.printJSON(map[string]interface{}{"error": errorFields(we)})
		return
	}
	pterm.Error.WithWriter(f.logWriter).Println(err.Error())
}

func errorFields(we *types.WalletError) map[string]interface{} {
	out := map[string]interface{}{
		"kind":    string(we.Kind),
		"code":    string(we.Code),
		"op":      we.Op,
		"message": we.Error(),
	}
	if we.RevertReason != "" {
		out["revert_reason"] = we.RevertReason
	}
	if we.UserOpHash != "" {
		out["user_op_hash"] = we.UserOpHash
	}
	return out
}

// formatValue 格式化值
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case string:
		if v == "" {
			return "-"
		}
		return v
	case *big.Int:
		if v == nil {
			return "-"
		}
		return v.String()
	case common.Address:
		return v.Hex()
	case *common.Address:
		if v == nil {
			return "-"
		}
		return v.Hex()
	case common.Hash:
		return v.Hex()
	case time.Time:
		if v.IsZero() {
			return "-"
		}
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// jsonValue 大整数与地址按字符串输出，避免精度丢失
func jsonValue(value interface{}) interface{} {
	switch v := value.(type) {
	case *big.Int, common.Address, *common.Address, common.Hash, fmt.Stringer:
		s := formatValue(v)
		if s == "-" {
			return nil
		}
		return s
	default:
		return v
	}
}

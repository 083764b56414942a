package mapping

import (
	"errors"
	"fmt"
)

const (
	// ErrCodeInsufficientRows 表示去掉空行后不足 2 行（需要表头 + 至少 1 行数据）。
	ErrCodeInsufficientRows = "insufficient_rows"
	// ErrCodeTooFewColumns 表示表头不足 2 列。
	ErrCodeTooFewColumns = "too_few_columns"
	// ErrCodeNoValidMappings 表示所有数据行都被丢弃。
	ErrCodeNoValidMappings = "no_valid_mappings"
)

// ParseError 是映射解析阶段的结构化错误（带 error_code）。
// 解析失败时不返回任何部分结果。
type ParseError struct {
	Code string
	Err  error
}

func (e *ParseError) Error() string {
	switch e.Code {
	case ErrCodeInsufficientRows:
		return fmt.Sprintf("%s：CSV 至少需要表头和一行数据", e.Code)
	case ErrCodeTooFewColumns:
		return fmt.Sprintf("%s：表头至少需要两列（当前名称、新名称）", e.Code)
	case ErrCodeNoValidMappings:
		return fmt.Sprintf("%s：没有任何一行同时包含当前名称和新名称", e.Code)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *ParseError 则返回空串。
func Code(err error) string {
	var e *ParseError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Package jsonrepair 从 LLM 的文本输出中提取 JSON 对象，
// 并在输出被 token 上限截断时尝试闭合修复。
package jsonrepair

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrUnrecoverable 表示输出无法解析且修复失败（或损坏过于严重不做猜测）。
var ErrUnrecoverable = errors.New("jsonrepair: unrecoverable output")

// 括号缺口超过该值时认定为严重截断，放弃修复。
const maxUnbalanced = 20

// Extract 去掉 markdown 代码块围栏与 JSON 前的多余文字。
// 输入不含 '{' 时原样返回修剪后的文本。
func Extract(raw string) string {
	content := strings.TrimSpace(raw)

	if strings.HasPrefix(content, "```") {
		if idx := strings.IndexByte(content, '\n'); idx >= 0 {
			content = content[idx+1:]
		} else {
			content = strings.TrimPrefix(content, "```json")
			content = strings.TrimPrefix(content, "```")
		}
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-3]
	}

	content = strings.TrimSpace(content)

	if start := strings.IndexByte(content, '{'); start > 0 {
		content = content[start:]
	}
	return content
}

// Parse 提取并解析 JSON 对象；直接解析失败时走截断修复。
func Parse(raw string) (map[string]any, error) {
	content := Extract(raw)

	var result map[string]any
	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}
	return repairTruncated(content)
}

// repairTruncated 统计未闭合的括号并按 引号 → ] → } 的顺序补全后重试解析。
func repairTruncated(content string) (map[string]any, error) {
	openBraces := strings.Count(content, "{") - strings.Count(content, "}")
	openBrackets := strings.Count(content, "[") - strings.Count(content, "]")

	if openBraces > maxUnbalanced || openBrackets > maxUnbalanced {
		return nil, ErrUnrecoverable
	}

	inString := false
	escaped := false
	for _, ch := range content {
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		}
	}

	var fixed strings.Builder
	fixed.WriteString(content)
	if inString {
		fixed.WriteByte('"')
	}
	for i := 0; i < openBrackets; i++ {
		fixed.WriteByte(']')
	}
	for i := 0; i < openBraces; i++ {
		fixed.WriteByte('}')
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(fixed.String()), &result); err != nil {
		return nil, ErrUnrecoverable
	}
	return result, nil
}

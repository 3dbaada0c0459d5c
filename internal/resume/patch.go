package resume

import (
	"strconv"
	"strings"
)

// ApplyPath 在嵌套的 map/slice 结构上按点分路径写入 value。
// 路径形如 "profile.summary" 或 "sections.0.content.description"，
// 数字段寻址 slice 下标。中间数字段越界时整个更新不生效；
// 非数字段缺失时自动创建空 map 再下钻。末段为数字且越界时静默跳过，
// 末段为键名时无条件写入（创建或覆盖）。
func ApplyPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	var current any = data

	for _, part := range parts[:len(parts)-1] {
		if idx, err := strconv.Atoi(part); err == nil && !strings.HasPrefix(part, "-") {
			list, ok := current.([]any)
			if !ok || idx >= len(list) {
				return
			}
			current = list[idx]
			continue
		}

		m, ok := current.(map[string]any)
		if !ok {
			return
		}
		next, exists := m[part]
		if !exists {
			next = map[string]any{}
			m[part] = next
		}
		current = next
	}

	last := parts[len(parts)-1]
	if idx, err := strconv.Atoi(last); err == nil && !strings.HasPrefix(last, "-") {
		if list, ok := current.([]any); ok {
			if idx < len(list) {
				list[idx] = value
			}
			return
		}
	}
	if m, ok := current.(map[string]any); ok {
		m[last] = value
	}
}

package resume

import (
	"fmt"
	"sort"
)

// Profile 表示简历头部的基础信息，字段均可为空。
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Summary string `json:"summary"`
}

// Section 表示简历中的一个内容区块。
// Type 取值：experience、education、project、skill。
// Content 的结构随 Type 不同而不同，保持为松散映射。
type Section struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Content map[string]any `json:"content"`
}

// Data 表示存储在 Resume.ResumeData(JSONB) 中的结构化数据。
// sections 的顺序即展示顺序，编辑过程中必须保持。
type Data struct {
	Profile  Profile   `json:"profile"`
	Sections []Section `json:"sections"`
}

// DefaultData 返回一份空简历。
func DefaultData() Data {
	return Data{Sections: []Section{}}
}

// LayoutConfig 是扁平的样式配置，键为选项名、值为字符串。
// 未识别的键允许存储，但渲染层不保证生效；更新始终是部分合并，不做整体替换。
type LayoutConfig map[string]string

// DefaultLayoutConfig 返回全部已识别选项的默认值。
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		"theme":             "modern-blue",
		"column_layout":     "single-column",
		"font_size":         "14px",
		"primary_color":     "#2563eb",
		"section_spacing":   "24px",
		"line_height":       "1.6",
		"border_style":      "none",
		"border_radius":     "8px",
		"background_color":  "#ffffff",
		"header_background": "transparent",
		"shadow":            "lg",
		"font_family":       "system",
		"header_font_size":  "28px",
		"header_alignment":  "center",
		"section_style":     "card",
		"accent_style":      "border-left",
	}
}

// Merge 将 patch 合并进当前配置，后写覆盖，返回被修改的键。
// 非字符串值格式化后存储（数字、布尔等照收），nil 跳过。
// 键排序返回：patch 以 map 形式到达，无法还原原始顺序，排序保证响应文案稳定。
func (c LayoutConfig) Merge(patch map[string]any) []string {
	changed := make([]string, 0, len(patch))
	for key, value := range patch {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok {
			c[key] = s
		} else {
			c[key] = fmt.Sprint(value)
		}
		changed = append(changed, key)
	}
	sort.Strings(changed)
	return changed
}

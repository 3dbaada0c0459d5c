// Package render 将模板结构树与简历数据组合成可打印的 HTML 文档。
// 输出用于无头浏览器截图（缩略图）与 PDF 导出。
package render

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// voidTags 不允许包含子节点的 HTML 标签。
var voidTags = map[string]bool{
	"img": true,
	"br":  true,
	"hr":  true,
}

// Document 渲染完整的 HTML 页面。
// tpl 需要包含 root 节点；data 提供 data_path 取值来源；layout 控制全局样式。
func Document(tpl map[string]any, data map[string]any, layout map[string]string) (string, error) {
	root, ok := tpl["root"].(map[string]any)
	if !ok {
		return "", fmt.Errorf("template has no root node")
	}

	var body strings.Builder
	renderNode(&body, root, data, data)

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n<style>\n")
	doc.WriteString(baseCSS(layout))
	doc.WriteString("</style>\n</head>\n<body>\n<div id=\"a4-container\">\n")
	doc.WriteString(body.String())
	doc.WriteString("\n</div>\n</body>\n</html>\n")
	return doc.String(), nil
}

func baseCSS(layout map[string]string) string {
	get := func(key, fallback string) string {
		if v, ok := layout[key]; ok && strings.TrimSpace(v) != "" {
			return v
		}
		return fallback
	}

	var css strings.Builder
	css.WriteString("html, body { margin: 0; padding: 0; background: #f0f0f0; }\n")
	fmt.Fprintf(&css, "body { font-family: %s; font-size: %s; line-height: %s; color: #1f2937; }\n",
		get("font_family", "'Helvetica Neue', Arial, sans-serif"),
		get("font_size", "14px"),
		get("line_height", "1.6"),
	)
	fmt.Fprintf(&css,
		"#a4-container { width: 794px; min-height: 1122px; margin: 0 auto; box-sizing: border-box; padding: 40px; background: %s; }\n",
		get("background_color", "#ffffff"),
	)
	fmt.Fprintf(&css, "a { color: %s; }\n", get("primary_color", "#2563eb"))
	fmt.Fprintf(&css, "h1, h2, h3 { color: %s; margin: 0; }\n", get("primary_color", "#2563eb"))
	fmt.Fprintf(&css, "section { margin-bottom: %s; }\n", get("section_spacing", "16px"))
	css.WriteString("@page { size: A4; margin: 0; }\n")
	return css.String()
}

// renderNode 先在局部数据（repeat 项）中解析 data_path，找不到再回退到根数据。
func renderNode(w *strings.Builder, node map[string]any, local, root map[string]any) {
	tag := stringField(node, "tag")
	if tag == "" {
		tag = "div"
	}

	w.WriteString("<")
	w.WriteString(tag)
	if class := stringField(node, "class_name"); class != "" {
		fmt.Fprintf(w, " class=\"%s\"", html.EscapeString(class))
	}
	if style := inlineStyle(node); style != "" {
		fmt.Fprintf(w, " style=\"%s\"", html.EscapeString(style))
	}
	if tag == "img" {
		if src := resolveText(node, local, root); src != "" {
			fmt.Fprintf(w, " src=\"%s\"", html.EscapeString(src))
		}
		w.WriteString("/>")
		return
	}
	w.WriteString(">")

	if voidTags[tag] {
		return
	}

	if repeatPath := stringField(node, "repeat"); repeatPath != "" {
		renderRepeat(w, node, repeatPath, local, root)
	} else {
		if text := resolveText(node, local, root); text != "" {
			w.WriteString(html.EscapeString(text))
		}
		for _, child := range childNodes(node) {
			renderNode(w, child, local, root)
		}
	}

	w.WriteString("</")
	w.WriteString(tag)
	w.WriteString(">")
}

// renderRepeat 对 repeat 指向的切片逐项渲染子节点，每项作为局部数据上下文。
func renderRepeat(w *strings.Builder, node map[string]any, repeatPath string, local, root map[string]any) {
	list, ok := repeatItems(local, root, repeatPath)
	if !ok {
		return
	}

	children := childNodes(node)
	for _, item := range list {
		itemMap, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for _, child := range children {
			renderNode(w, child, itemMap, root)
		}
	}
}

// repeatItems 解析 repeat 路径对应的切片。
// "sections.experience" 这类路径在直接取值失败时退化为：
// 取父路径的数组并按元素的 type 字段过滤，对应按类型分组循环的模板约定。
func repeatItems(local, root map[string]any, path string) ([]any, bool) {
	if value, ok := resolvePath(local, root, path); ok {
		list, isList := value.([]any)
		return list, isList
	}

	idx := strings.LastIndex(path, ".")
	if idx <= 0 {
		return nil, false
	}
	parent, typeTag := path[:idx], path[idx+1:]
	value, ok := resolvePath(local, root, parent)
	if !ok {
		return nil, false
	}
	list, ok := value.([]any)
	if !ok {
		return nil, false
	}

	filtered := make([]any, 0, len(list))
	for _, raw := range list {
		item, isMap := raw.(map[string]any)
		if !isMap {
			continue
		}
		if tag, _ := item["type"].(string); tag == typeTag {
			filtered = append(filtered, raw)
		}
	}
	return filtered, true
}

var contentVarPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// resolveText 的优先级：带 {{}} 占位符的 content 插值 > data_path 取值 > 字面 content。
func resolveText(node map[string]any, local, root map[string]any) string {
	content := stringField(node, "content")
	if strings.Contains(content, "{{") {
		return interpolate(content, local, root)
	}
	if path := stringField(node, "data_path"); path != "" {
		if value, ok := resolvePath(local, root, path); ok {
			return formatValue(value)
		}
	}
	return content
}

// interpolate 将 {{path}} 替换为对应数据，取不到的引用替换为空串。
func interpolate(content string, local, root map[string]any) string {
	return contentVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		path := strings.TrimSpace(strings.Trim(match, "{}"))
		if value, ok := resolvePath(local, root, path); ok {
			return formatValue(value)
		}
		return ""
	})
}

// resolvePath 先在局部数据（repeat 项）中找，再回退到根数据。
// "item." 前缀显式指向当前 repeat 项。
func resolvePath(local, root map[string]any, path string) (any, bool) {
	if path == "item" {
		if local == nil {
			return nil, false
		}
		return local, true
	}
	if rest, ok := strings.CutPrefix(path, "item."); ok {
		return Lookup(local, rest)
	}
	if value, ok := Lookup(local, path); ok {
		return value, true
	}
	return Lookup(root, path)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// Lookup 按点分路径取值，数字段视为切片下标。
func Lookup(data map[string]any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}

	var current any = data
	for _, segment := range strings.Split(path, ".") {
		if index, err := strconv.Atoi(segment); err == nil && !strings.HasPrefix(segment, "-") {
			list, ok := current.([]any)
			if !ok || index >= len(list) {
				return nil, false
			}
			current = list[index]
			continue
		}

		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// inlineStyle 生成节点的 style 属性。
// 模板树里样式键用 snake_case 存储，输出前转成 CSS 的 kebab-case。
func inlineStyle(node map[string]any) string {
	styles, ok := node["styles"].(map[string]any)
	if !ok || len(styles) == 0 {
		return ""
	}

	parts := make([]string, 0, len(styles))
	for k, v := range styles {
		property := strings.ReplaceAll(k, "_", "-")
		parts = append(parts, fmt.Sprintf("%s: %s", property, formatValue(v)))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func childNodes(node map[string]any) []map[string]any {
	raw, ok := node["children"].([]any)
	if !ok {
		return nil
	}
	children := make([]map[string]any, 0, len(raw))
	for _, c := range raw {
		if m, ok := c.(map[string]any); ok {
			children = append(children, m)
		}
	}
	return children
}

func stringField(node map[string]any, key string) string {
	if v, ok := node[key].(string); ok {
		return v
	}
	return ""
}

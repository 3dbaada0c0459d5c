// Package ast 定义简历模板的可视化结构树。
// 节点内容可通过 {{path}} 语法绑定简历数据，repeat 节点按数据序列循环实例化。
package ast

import (
	"strconv"

	"github.com/google/uuid"
)

// Node 是结构树中的一个节点。
type Node struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Tag       string            `json:"tag"`
	ClassName string            `json:"class_name,omitempty"`
	Styles    map[string]string `json:"styles,omitempty"`
	Content   string            `json:"content,omitempty"`
	DataPath  string            `json:"data_path,omitempty"`
	Children  []*Node           `json:"children,omitempty"`
	Editable  bool              `json:"editable"`
	Draggable bool              `json:"draggable"`
	Repeat    string            `json:"repeat,omitempty"`
}

// Template 是一棵完整的模板结构树。
type Template struct {
	Version      string            `json:"version"`
	Root         *Node             `json:"root"`
	Variables    map[string]string `json:"variables,omitempty"`
	GlobalStyles string            `json:"global_styles,omitempty"`
}

// EnsureNodeIDs 深度优先补齐缺失的节点 ID，已有 ID 保持不变。
// 生成的 ID 形如 <父ID>-<序号>-<8位随机后缀>，同一棵树多次执行不会产生新 ID。
func EnsureNodeIDs(node *Node, prefix string) {
	if node == nil {
		return
	}
	if node.ID == "" {
		node.ID = prefix + uuid.NewString()[:8]
	}
	for i, child := range node.Children {
		EnsureNodeIDs(child, node.ID+"-"+strconv.Itoa(i)+"-")
	}
}

// EnsureNodeIDsMap 是 EnsureNodeIDs 的松散映射版本，
// 用于处理尚未反序列化为 Node 的 LLM 输出。
func EnsureNodeIDsMap(node map[string]any, prefix string) {
	if node == nil {
		return
	}
	id, _ := node["id"].(string)
	if id == "" {
		id = prefix + uuid.NewString()[:8]
		node["id"] = id
	}
	children, _ := node["children"].([]any)
	for i, raw := range children {
		child, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		EnsureNodeIDsMap(child, id+"-"+strconv.Itoa(i)+"-")
	}
}

// UpdateNode 按 ID 定位节点并应用字段更新：
// styles 字段逐键合并，其余字段整体覆盖。返回是否找到目标节点。
func UpdateNode(tpl map[string]any, nodeID string, updates map[string]any) bool {
	root, ok := tpl["root"].(map[string]any)
	if !ok {
		return false
	}
	return findAndUpdate(root, nodeID, updates)
}

func findAndUpdate(node map[string]any, nodeID string, updates map[string]any) bool {
	if id, _ := node["id"].(string); id == nodeID {
		for key, value := range updates {
			styles, isStyles := value.(map[string]any)
			if key == "styles" && isStyles {
				existing, ok := node["styles"].(map[string]any)
				if !ok {
					existing = map[string]any{}
					node["styles"] = existing
				}
				for k, v := range styles {
					existing[k] = v
				}
				continue
			}
			node[key] = value
		}
		return true
	}

	children, _ := node["children"].([]any)
	for _, raw := range children {
		child, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if findAndUpdate(child, nodeID, updates) {
			return true
		}
	}
	return false
}

// HasRoot 判断一个松散映射形式的模板树是否带有 root 节点。
func HasRoot(tpl map[string]any) bool {
	if tpl == nil {
		return false
	}
	root, ok := tpl["root"].(map[string]any)
	return ok && root != nil
}


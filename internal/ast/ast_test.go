package ast

import (
	"strings"
	"testing"
)

func TestEnsureNodeIDs_FillsMissing(t *testing.T) {
	root := &Node{
		ID: "root",
		Children: []*Node{
			{Tag: "h1"},
			{ID: "keep-me", Children: []*Node{{Tag: "span"}}},
		},
	}

	EnsureNodeIDs(root, "")

	first := root.Children[0]
	if first.ID == "" {
		t.Fatalf("missing id not assigned")
	}
	if !strings.HasPrefix(first.ID, "root-0-") {
		t.Fatalf("id prefix mismatch: %q", first.ID)
	}
	if root.Children[1].ID != "keep-me" {
		t.Fatalf("existing id overwritten: %q", root.Children[1].ID)
	}
	grandchild := root.Children[1].Children[0]
	if !strings.HasPrefix(grandchild.ID, "keep-me-0-") {
		t.Fatalf("grandchild prefix mismatch: %q", grandchild.ID)
	}
}

func TestEnsureNodeIDs_Idempotent(t *testing.T) {
	root := &Node{Children: []*Node{{Tag: "p"}, {Tag: "span"}}}
	EnsureNodeIDs(root, "")

	ids := []string{root.ID, root.Children[0].ID, root.Children[1].ID}
	EnsureNodeIDs(root, "")

	after := []string{root.ID, root.Children[0].ID, root.Children[1].ID}
	for i := range ids {
		if ids[i] != after[i] {
			t.Fatalf("id changed on second pass: %q -> %q", ids[i], after[i])
		}
	}
}

func TestEnsureNodeIDsMap(t *testing.T) {
	tpl := map[string]any{
		"id": "root",
		"children": []any{
			map[string]any{"tag": "h1"},
		},
	}

	EnsureNodeIDsMap(tpl, "")

	child := tpl["children"].([]any)[0].(map[string]any)
	id, _ := child["id"].(string)
	if !strings.HasPrefix(id, "root-0-") {
		t.Fatalf("child id not assigned: %q", id)
	}
}

func TestUpdateNode_MergesStyles(t *testing.T) {
	tpl := map[string]any{
		"root": map[string]any{
			"id": "root",
			"children": []any{
				map[string]any{
					"id":     "name",
					"styles": map[string]any{"color": "#2563eb", "font_size": "32px"},
				},
			},
		},
	}

	found := UpdateNode(tpl, "name", map[string]any{
		"styles":  map[string]any{"color": "#059669"},
		"content": "{{profile.name}}",
	})
	if !found {
		t.Fatalf("node not found")
	}

	node := tpl["root"].(map[string]any)["children"].([]any)[0].(map[string]any)
	styles := node["styles"].(map[string]any)
	if styles["color"] != "#059669" {
		t.Fatalf("style not merged: %v", styles)
	}
	if styles["font_size"] != "32px" {
		t.Fatalf("untouched style lost: %v", styles)
	}
	if node["content"] != "{{profile.name}}" {
		t.Fatalf("field not overwritten: %v", node["content"])
	}
}

func TestUpdateNode_UnknownID(t *testing.T) {
	tpl := map[string]any{"root": map[string]any{"id": "root"}}
	if UpdateNode(tpl, "missing", map[string]any{"content": "x"}) {
		t.Fatalf("unexpected match for unknown id")
	}
}

func TestHasRoot(t *testing.T) {
	if HasRoot(nil) {
		t.Fatalf("nil template reported root")
	}
	if HasRoot(map[string]any{"root": "not-a-node"}) {
		t.Fatalf("non-object root accepted")
	}
	if !HasRoot(map[string]any{"root": map[string]any{"id": "root"}}) {
		t.Fatalf("valid root rejected")
	}
}

func TestDefaultTemplate(t *testing.T) {
	tpl := DefaultTemplate()
	if tpl.Root == nil || tpl.Root.ID != "root" {
		t.Fatalf("default template has no root")
	}
	seen := map[string]bool{}
	var walk func(n *Node)
	var dup string
	walk = func(n *Node) {
		if seen[n.ID] {
			dup = n.ID
		}
		seen[n.ID] = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(tpl.Root)
	if dup != "" {
		t.Fatalf("duplicate node id in default template: %q", dup)
	}
}

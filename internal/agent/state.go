// Package agent 实现简历编辑的对话式编排：
// 意图路由、四类编辑处理器、回合编排器与模板结构树生成。
package agent

import (
	"encoding/json"

	"aiResume/internal/llm"
	"aiResume/internal/resume"
)

// Intent 是一次用户消息的分类标签，决定由哪个处理器执行本回合。
type Intent string

const (
	IntentLayout   Intent = "layout"
	IntentContent  Intent = "content"
	IntentTemplate Intent = "template"
	IntentGeneral  Intent = "general"
	// IntentError 仅出现在回合兜底失败的结果中，不参与路由。
	IntentError Intent = "error"
)

// 编辑模式提示，来自前端当前所处的编辑面板。
const (
	EditModeContent  = "content"
	EditModeLayout   = "layout"
	EditModeTemplate = "template"
)

// ChatMessage 是会话历史中的一条消息。
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DragContext 描述用户拖拽的节点及其数据路径。
type DragContext struct {
	NodeID   string `json:"node_id"`
	DataPath string `json:"data_path,omitempty"`
}

// TurnInput 是一个回合的全部输入，由调用方从持久化状态组装。
type TurnInput struct {
	ThreadID         string
	Message          string
	ResumeData       map[string]any
	LayoutConfig     resume.LayoutConfig
	TemplateAST      map[string]any
	Messages         []ChatMessage
	FocusedSectionID string
	DragContext      *DragContext
	EditMode         string
	Images           []llm.ImageData
}

// TurnResult 是回合执行后的完整结果，调用方负责持久化。
type TurnResult struct {
	Message      string
	ResumeData   map[string]any
	LayoutConfig resume.LayoutConfig
	TemplateAST  map[string]any
	Messages     []ChatMessage
	Intent       Intent
}

// turnState 在单个回合内于路由器与处理器之间传递，回合结束即丢弃。
type turnState struct {
	messages         []ChatMessage
	resumeData       map[string]any
	layoutConfig     resume.LayoutConfig
	templateAST      map[string]any
	focusedSectionID string
	dragContext      *DragContext
	editMode         string
	images           []llm.ImageData
	intent           Intent
	response         string
}

// lastUserMessage 返回历史中最后一条消息的内容（进入处理器时必然是本回合的用户消息）。
func (s *turnState) lastUserMessage() string {
	if len(s.messages) == 0 {
		return ""
	}
	return s.messages[len(s.messages)-1].Content
}

// dragContextJSON 返回拖拽上下文的 JSON 描述，无拖拽时为 "none"。
func (s *turnState) dragContextJSON() string {
	if s.dragContext == nil {
		return "none"
	}
	b, err := json.Marshal(s.dragContext)
	if err != nil {
		return "none"
	}
	return string(b)
}

// focusedSection 返回聚焦区块 ID，未聚焦时为 "none"。
func (s *turnState) focusedSection() string {
	if s.focusedSectionID == "" {
		return "none"
	}
	return s.focusedSectionID
}

// jsonString 序列化任意值用于嵌入提示词，失败时退化为 "{}"。
func jsonString(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// truncated 按符文截取错误串的前 100 个字符，避免把超长堆栈回显给用户。
func truncated(err error) string {
	runes := []rune(err.Error())
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return string(runes)
}

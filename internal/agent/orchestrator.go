package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"aiResume/internal/llm"
)

const msgLLMNotConfigured = "LLM 未配置。"

type handlerFunc func(ctx context.Context, s *turnState)

// Orchestrator 驱动一个回合：路由一次、执行一个处理器、合并状态增量。
// 实例在进程启动时构造一次，自身不持有文档状态。
type Orchestrator struct {
	resolver llm.Resolver
	logger   *slog.Logger
	handlers map[Intent]handlerFunc

	// 同一会话的回合必须串行，否则对持久化文档的读写会交错。
	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// NewOrchestrator 构造编排器。
func NewOrchestrator(resolver llm.Resolver, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		resolver: resolver,
		logger:   logger,
		threads:  map[string]*sync.Mutex{},
	}
	o.handlers = map[Intent]handlerFunc{
		IntentLayout:   o.handleLayout,
		IntentContent:  o.handleContent,
		IntentTemplate: o.handleTemplate,
		IntentGeneral:  o.handleGeneral,
	}
	return o
}

// threadLock 返回指定会话的互斥锁，按需创建。
func (o *Orchestrator) threadLock(threadID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.threads[threadID]
	if !ok {
		lock = &sync.Mutex{}
		o.threads[threadID] = lock
	}
	return lock
}

// Run 执行一个完整回合。任何内部失败都被兜底为助手侧的失败消息，
// 文档数据保持进入时的原样；调用方永远拿到结构完整的结果。
func (o *Orchestrator) Run(ctx context.Context, input TurnInput) (result TurnResult) {
	lock := o.threadLock(input.ThreadID)
	lock.Lock()
	defer lock.Unlock()

	messages := append(append([]ChatMessage{}, input.Messages...), ChatMessage{
		Role:    llm.RoleUser,
		Content: input.Message,
	})

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		failure := fmt.Sprintf("处理消息时出错：%s", truncated(fmt.Errorf("%v", r)))
		o.logger.Error("turn panicked", slog.Any("panic", r), slog.String("thread_id", input.ThreadID))
		result = TurnResult{
			Message:      failure,
			ResumeData:   input.ResumeData,
			LayoutConfig: input.LayoutConfig,
			TemplateAST:  input.TemplateAST,
			Messages: append(messages, ChatMessage{
				Role:    llm.RoleAssistant,
				Content: failure,
			}),
			Intent: IntentError,
		}
	}()

	state := &turnState{
		messages:         messages,
		resumeData:       input.ResumeData,
		layoutConfig:     input.LayoutConfig,
		templateAST:      input.TemplateAST,
		focusedSectionID: input.FocusedSectionID,
		dragContext:      input.DragContext,
		editMode:         input.EditMode,
		images:           input.Images,
	}
	if state.editMode == "" {
		state.editMode = EditModeContent
	}

	o.route(ctx, state)

	// 路由失败也会落在 general 上，处理器独立重试自己的调用
	if handler, ok := o.handlers[state.intent]; ok {
		handler(ctx, state)
	} else {
		o.handleGeneral(ctx, state)
	}

	state.messages = append(state.messages, ChatMessage{
		Role:    llm.RoleAssistant,
		Content: state.response,
	})

	o.logger.Info("turn completed",
		slog.String("thread_id", input.ThreadID),
		slog.String("intent", string(state.intent)),
	)

	return TurnResult{
		Message:      state.response,
		ResumeData:   state.resumeData,
		LayoutConfig: state.layoutConfig,
		TemplateAST:  state.templateAST,
		Messages:     state.messages,
		Intent:       state.intent,
	}
}

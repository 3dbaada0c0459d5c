package errcode

// WebSocket 通知中携带的错误码。
// - 0：成功
// - 4xxx：资源类问题，任务跳过或可重试
// - 5xxx：系统错误，任务已走完全部重试
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000
	RenderError     = 5001
)

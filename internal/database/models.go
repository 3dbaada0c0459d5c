package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Resume 表示一份简历文档及其会话记录。
// ResumeData/LayoutConfig/TemplateAST/Messages 均为 JSONB，
// 结构由 internal/resume 与 internal/ast 定义。
type Resume struct {
	gorm.Model
	Title        string         `gorm:"size:255"`
	ResumeData   datatypes.JSON `gorm:"type:jsonb"`
	LayoutConfig datatypes.JSON `gorm:"type:jsonb"`
	TemplateAST  datatypes.JSON `gorm:"type:jsonb"`
	Messages     datatypes.JSON `gorm:"type:jsonb"`
	ExportKey    string         `gorm:"size:512"`
}

// ResumeVersion 是对话编辑前的不可变快照。
// VersionNumber 在同一简历内单调递增。
type ResumeVersion struct {
	gorm.Model
	ResumeID      uint           `gorm:"index"`
	Resume        Resume         `gorm:"constraint:OnDelete:CASCADE"`
	VersionNumber int            `gorm:"index"`
	ResumeData    datatypes.JSON `gorm:"type:jsonb"`
	LayoutConfig  datatypes.JSON `gorm:"type:jsonb"`
}

// Template 表示可复用的简历模板（结构树 + 元信息）。
// 系统内置模板（IsSystem）不可修改或删除。
type Template struct {
	gorm.Model
	Name         string         `gorm:"size:255"`
	Description  string         `gorm:"size:1024"`
	AST          datatypes.JSON `gorm:"type:jsonb"`
	ThumbnailKey string         `gorm:"size:512"`
	IsSystem     bool           `gorm:"default:false"`
}

// LLMConfig 保存生成服务的接入配置，至多一行生效（取最早创建的记录）。
type LLMConfig struct {
	gorm.Model
	BaseURL   string `gorm:"size:500"`
	APIKey    string `gorm:"size:500"`
	ModelName string `gorm:"size:100;default:gpt-4o"`
}

// Asset 记录用户上传的图片对象，实际内容存放在对象存储。
type Asset struct {
	gorm.Model
	ObjectKey string `gorm:"uniqueIndex;size:512"`
	MIMEType  string `gorm:"size:100"`
	SizeBytes int64
}

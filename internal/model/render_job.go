package model

import (
	"time"
)

// 渲染任务状态
const (
	RenderJobStatusQueued     = "queued"
	RenderJobStatusProcessing = "processing"
	RenderJobStatusCompleted  = "completed"
	RenderJobStatusFailed     = "failed"
)

// RenderJob 整本预渲染任务记录。上传成功后入队，由 worker 消费。
type RenderJob struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	DocumentID     int64      `gorm:"not null;index" json:"document_id"`
	Status         string     `gorm:"size:20;default:queued;index" json:"status"`
	Attempts       int        `gorm:"default:0" json:"attempts"`
	PagesTotal     int        `json:"pages_total,omitempty"`
	PagesRendered  int        `json:"pages_rendered,omitempty"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ElapsedSeconds int        `json:"elapsed_seconds,omitempty"`
}

func (RenderJob) TableName() string {
	return "render_jobs"
}

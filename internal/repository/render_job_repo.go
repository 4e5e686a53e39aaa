package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
)

type RenderJobRepository struct {
	db *gorm.DB
}

func NewRenderJobRepository(db *gorm.DB) *RenderJobRepository {
	return &RenderJobRepository{db: db}
}

func (r *RenderJobRepository) Create(job *model.RenderJob) error {
	return r.db.Create(job).Error
}

func (r *RenderJobRepository) GetByID(id int64) (*model.RenderJob, error) {
	var job model.RenderJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetLatestByDocument 刊物最近一次的渲染任务
func (r *RenderJobRepository) GetLatestByDocument(documentID int64) (*model.RenderJob, error) {
	var job model.RenderJob
	err := r.db.Where("document_id = ?", documentID).Order("created_at DESC").First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkProcessing 任务开始执行，尝试次数加一
func (r *RenderJobRepository) MarkProcessing(id int64) error {
	now := time.Now()
	return r.db.Model(&model.RenderJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     model.RenderJobStatusProcessing,
		"attempts":   gorm.Expr("attempts + 1"),
		"started_at": now,
	}).Error
}

func (r *RenderJobRepository) UpdateFields(id int64, fields map[string]interface{}) error {
	return r.db.Model(&model.RenderJob{}).Where("id = ?", id).Updates(fields).Error
}

// MarkCompleted 任务成功收尾
func (r *RenderJobRepository) MarkCompleted(id int64, pagesTotal, pagesRendered, elapsedSeconds int) error {
	now := time.Now()
	return r.db.Model(&model.RenderJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          model.RenderJobStatusCompleted,
		"pages_total":     pagesTotal,
		"pages_rendered":  pagesRendered,
		"elapsed_seconds": elapsedSeconds,
		"completed_at":    now,
		"error_message":   "",
	}).Error
}

// MarkFailed 任务失败，记录原因
func (r *RenderJobRepository) MarkFailed(id int64, errMsg string) error {
	now := time.Now()
	return r.db.Model(&model.RenderJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.RenderJobStatusFailed,
		"error_message": errMsg,
		"completed_at":  now,
	}).Error
}

// Requeue 任务退回队列等待重试
func (r *RenderJobRepository) Requeue(id int64, errMsg string) error {
	return r.db.Model(&model.RenderJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.RenderJobStatusQueued,
		"error_message": errMsg,
	}).Error
}

// ListByStatus 按状态分页列出任务
func (r *RenderJobRepository) ListByStatus(status string, page, pageSize int) ([]*model.RenderJob, int64, error) {
	var jobs []*model.RenderJob
	var total int64

	query := r.db.Model(&model.RenderJob{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&jobs).Error; err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

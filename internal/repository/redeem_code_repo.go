package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/Naakoi/uekera_go_server/internal/model"
)

type RedeemCodeRepository struct {
	db *gorm.DB
}

func NewRedeemCodeRepository(db *gorm.DB) *RedeemCodeRepository {
	return &RedeemCodeRepository{db: db}
}

func (r *RedeemCodeRepository) Create(code *model.RedeemCode) error {
	return r.db.Create(code).Error
}

func (r *RedeemCodeRepository) CreateBatch(codes []*model.RedeemCode) error {
	return r.db.Create(&codes).Error
}

func (r *RedeemCodeRepository) GetByID(id int64) (*model.RedeemCode, error) {
	var code model.RedeemCode
	err := r.db.Where("id = ?", id).First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *RedeemCodeRepository) GetByCode(codeStr string) (*model.RedeemCode, error) {
	var code model.RedeemCode
	err := r.db.Where("code = ?", codeStr).First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *RedeemCodeRepository) CodeExists(codeStr string) (bool, error) {
	var count int64
	err := r.db.Model(&model.RedeemCode{}).Where("code = ?", codeStr).Count(&count).Error
	return count > 0, err
}

// MarkUsed 兑换码的唯一一次状态跃迁。条件更新加 is_used=false 守卫，
// 并发兑换同一个码时只有一个事务能改到行，RowsAffected=0 即竞争失败。
func (r *RedeemCodeRepository) MarkUsed(id int64, identity model.Identity, expiresAt *time.Time) (bool, error) {
	now := time.Now()

	fields := map[string]interface{}{
		"is_used":      true,
		"activated_at": now,
		"expires_at":   expiresAt,
	}
	if identity.Authenticated() {
		fields["user_id"] = *identity.UserID
		if identity.DeviceID != "" {
			fields["device_id"] = identity.DeviceID
		}
	} else {
		fields["user_id"] = nil
		fields["device_id"] = identity.DeviceID
	}

	result := r.db.Model(&model.RedeemCode{}).
		Where("id = ? AND is_used = ?", id, false).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// scopeIdentity 访问判定用的激活归属范围。这是激活归属的唯一裁决点：
// 登录用户只认 user_id 相等的记录，匿名访客只认 user_id 为空
// 且 device_id 相等的记录。登录后不会仅凭 device_id 捡到别人的激活。
func scopeIdentity(db *gorm.DB, identity model.Identity) *gorm.DB {
	if identity.Authenticated() {
		return db.Where("user_id = ?", *identity.UserID)
	}
	return db.Where("user_id IS NULL AND device_id = ?", identity.DeviceID)
}

// scopeStatusIdentity 状态查询用的宽范围。登录用户额外能看到
// 本设备在登录前完成的匿名激活，避免登录后阅读入口突然消失。
func scopeStatusIdentity(db *gorm.DB, identity model.Identity) *gorm.DB {
	if identity.Authenticated() && identity.DeviceID != "" {
		return db.Where("user_id = ? OR (user_id IS NULL AND device_id = ?)",
			*identity.UserID, identity.DeviceID)
	}
	return scopeIdentity(db, identity)
}

// activeQuery 已激活且未过期的记录。过期判定严格排他：
// expires_at 等于当前时刻即视为过期，permanent 码 expires_at 为空永不过期。
func (r *RedeemCodeRepository) activeQuery(now time.Time) *gorm.DB {
	return r.db.Model(&model.RedeemCode{}).
		Where("is_used = ?", true).
		Where("expires_at IS NULL OR expires_at > ?", now)
}

// HasGlobalAccess 主体是否持有生效中的全量激活
func (r *RedeemCodeRepository) HasGlobalAccess(identity model.Identity, now time.Time) (bool, error) {
	var count int64
	err := scopeIdentity(r.activeQuery(now), identity).
		Where("document_id IS NULL").
		Count(&count).Error
	return count > 0, err
}

// HasDocumentAccess 主体是否能通过激活读到指定刊物（全量或单期均可）
func (r *RedeemCodeRepository) HasDocumentAccess(identity model.Identity, documentID int64, now time.Time) (bool, error) {
	var count int64
	err := scopeIdentity(r.activeQuery(now), identity).
		Where("document_id IS NULL OR document_id = ?", documentID).
		Count(&count).Error
	return count > 0, err
}

// ActiveDocumentIDs 主体通过单期激活可读的刊物 ID 集合
func (r *RedeemCodeRepository) ActiveDocumentIDs(identity model.Identity, now time.Time) ([]int64, error) {
	var ids []int64
	err := scopeIdentity(r.activeQuery(now), identity).
		Where("document_id IS NOT NULL").
		Pluck("document_id", &ids).Error
	return ids, err
}

// StatusActivations 状态查询可见的全部生效激活，用宽范围
func (r *RedeemCodeRepository) StatusActivations(identity model.Identity, now time.Time) ([]*model.RedeemCode, error) {
	var codes []*model.RedeemCode
	err := scopeStatusIdentity(r.activeQuery(now), identity).
		Order("activated_at DESC").
		Find(&codes).Error
	return codes, err
}

// ListByCreator 按创建者分页列出兑换码
func (r *RedeemCodeRepository) ListByCreator(creatorID int64, page, pageSize int, onlyUnused bool) ([]*model.RedeemCode, int64, error) {
	var codes []*model.RedeemCode
	var total int64

	query := r.db.Model(&model.RedeemCode{}).Where("creator_id = ?", creatorID)
	if onlyUnused {
		query = query.Where("is_used = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&codes).Error; err != nil {
		return nil, 0, err
	}

	return codes, total, nil
}

// List 管理端全量列表
func (r *RedeemCodeRepository) List(page, pageSize int, onlyUnused bool) ([]*model.RedeemCode, int64, error) {
	var codes []*model.RedeemCode
	var total int64

	query := r.db.Model(&model.RedeemCode{})
	if onlyUnused {
		query = query.Where("is_used = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&codes).Error; err != nil {
		return nil, 0, err
	}

	return codes, total, nil
}

func (r *RedeemCodeRepository) Delete(id int64) error {
	return r.db.Delete(&model.RedeemCode{}, id).Error
}

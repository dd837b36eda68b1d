package repository

import (
	"context"
	"fmt"

	"github.com/yuqie6/SkillForge/internal/schema"
	"gorm.io/gorm"
)

// SessionRepository 训练记录账本（只追加）
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建训练记录仓储
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Append 追加一条训练记录，返回记录 ID
func (r *SessionRepository) Append(ctx context.Context, session *schema.TrainingSession) (int64, error) {
	if session == nil {
		return 0, fmt.Errorf("session is nil")
	}
	if session.SkillID <= 0 {
		return 0, fmt.Errorf("invalid skill id: %d", session.SkillID)
	}
	if session.ID != 0 {
		return 0, fmt.Errorf("训练记录只能追加，不能覆盖: id=%d", session.ID)
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return 0, fmt.Errorf("写入训练记录失败: %w", err)
	}
	return session.ID, nil
}

// ListBySkill 按创建顺序列出某技能的训练记录
func (r *SessionRepository) ListBySkill(ctx context.Context, skillID int64) ([]schema.TrainingSession, error) {
	var sessions []schema.TrainingSession
	err := r.db.WithContext(ctx).
		Where("skill_id = ?", skillID).
		Order("created_at ASC, id ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("查询训练记录失败: %w", err)
	}
	return sessions, nil
}

// CountBySkill 统计某技能的训练记录数
func (r *SessionRepository) CountBySkill(ctx context.Context, skillID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&schema.TrainingSession{}).Where("skill_id = ?", skillID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计训练记录失败: %w", err)
	}
	return count, nil
}

// DeleteAllForSkill 删除某技能的全部训练记录，仅用于技能级联删除
func (r *SessionRepository) DeleteAllForSkill(ctx context.Context, skillID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("skill_id = ?", skillID).Delete(&schema.TrainingSession{})
	if res.Error != nil {
		return 0, fmt.Errorf("删除训练记录失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}

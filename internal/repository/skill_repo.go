package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuqie6/SkillForge/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SkillRepository 技能仓储
type SkillRepository struct {
	db *gorm.DB
}

// NewSkillRepository 创建仓储
func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

// Create 创建技能，名称大小写敏感唯一
func (r *SkillRepository) Create(ctx context.Context, name string, initial schema.SkillProgress) (schema.Skill, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&schema.Skill{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return schema.Skill{}, fmt.Errorf("查询技能失败: %w", err)
	}
	if count > 0 {
		return schema.Skill{}, ErrDuplicateName
	}

	skill := schema.Skill{Name: name}.WithProgress(initial)
	if err := r.db.WithContext(ctx).Create(&skill).Error; err != nil {
		// 并发创建同名技能时由唯一索引兜底
		if isUniqueViolation(err) {
			return schema.Skill{}, ErrDuplicateName
		}
		return schema.Skill{}, fmt.Errorf("创建技能失败: %w", err)
	}
	return skill, nil
}

// GetByID 根据 ID 获取技能
func (r *SkillRepository) GetByID(ctx context.Context, id int64) (schema.Skill, error) {
	var skill schema.Skill
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&skill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return schema.Skill{}, ErrSkillNotFound
		}
		return schema.Skill{}, fmt.Errorf("查询技能失败: %w", err)
	}
	return skill, nil
}

// GetByIDForUpdate 在事务内读取并锁定技能行（SELECT ... FOR UPDATE）。
// 多进程共享同一 Postgres 时据此串行化读改写；SQLite 方言会忽略该子句，由单写者保证。
func (r *SkillRepository) GetByIDForUpdate(ctx context.Context, id int64) (schema.Skill, error) {
	var skill schema.Skill
	err := lockedByID(r.db.WithContext(ctx), id).First(&skill).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return schema.Skill{}, ErrSkillNotFound
		}
		return schema.Skill{}, fmt.Errorf("锁定技能失败: %w", err)
	}
	return skill, nil
}

func lockedByID(db *gorm.DB, id int64) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).Where("id = ?", id)
}

// GetAll 获取所有技能，按创建顺序
func (r *SkillRepository) GetAll(ctx context.Context) ([]schema.Skill, error) {
	var skills []schema.Skill
	err := r.db.WithContext(ctx).Order("id ASC").Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}
	return skills, nil
}

// GetTopByXP 获取经验排名前 N 的技能
func (r *SkillRepository) GetTopByXP(ctx context.Context, limit int) ([]schema.Skill, error) {
	var skills []schema.Skill
	err := r.db.WithContext(ctx).
		Order("total_xp DESC, id ASC").
		Limit(limit).
		Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}
	return skills, nil
}

// UpdateProgress 写入新的进度，是技能唯一的变更路径。
// 等级与经验总是整体写入。
func (r *SkillRepository) UpdateProgress(ctx context.Context, id int64, p schema.SkillProgress) error {
	res := r.db.WithContext(ctx).Model(&schema.Skill{}).Where("id = ?", id).Updates(map[string]any{
		"current_level":    p.Level,
		"total_xp":         p.TotalXP,
		"xp_to_next_level": p.XPToNextLevel,
		"progress_xp":      p.ProgressXP,
	})
	if res.Error != nil {
		return fmt.Errorf("更新技能进度失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSkillNotFound
	}
	return nil
}

// Delete 删除技能。调用方需先（或在同一事务中）清理训练记录。
func (r *SkillRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&schema.Skill{})
	if res.Error != nil {
		return fmt.Errorf("删除技能失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSkillNotFound
	}
	return nil
}

// Count 统计技能数量
func (r *SkillRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&schema.Skill{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计技能失败: %w", err)
	}
	return count, nil
}

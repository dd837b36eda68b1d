package service

import (
	"context"

	"github.com/yuqie6/SkillForge/internal/eventbus"
	"github.com/yuqie6/SkillForge/internal/schema"
)

// 仓储/外部依赖的最小接口集合（ISP）

type SkillRepository interface {
	Create(ctx context.Context, name string, initial schema.SkillProgress) (schema.Skill, error)
	GetByID(ctx context.Context, id int64) (schema.Skill, error)
	// GetByIDForUpdate 仅在 Atomic 内使用：锁定行直到事务结束
	GetByIDForUpdate(ctx context.Context, id int64) (schema.Skill, error)
	GetAll(ctx context.Context) ([]schema.Skill, error)
	UpdateProgress(ctx context.Context, id int64, p schema.SkillProgress) error
	Delete(ctx context.Context, id int64) error
}

type SessionLedger interface {
	Append(ctx context.Context, session *schema.TrainingSession) (int64, error)
	ListBySkill(ctx context.Context, skillID int64) ([]schema.TrainingSession, error)
	DeleteAllForSkill(ctx context.Context, skillID int64) (int64, error)
}

// ProgressStore 技能与账本的组合存储；Atomic 内的读写要么全部提交，要么全部回滚
type ProgressStore interface {
	Skills() SkillRepository
	Sessions() SessionLedger
	Atomic(ctx context.Context, fn func(tx ProgressStore) error) error
}

// EventPublisher 进度事件发布
type EventPublisher interface {
	Publish(evt eventbus.Event)
}

package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yuqie6/SkillForge/internal/eventbus"
	"github.com/yuqie6/SkillForge/internal/schema"
)

// SkillService 技能进度引擎：技能状态的唯一所有者。
// 同一技能上的写操作按技能串行；不同技能之间互不阻塞。
type SkillService struct {
	store  ProgressStore
	calc   *Calculator
	events EventPublisher
	locks  *skillLocks
	now    func() time.Time
}

// NewSkillService 创建技能服务
func NewSkillService(store ProgressStore, calc *Calculator, events EventPublisher) *SkillService {
	if calc == nil {
		calc = NewCalculator(nil, nil)
	}
	return &SkillService{
		store:  store,
		calc:   calc,
		events: events,
		locks:  newSkillLocks(),
		now:    time.Now,
	}
}

// Calculator 返回进度计算器
func (s *SkillService) Calculator() *Calculator {
	return s.calc
}

// CreateSkill 创建技能，初始为 1 级 0 经验
func (s *SkillService) CreateSkill(ctx context.Context, name string) (schema.Skill, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return schema.Skill{}, validationErr("name", "Skill 'name' cannot be empty")
	}
	if utf8.RuneCountInString(name) > schema.MaxSkillNameLen {
		return schema.Skill{}, validationErr("name", "Skill 'name' is too long")
	}

	skill, err := s.store.Skills().Create(ctx, name, s.calc.Snapshot(0))
	if err != nil {
		return schema.Skill{}, translateStoreErr("create_skill", 0, name, err)
	}

	slog.Info("技能已创建", "skill_id", skill.ID, "name", skill.Name)
	s.publish(eventbus.NewSkillEvent(eventbus.TypeSkillCreated, skill))
	return skill, nil
}

// LogSession 记录一次训练：账本追加与技能更新在同一事务内，要么都成功要么都回滚
func (s *SkillService) LogSession(ctx context.Context, skillID int64, durationMinutes int) (schema.Skill, error) {
	if err := ValidateDuration(durationMinutes); err != nil {
		return schema.Skill{}, err
	}

	unlock := s.locks.lock(skillID)
	defer unlock()

	var (
		before  schema.Skill
		updated schema.Skill
		result  SessionResult
	)
	err := s.store.Atomic(ctx, func(tx ProgressStore) error {
		var err error
		before, err = tx.Skills().GetByIDForUpdate(ctx, skillID)
		if err != nil {
			return err
		}

		result, err = s.calc.ApplySession(before.TotalXP, before.CurrentLevel, durationMinutes)
		if err != nil {
			return err
		}

		session := &schema.TrainingSession{
			SkillID:         skillID,
			DurationMinutes: durationMinutes,
			XPAwarded:       result.XPAwarded,
			CreatedAt:       s.now(),
		}
		if _, err := tx.Sessions().Append(ctx, session); err != nil {
			return err
		}
		if err := tx.Skills().UpdateProgress(ctx, skillID, result.Progress); err != nil {
			return err
		}
		updated = before.WithProgress(result.Progress)
		return nil
	})
	if err != nil {
		return schema.Skill{}, translateStoreErr("log_session", skillID, "", err)
	}

	slog.Debug("训练已记录", "skill_id", skillID, "duration_minutes", durationMinutes,
		"xp_awarded", result.XPAwarded, "total_xp", updated.TotalXP, "level", updated.CurrentLevel)
	s.publish(eventbus.NewSkillEvent(eventbus.TypeSessionLogged, updated))
	if result.LeveledUp(before.CurrentLevel) {
		slog.Info("技能升级", "skill_id", skillID, "from", before.CurrentLevel, "to", updated.CurrentLevel)
		evt := eventbus.NewSkillEvent(eventbus.TypeSkillLevelUp, updated)
		evt.Data["previous_level"] = before.CurrentLevel
		s.publish(evt)
	}
	return updated, nil
}

// DeleteSkill 删除技能及其全部训练记录（原子）
func (s *SkillService) DeleteSkill(ctx context.Context, skillID int64) (schema.Skill, error) {
	unlock := s.locks.lock(skillID)
	defer unlock()

	var (
		deleted schema.Skill
		removed int64
	)
	err := s.store.Atomic(ctx, func(tx ProgressStore) error {
		var err error
		deleted, err = tx.Skills().GetByIDForUpdate(ctx, skillID)
		if err != nil {
			return err
		}
		removed, err = tx.Sessions().DeleteAllForSkill(ctx, skillID)
		if err != nil {
			return err
		}
		return tx.Skills().Delete(ctx, skillID)
	})
	if err != nil {
		return schema.Skill{}, translateStoreErr("delete_skill", skillID, "", err)
	}

	slog.Info("技能已删除", "skill_id", skillID, "name", deleted.Name, "sessions_removed", removed)
	s.publish(eventbus.NewSkillEvent(eventbus.TypeSkillDeleted, deleted))
	return deleted, nil
}

// ListSkills 返回全部技能的已提交快照
func (s *SkillService) ListSkills(ctx context.Context) ([]schema.Skill, error) {
	skills, err := s.store.Skills().GetAll(ctx)
	if err != nil {
		return nil, translateStoreErr("list_skills", 0, "", err)
	}
	if skills == nil {
		skills = []schema.Skill{}
	}
	return skills, nil
}

// GetSkill 获取单个技能
func (s *SkillService) GetSkill(ctx context.Context, skillID int64) (schema.Skill, error) {
	skill, err := s.store.Skills().GetByID(ctx, skillID)
	if err != nil {
		return schema.Skill{}, translateStoreErr("get_skill", skillID, "", err)
	}
	return skill, nil
}

// ListSessions 按时间顺序返回技能的训练记录
func (s *SkillService) ListSessions(ctx context.Context, skillID int64) ([]schema.TrainingSession, error) {
	var sessions []schema.TrainingSession
	err := s.store.Atomic(ctx, func(tx ProgressStore) error {
		if _, err := tx.Skills().GetByID(ctx, skillID); err != nil {
			return err
		}
		var err error
		sessions, err = tx.Sessions().ListBySkill(ctx, skillID)
		return err
	})
	if err != nil {
		return nil, translateStoreErr("list_sessions", skillID, "", err)
	}
	if sessions == nil {
		sessions = []schema.TrainingSession{}
	}
	return sessions, nil
}

func (s *SkillService) publish(evt eventbus.Event) {
	if s.events == nil {
		return
	}
	s.events.Publish(evt)
}

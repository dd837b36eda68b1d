package service

import (
	"fmt"

	"github.com/yuqie6/SkillForge/internal/schema"
)

// SessionResult 一次训练的计算结果
type SessionResult struct {
	XPAwarded int64
	Progress  schema.SkillProgress
}

// LeveledUp 本次训练是否升级
func (r SessionResult) LeveledUp(prevLevel int) bool {
	return r.Progress.Level > prevLevel
}

// Calculator 进度计算器：纯函数，无副作用
type Calculator struct {
	curve  LevelCurve
	policy ExpPolicy
}

// NewCalculator 创建进度计算器
func NewCalculator(curve LevelCurve, policy ExpPolicy) *Calculator {
	if curve == nil {
		curve = DefaultCurve()
	}
	if policy == nil {
		policy = DefaultExpPolicy{XPPerMinute: 1}
	}
	return &Calculator{curve: curve, policy: policy}
}

// Curve 返回使用的等级曲线
func (c *Calculator) Curve() LevelCurve {
	return c.curve
}

// ValidateDuration 校验训练时长
func ValidateDuration(durationMinutes int) error {
	if !schema.ValidDuration(durationMinutes) {
		return validationErr("duration_minutes", fmt.Sprintf("Duration must be between %d and %d minutes",
			schema.MinSessionMinutes, schema.MaxSessionMinutes))
	}
	return nil
}

// Snapshot 根据累计经验构建完整进度
func (c *Calculator) Snapshot(totalXP int64) schema.SkillProgress {
	return c.snapshotFromHint(totalXP, 1)
}

func (c *Calculator) snapshotFromHint(totalXP int64, hint int) schema.SkillProgress {
	level := LevelFromHint(c.curve, totalXP, hint)
	return schema.SkillProgress{
		Level:         level,
		TotalXP:       totalXP,
		XPToNextLevel: c.curve.Threshold(level+1) - totalXP,
		ProgressXP:    totalXP - c.curve.Threshold(level),
	}
}

// ApplySession 把一次训练折算为经验并重算等级。
// 跨越多个阈值时一次性得出新等级（连续升级）。
func (c *Calculator) ApplySession(currentTotalXP int64, currentLevel int, durationMinutes int) (SessionResult, error) {
	if err := ValidateDuration(durationMinutes); err != nil {
		return SessionResult{}, err
	}
	if currentTotalXP < 0 {
		return SessionResult{}, fmt.Errorf("total xp must be >= 0, got %d", currentTotalXP)
	}

	awarded := c.policy.CalcSessionExp(durationMinutes)
	if awarded < 0 {
		return SessionResult{}, fmt.Errorf("exp policy returned negative xp: %d", awarded)
	}

	newTotal := currentTotalXP + awarded
	if newTotal >= c.curve.Threshold(MaxLevel+1) {
		return SessionResult{}, validationErr("duration_minutes", fmt.Sprintf("Skill has reached the maximum level %d", MaxLevel))
	}

	p := c.snapshotFromHint(newTotal, currentLevel)
	if p.Level < currentLevel {
		// 等级不回退；输入一致时不会发生
		return SessionResult{}, fmt.Errorf("level would decrease from %d to %d", currentLevel, p.Level)
	}
	return SessionResult{XPAwarded: awarded, Progress: p}, nil
}

// CheckInvariant 校验 threshold(level) <= total_xp < threshold(level+1) 及派生字段
func (c *Calculator) CheckInvariant(p schema.SkillProgress) error {
	if p.Level < 1 {
		return fmt.Errorf("level %d < 1", p.Level)
	}
	lo, hi := c.curve.Threshold(p.Level), c.curve.Threshold(p.Level+1)
	if p.TotalXP < lo || p.TotalXP >= hi {
		return fmt.Errorf("total_xp %d outside [%d, %d) for level %d", p.TotalXP, lo, hi, p.Level)
	}
	if p.XPToNextLevel != hi-p.TotalXP {
		return fmt.Errorf("xp_to_next_level %d, want %d", p.XPToNextLevel, hi-p.TotalXP)
	}
	if p.ProgressXP != p.TotalXP-lo {
		return fmt.Errorf("progress_xp %d, want %d", p.ProgressXP, p.TotalXP-lo)
	}
	return nil
}

package service

import "github.com/yuqie6/SkillForge/internal/schema"

// ExpPolicy 经验计算策略（可替换）
type ExpPolicy interface {
	CalcSessionExp(durationMinutes int) int64
}

// DefaultExpPolicy 默认经验策略：按分钟线性计分
type DefaultExpPolicy struct {
	XPPerMinute int64
}

// CalcSessionExp 根据训练时长计算经验值
func (p DefaultExpPolicy) CalcSessionExp(durationMinutes int) int64 {
	rate := p.XPPerMinute
	if rate <= 0 {
		rate = 1
	}
	return int64(clamp(durationMinutes, 0, schema.MaxSessionMinutes)) * rate
}

// clamp 将数值限制在指定范围内
func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

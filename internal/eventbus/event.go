package eventbus

import (
	"time"

	"github.com/yuqie6/SkillForge/internal/schema"
)

// 进度事件类型
const (
	TypeSkillCreated  = "skill.created"
	TypeSessionLogged = "session.logged"
	TypeSkillLevelUp  = "skill.level_up"
	TypeSkillDeleted  = "skill.deleted"
)

// Event 进度事件；Data 为技能快照，JSON 直接推给 SSE 客户端
type Event struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewSkillEvent 以技能快照构建事件
func NewSkillEvent(typ string, skill schema.Skill) Event {
	return Event{
		Type:      typ,
		Timestamp: time.Now().UnixMilli(),
		Data: map[string]any{
			"skill_id":         skill.ID,
			"name":             skill.Name,
			"current_level":    skill.CurrentLevel,
			"total_xp":         skill.TotalXP,
			"xp_to_next_level": skill.XPToNextLevel,
		},
	}
}

// SkillID 事件关联的技能
func (e Event) SkillID() (int64, bool) {
	return Int64(e.Data, "skill_id")
}

// TotalXP 事件发生后的累计经验
func (e Event) TotalXP() int64 {
	xp, _ := Int64(e.Data, "total_xp")
	return xp
}

// SkillName 技能名
func (e Event) SkillName() string {
	return String(e.Data, "name")
}

// Int64 读取事件中的整数字段，兼容 JSON 解码后的 float64
func Int64(data map[string]any, key string) (int64, bool) {
	switch v := data[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// String 读取事件中的字符串字段
func String(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

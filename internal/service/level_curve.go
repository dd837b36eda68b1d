package service

import (
	"fmt"
	"math"
)

// MaxLevel 等级上限，保证阈值计算不溢出
const MaxLevel = 10000

// LevelCurve 等级曲线：Threshold(L) 为达到等级 L 所需的累计经验。
// 要求 Threshold(1)=0 且严格递增。
type LevelCurve interface {
	Threshold(level int) int64
}

// PowerCurve threshold(L) = round(Base * (L-1)^Exponent)
type PowerCurve struct {
	Base     float64
	Exponent float64
}

// NewPowerCurve 创建幂函数曲线，Base>0 且 Exponent>=1 才能保证整数阈值严格递增
func NewPowerCurve(base, exponent float64) (PowerCurve, error) {
	if base < 1 || math.IsNaN(base) || math.IsInf(base, 0) {
		return PowerCurve{}, fmt.Errorf("curve base must be >= 1, got %v", base)
	}
	if exponent < 1 || math.IsNaN(exponent) || math.IsInf(exponent, 0) {
		return PowerCurve{}, fmt.Errorf("curve exponent must be >= 1, got %v", exponent)
	}
	if base*math.Pow(MaxLevel, exponent) >= math.MaxInt64/4 {
		return PowerCurve{}, fmt.Errorf("curve overflows before level %d", MaxLevel)
	}
	return PowerCurve{Base: base, Exponent: exponent}, nil
}

// DefaultCurve 默认曲线：100 * (L-1)^2
func DefaultCurve() PowerCurve {
	return PowerCurve{Base: 100, Exponent: 2}
}

// Threshold 达到 level 所需的累计经验
func (c PowerCurve) Threshold(level int) int64 {
	if level <= 1 {
		return 0
	}
	return int64(math.Round(c.Base * math.Pow(float64(level-1), c.Exponent)))
}

// TableCurve 显式阈值表，Steps[i] 为达到等级 i+2 的累计经验；
// 超出表的部分按最后一级的增量线性外推。
type TableCurve struct {
	Steps []int64
}

// NewTableCurve 创建阈值表曲线
func NewTableCurve(steps ...int64) (TableCurve, error) {
	if len(steps) == 0 {
		return TableCurve{}, fmt.Errorf("table curve needs at least one step")
	}
	prev := int64(0)
	for i, s := range steps {
		if s <= prev {
			return TableCurve{}, fmt.Errorf("table curve must be strictly increasing at level %d", i+2)
		}
		prev = s
	}
	return TableCurve{Steps: append([]int64(nil), steps...)}, nil
}

// Threshold 达到 level 所需的累计经验
func (c TableCurve) Threshold(level int) int64 {
	if level <= 1 {
		return 0
	}
	idx := level - 2
	if idx < len(c.Steps) {
		return c.Steps[idx]
	}
	last := c.Steps[len(c.Steps)-1]
	step := last
	if len(c.Steps) > 1 {
		step = last - c.Steps[len(c.Steps)-2]
	}
	return last + int64(idx-len(c.Steps)+1)*step
}

// LevelForXP 返回满足 Threshold(L) <= xp 的最大等级 L
func LevelForXP(curve LevelCurve, xp int64) int {
	return LevelFromHint(curve, xp, 1)
}

// LevelFromHint 从已知等级 hint 向前探测；通常单次训练只跨 0-2 级，
// 探测失败时退化为倍增 + 二分查找。
func LevelFromHint(curve LevelCurve, xp int64, hint int) int {
	if xp <= 0 {
		return 1
	}
	if hint < 1 || hint > MaxLevel || curve.Threshold(hint) > xp {
		hint = 1
	}

	// 线性探测几步
	lo := hint
	for i := 0; i < 3; i++ {
		if lo >= MaxLevel || curve.Threshold(lo+1) > xp {
			return lo
		}
		lo++
	}

	// 倍增找到上界：Threshold(lo) <= xp < Threshold(hi)
	step := 1
	hi := lo + step
	for hi <= MaxLevel && curve.Threshold(hi) <= xp {
		lo = hi
		step *= 2
		hi = lo + step
	}
	if hi > MaxLevel+1 {
		hi = MaxLevel + 1
	}
	if lo >= MaxLevel {
		return MaxLevel
	}

	// 二分
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if curve.Threshold(mid) <= xp {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

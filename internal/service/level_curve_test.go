package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerCurveDefault(t *testing.T) {
	c := DefaultCurve()
	cases := map[int]int64{0: 0, 1: 0, 2: 100, 3: 400, 4: 900, 5: 1600}
	for level, want := range cases {
		assert.Equal(t, want, c.Threshold(level), "level %d", level)
	}
}

func TestPowerCurveStrictlyIncreasing(t *testing.T) {
	for _, params := range [][2]float64{{100, 2}, {100, 1.5}, {1, 1}, {7, 1.1}} {
		c, err := NewPowerCurve(params[0], params[1])
		require.NoError(t, err)
		for l := 1; l < 2000; l++ {
			require.Less(t, c.Threshold(l), c.Threshold(l+1), "curve %v level %d", params, l)
		}
	}
}

func TestNewPowerCurveRejectsInvalid(t *testing.T) {
	_, err := NewPowerCurve(0.5, 2)
	assert.Error(t, err)
	_, err = NewPowerCurve(100, 0.5)
	assert.Error(t, err)
	_, err = NewPowerCurve(100, 9)
	assert.Error(t, err, "overflowing curve should be rejected")
}

func TestTableCurve(t *testing.T) {
	c, err := NewTableCurve(10, 30, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Threshold(1))
	assert.Equal(t, int64(10), c.Threshold(2))
	assert.Equal(t, int64(60), c.Threshold(4))
	// 外推：步长 30
	assert.Equal(t, int64(90), c.Threshold(5))
	assert.Equal(t, int64(120), c.Threshold(6))

	_, err = NewTableCurve()
	assert.Error(t, err)
	_, err = NewTableCurve(10, 10)
	assert.Error(t, err)
}

func TestLevelForXP(t *testing.T) {
	c := DefaultCurve()
	cases := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{150, 2},
		{399, 2},
		{400, 3},
		{1000, 4},
		{1600, 5},
		{100 * 99 * 99, 100},
		{100*99*99 - 1, 99},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelForXP(c, tc.xp), "xp %d", tc.xp)
	}
}

func TestLevelFromHintMatchesSearch(t *testing.T) {
	curves := []LevelCurve{DefaultCurve(), PowerCurve{Base: 100, Exponent: 1.5}}
	table, err := NewTableCurve(5, 12, 20, 50)
	require.NoError(t, err)
	curves = append(curves, table)

	for _, c := range curves {
		for xp := int64(0); xp < 20000; xp += 37 {
			want := LevelForXP(c, xp)
			for _, hint := range []int{1, want - 1, want, want + 3, 0, MaxLevel + 5} {
				assert.Equal(t, want, LevelFromHint(c, xp, hint), "xp %d hint %d", xp, hint)
			}
			assert.LessOrEqual(t, c.Threshold(want), xp)
			assert.Greater(t, c.Threshold(want+1), xp)
		}
	}
}

func TestLevelForXPCapsAtMaxLevel(t *testing.T) {
	c := PowerCurve{Base: 1, Exponent: 1}
	assert.Equal(t, MaxLevel, LevelForXP(c, 1<<40))
}

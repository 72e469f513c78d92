package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgressRecalc(t *testing.T) {
	cases := []struct {
		name    string
		current int64
		target  int64
		want    int
	}{
		{"zero progress", 0, 7, 0},
		{"rounds down", 5, 7, 71},
		{"exact target", 7, 7, 100},
		{"overshoot capped", 9, 7, 100},
		{"halfway", 5, 10, 50},
		{"zero target", 3, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := AchievementProgress{CurrentValue: tc.current, TargetValue: tc.target}
			p.Recalc()
			require.Equal(t, tc.want, p.PercentComplete)
		})
	}
}

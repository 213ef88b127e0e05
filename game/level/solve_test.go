package level

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/blockpush/game/engine"
)

func TestSolve(t *testing.T) {
	tests := []struct {
		name    string
		objects [][]int
		want    []engine.Direction
		wantErr error
	}{
		{
			name:    "walk",
			objects: [][]int{{2, 0, 4}},
			want:    []engine.Direction{engine.Right, engine.Right},
		},
		{
			name:    "push out of the way",
			objects: [][]int{{2, 3, 0, 0, 0}, {1, 1, 1, 4, 1}},
			want:    []engine.Direction{engine.Right, engine.Right, engine.Right, engine.Down},
		},
		{
			name:    "blocked",
			objects: [][]int{{2, 3, 1, 4}},
			wantErr: ErrNoSolution,
		},
		{
			name:    "no goal",
			objects: [][]int{{2, 0}},
			wantErr: ErrNoGoal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := Solve(&Level{ID: 1, Objects: tt.objects}, 0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, path)
		})
	}
}

func TestSolve_BuiltinLevels(t *testing.T) {
	for id, lvl := range builtinLevels {
		path, err := Solve(lvl, 0)
		require.NoError(t, err, "level %d", id)

		e, err := engine.NewEngine(lvl.Objects)
		require.NoError(t, err)
		for _, d := range path {
			e.AttemptMove(d)
		}
		assert.True(t, e.Cleared(), "level %d not cleared by %v", id, path)
	}
}

func TestSolve_Limit(t *testing.T) {
	open := [][]int{
		{2, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 4},
	}
	_, err := Solve(&Level{ID: 1, Objects: open}, 3)
	assert.ErrorIs(t, err, ErrSolveLimit)
}

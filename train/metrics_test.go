package train

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredict(t *testing.T) {
	logits := []float32{
		0.1, 0.9, 0.0,
		2.0, -1.0, 1.5,
		0.3, 0.3, 0.1, // tie resolves to the lowest index
	}
	assert.Equal(t, []int32{1, 0, 0}, Predict(logits, 3))
}

func TestPredict_InvalidClasses(t *testing.T) {
	assert.Nil(t, Predict([]float32{1, 2}, 0))
}

func TestTop1(t *testing.T) {
	tests := []struct {
		name    string
		preds   []int32
		targets []int32
		want    float64
	}{
		{"all correct", []int32{0, 1, 2}, []int32{0, 1, 2}, 1},
		{"none correct", []int32{1, 2, 0}, []int32{0, 1, 2}, 0},
		{"half", []int32{3, 3, 1, 1}, []int32{3, 0, 1, 0}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Top1(tt.preds, tt.targets)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestTop1_Errors(t *testing.T) {
	_, err := Top1([]int32{1}, []int32{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = Top1(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyPass)
}

func TestTracker_Monotonic(t *testing.T) {
	tr := NewTracker()
	assert.True(t, math.IsInf(tr.MinLoss(), 1))
	assert.Zero(t, tr.MaxTop1())

	losses := []float64{3.0, 2.5, 2.7, 1.9, 4.0}
	accs := []float64{0.2, 0.4, 0.3, 0.35, 0.5}

	prevLoss, prevTop1 := tr.MinLoss(), tr.MaxTop1()
	for i := range losses {
		tr.Observe(losses[i], accs[i])
		assert.LessOrEqual(t, tr.MinLoss(), prevLoss)
		assert.GreaterOrEqual(t, tr.MaxTop1(), prevTop1)
		prevLoss, prevTop1 = tr.MinLoss(), tr.MaxTop1()
	}

	assert.Equal(t, 1.9, tr.MinLoss())
	assert.Equal(t, 0.5, tr.MaxTop1())
}

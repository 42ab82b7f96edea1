package encoder

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearEncoder produces quality*10 bytes so budgets are predictable.
type linearEncoder struct {
	calls []int
}

func (e *linearEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	e.calls = append(e.calls, quality)
	return make([]byte, quality*10), nil
}

type failingEncoder struct{}

func (failingEncoder) Encode(image.Image, int) ([]byte, error) {
	return nil, errors.New("boom")
}

func intPtr(v int) *int { return &v }

func noiseImage(w, h int) *image.NRGBA {
	rng := rand.New(rand.NewSource(42))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	return img
}

func TestBudgetMode(t *testing.T) {
	assert.Equal(t, ModeFixed, Budget{}.Mode())
	assert.Equal(t, ModeFixed, Budget{Quality: intPtr(80)}.Mode())
	assert.Equal(t, ModeSearch, Budget{MaxBytes: intPtr(100)}.Mode())
	assert.Equal(t, ModePinned, Budget{MaxBytes: intPtr(100), Quality: intPtr(80)}.Mode())
}

func TestLadder(t *testing.T) {
	tests := []struct {
		name   string
		budget Budget
		want   []int
	}{
		{"fixed default", Budget{}, []int{75}},
		{"fixed explicit", Budget{Quality: intPtr(80)}, []int{80}},
		{"pinned", Budget{Quality: intPtr(30), MaxBytes: intPtr(1)}, []int{30}},
		{"search default step", Budget{MaxBytes: intPtr(1)}, []int{100, 90, 80, 70, 60, 50, 40, 30, 20, 10, 0}},
		{"search step 5 ends at floor", Budget{MaxBytes: intPtr(1), Step: 5}, nil},
		{"search uneven step clamps to floor", Budget{MaxBytes: intPtr(1), Step: 30}, []int{100, 70, 40, 10, 0}},
		{"search oversized step", Budget{MaxBytes: intPtr(1), Step: 250}, []int{100, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ladder(tt.budget)
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
			require.NotEmpty(t, got)
			for i := 1; i < len(got); i++ {
				assert.Less(t, got[i], got[i-1], "ladder must strictly decrease")
			}
			if tt.budget.Mode() == ModeSearch {
				assert.Equal(t, MaxQuality, got[0])
				assert.Equal(t, MinQuality, got[len(got)-1])
			}
		})
	}
}

func TestBudgetEncoder_Fixed(t *testing.T) {
	enc := &linearEncoder{}
	be := NewBudgetEncoder(enc, nil)

	artifact, err := be.Encode(noiseImage(8, 8), Budget{})
	require.NoError(t, err)
	assert.Equal(t, []int{DefaultQuality}, enc.calls)
	assert.Equal(t, DefaultQuality, artifact.Quality)
	assert.Equal(t, 750, artifact.Size)
	assert.Equal(t, ModeFixed, artifact.Mode)
	assert.True(t, artifact.BudgetMet)

	enc.calls = nil
	artifact, err = be.Encode(noiseImage(8, 8), Budget{Quality: intPtr(80)})
	require.NoError(t, err)
	assert.Equal(t, []int{80}, enc.calls)
	assert.Equal(t, 80, artifact.Quality)
}

func TestBudgetEncoder_SearchStopsAtFirstFit(t *testing.T) {
	enc := &linearEncoder{}
	var observed []int
	be := NewBudgetEncoder(enc, ObserverFunc(func(quality, size int) {
		observed = append(observed, quality)
		assert.Equal(t, quality*10, size)
	}))

	artifact, err := be.Encode(noiseImage(8, 8), Budget{MaxBytes: intPtr(650)})
	require.NoError(t, err)

	assert.Equal(t, []int{100, 90, 80, 70, 60}, enc.calls)
	assert.Equal(t, enc.calls, observed)
	assert.Equal(t, 60, artifact.Quality)
	assert.Equal(t, 5, artifact.Attempts)
	assert.LessOrEqual(t, artifact.Size, 650)
	assert.True(t, artifact.BudgetMet)
	assert.Equal(t, ModeSearch, artifact.Mode)
}

func TestBudgetEncoder_SearchAlwaysRunsOnce(t *testing.T) {
	enc := &linearEncoder{}
	be := NewBudgetEncoder(enc, nil)

	artifact, err := be.Encode(noiseImage(8, 8), Budget{MaxBytes: intPtr(1 << 30)})
	require.NoError(t, err)
	assert.Equal(t, []int{100}, enc.calls)
	assert.Equal(t, 100, artifact.Quality)
	assert.True(t, artifact.BudgetMet)
}

func TestBudgetEncoder_SearchUnmetReturnsFloor(t *testing.T) {
	enc := &linearEncoder{}
	be := NewBudgetEncoder(enc, nil)

	artifact, err := be.Encode(noiseImage(8, 8), Budget{MaxBytes: intPtr(0), Step: 5})
	require.NoError(t, err)
	assert.Len(t, enc.calls, 21)
	assert.Equal(t, MinQuality, artifact.Quality)
	assert.Equal(t, 21, artifact.Attempts)
	assert.True(t, artifact.BudgetMet, "quality 0 yields 0 bytes which fits a 0 byte budget")

	enc.calls = nil
	artifact, err = be.Encode(noiseImage(8, 8), Budget{MaxBytes: intPtr(-1)})
	require.NoError(t, err)
	assert.Len(t, enc.calls, 11)
	assert.Equal(t, MinQuality, artifact.Quality)
	assert.False(t, artifact.BudgetMet)
}

func TestBudgetEncoder_Pinned(t *testing.T) {
	enc := &linearEncoder{}
	be := NewBudgetEncoder(enc, nil)

	artifact, err := be.Encode(noiseImage(8, 8), Budget{Quality: intPtr(50), MaxBytes: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, []int{50}, enc.calls)
	assert.Equal(t, 50, artifact.Quality)
	assert.Equal(t, ModePinned, artifact.Mode)
	assert.False(t, artifact.BudgetMet)

	enc.calls = nil
	artifact, err = be.Encode(noiseImage(8, 8), Budget{Quality: intPtr(50), MaxBytes: intPtr(500)})
	require.NoError(t, err)
	assert.Equal(t, []int{50}, enc.calls)
	assert.True(t, artifact.BudgetMet)
}

func TestBudgetEncoder_EncoderErrorIsFatal(t *testing.T) {
	be := NewBudgetEncoder(failingEncoder{}, nil)

	_, err := be.Encode(noiseImage(8, 8), Budget{MaxBytes: intPtr(10)})
	assert.EqualError(t, err, "boom")
}

func TestBudgetEncoder_RealJPEG(t *testing.T) {
	img := noiseImage(96, 96)
	jpeg := JPEGEncoder{}

	// Size of every rung, used to predict where the search stops.
	ladder := Ladder(Budget{MaxBytes: intPtr(1)})
	sizes := make(map[int]int, len(ladder))
	for _, q := range ladder {
		data, err := jpeg.Encode(img, q)
		require.NoError(t, err)
		sizes[q] = len(data)
	}

	maxBytes := sizes[60]
	expected := MinQuality
	for _, q := range ladder {
		if sizes[q] <= maxBytes {
			expected = q
			break
		}
	}

	var attempted []int
	be := NewBudgetEncoder(jpeg, ObserverFunc(func(quality, _ int) {
		attempted = append(attempted, quality)
	}))

	artifact, err := be.Encode(img, Budget{MaxBytes: intPtr(maxBytes)})
	require.NoError(t, err)
	assert.Equal(t, expected, artifact.Quality)
	assert.LessOrEqual(t, artifact.Size, maxBytes)
	assert.Equal(t, MaxQuality, attempted[0])
	for i := 1; i < len(attempted); i++ {
		assert.Less(t, attempted[i], attempted[i-1])
	}

	// An impossible budget still yields output, at the floor.
	artifact, err = be.Encode(img, Budget{MaxBytes: intPtr(10)})
	require.NoError(t, err)
	assert.False(t, artifact.BudgetMet)
	assert.Equal(t, MinQuality, artifact.Quality)
	assert.NotEmpty(t, artifact.Data)
}

func TestObservers(t *testing.T) {
	var a, b []int
	obs := Observers(
		ObserverFunc(func(q, _ int) { a = append(a, q) }),
		nil,
		ObserverFunc(func(q, _ int) { b = append(b, q) }),
	)

	be := NewBudgetEncoder(&linearEncoder{}, obs)
	_, err := be.Encode(noiseImage(4, 4), Budget{MaxBytes: intPtr(800)})
	require.NoError(t, err)

	assert.Equal(t, []int{100, 90, 80}, a)
	assert.Equal(t, a, b)
}

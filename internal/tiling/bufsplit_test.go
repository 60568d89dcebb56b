package tiling

import (
	"testing"

	"github.com/born-ml/tiling/internal/platform"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxElements(t *testing.T) {
	p := platform.Arch35()

	n, err := MaxElements(2, p, BufferOptions{DoubleBuffer: true})
	require.NoError(t, err)
	assert.Equal(t, int64(61440), n)

	// 1-byte elements stage in 2-byte slots.
	n, err = MaxElements(1, p, BufferOptions{DoubleBuffer: true})
	require.NoError(t, err)
	assert.Equal(t, int64(61440), n)

	n, err = MaxElements(2, p, BufferOptions{DoubleBuffer: true, LiveBuffers: 2, ReserveBytes: 256, SlotReserveBytes: 256})
	require.NoError(t, err)
	assert.Equal(t, int64(30560), n)
}

func TestMaxElements_LoopCountCap(t *testing.T) {
	p := platform.Profile{UnitCount: 1, FastMemBytes: 1 << 20, CacheLineBytes: 64, VectorWidthBytes: 256}
	opts := BufferOptions{DoubleBuffer: true, LiveBuffers: 2, ReserveBytes: 256, SlotReserveBytes: 256, LoopCountCap: true}

	n, err := MaxElements(1, p, opts)
	require.NoError(t, err)
	assert.Equal(t, int64((65535-512)/2), n)

	// Wider types are not capped.
	n, err = MaxElements(2, p, opts)
	require.NoError(t, err)
	assert.Equal(t, int64(((1<<20)-256)/4-256)/2, n)
}

func TestMaxElements_Infeasible(t *testing.T) {
	p := platform.Profile{UnitCount: 1, FastMemBytes: 8, CacheLineBytes: 64, VectorWidthBytes: 32}
	_, err := MaxElements(4, p, BufferOptions{ReserveBytes: 32})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInfeasible))
	assert.Equal(t, KindInfeasible, KindOf(err))
}

func TestAlignedInner(t *testing.T) {
	p := platform.Profile{UnitCount: 1, FastMemBytes: 1024, CacheLineBytes: 64, VectorWidthBytes: 32}
	assert.Equal(t, int64(300), AlignedInner(300, 4, p, BufferOptions{}))
	assert.Equal(t, int64(304), AlignedInner(300, 4, p, BufferOptions{AlignInner: true}))
	assert.Equal(t, int64(304), AlignedInner(300, 4, p, BufferOptions{AlignInner: true, TailSlot: true, ShiftInner: 4}))
	assert.Equal(t, int64(312), AlignedInner(300, 4, p, BufferOptions{AlignInner: true, TailSlot: true, ShiftInner: 3}))
}

func TestSplitBuffer(t *testing.T) {
	t.Run("whole unit share fits", func(t *testing.T) {
		got := SplitBuffer(model(t, 16, 16, 8), Bound{Axis: 0, Main: 1, Tail: 1}, false, 30560, 8)
		assert.Equal(t, BufferPlan{Axis: 0, Factor: 1, Loops: 1, TailFactor: 1, Extent: 1, MaxElements: 30560}, got)
	})

	t.Run("split below core axis uses full size", func(t *testing.T) {
		got := SplitBuffer(model(t, 4, 100, 300), Bound{Axis: 0, Main: 1, Tail: 1}, false, 1000, 304)
		assert.Equal(t, BufferPlan{Axis: 1, Factor: 3, Loops: 34, TailFactor: 1, Extent: 100, MaxElements: 1000}, got)
	})

	t.Run("innermost axis too long", func(t *testing.T) {
		got := SplitBuffer(model(t, 2, 5000), Bound{Axis: 0, Main: 1, Tail: 1}, false, 1000, 5000)
		assert.Equal(t, BufferPlan{Axis: 1, Factor: 1000, Loops: 5, TailFactor: 1000, Extent: 5000, MaxElements: 1000}, got)
	})

	t.Run("core axis uses per-unit count", func(t *testing.T) {
		m := model(t, 64, 10)
		b := Bound{Axis: 0, Main: 3, Tail: 1}
		assert.Equal(t, BufferPlan{Axis: 0, Factor: 3, Loops: 1, TailFactor: 3, Extent: 3, MaxElements: 1000}, SplitBuffer(m, b, false, 1000, 10))
		assert.Equal(t, BufferPlan{Axis: 0, Factor: 1, Loops: 1, TailFactor: 1, Extent: 1, MaxElements: 1000}, SplitBuffer(m, b, true, 1000, 10))
	})
}

// TestSplitBuffers_Conservation checks the covering law for buffer plans of real core splits.
func TestSplitBuffers_Conservation(t *testing.T) {
	p := platform.Tiny()
	shapes := [][]int64{{1}, {3}, {4096}, {9, 700}, {64, 64}, {3, 5, 7, 11}, {2, 1000, 3}}
	for _, sizes := range shapes {
		for _, elem := range []int64{1, 2, 4} {
			m := model(t, sizes...)
			opts := BufferOptions{DoubleBuffer: true, AlignInner: true}
			maxElems, err := MaxElements(elem, p, opts)
			require.NoError(t, err)
			core := CoreSplit{Primary: SplitCore(m, elem, p)}
			got := SplitBuffers(m, core, maxElems, AlignedInner(m.Last().Size, elem, p, opts))
			for _, b := range []BufferPlan{got.Main, got.Tail} {
				assert.True(t, b.Conserves(), "%v elem=%d: %v", sizes, elem, b)
				assert.GreaterOrEqual(t, b.Factor, int64(1))
				assert.GreaterOrEqual(t, b.Axis, core.Primary.Axis)
			}
		}
	}
}

func TestSplitFlatBuffer(t *testing.T) {
	assert.Equal(t, BufferPlan{Axis: FlatAxis, Factor: 296, Loops: 4, TailFactor: 112, Extent: 1000, MaxElements: 300}, SplitFlatBuffer(1000, 300, 8))
	assert.Equal(t, BufferPlan{Axis: FlatAxis, Factor: 7, Loops: 1, TailFactor: 7, Extent: 7, MaxElements: 300}, SplitFlatBuffer(7, 300, 8))
}

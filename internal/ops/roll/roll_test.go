package roll

import (
	"testing"

	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engine() *tiling.Engine {
	return tiling.NewEngine(tiling.Strategies(New()), tiling.WithVerify(true))
}

func rollReq(dt dtypes.DType, sizes []int64, shifts, dims []int64) tiling.Request {
	return tiling.Request{Family: tiling.FamilyRoll, OutShape: sizes, Shifts: shifts, Dims: dims, DType: dt}
}

// TestPlan_LeadingAxisScenario rolls [16,1,4,4,8] on the leading and trailing axes.
func TestPlan_LeadingAxisScenario(t *testing.T) {
	p := platform.Profile{UnitCount: 64, FastMemBytes: 245760, CacheLineBytes: 256, VectorWidthBytes: 256}
	rec, err := engine().Plan(rollReq(dtypes.Float16, []int64{16, 1, 4, 4, 8}, []int64{5, 3}, []int64{0, -1}), p)
	require.NoError(t, err)

	assert.Equal(t, SmallTailShiftLast.Tag(), rec.Tag)
	assert.Equal(t, int32(3), rec.Rank)
	assert.Equal(t, [3]int64{16, 16, 8}, [3]int64(rec.Sizes[:3]))
	assert.Equal(t, [3]int64{5, 0, 3}, [3]int64(rec.Before[:3]))

	assert.Equal(t, tiling.PartitionPlan{Kind: tiling.SplitFused, Axis: 0, Factor: 1, Units: 16, TailFactor: 1, Extent: 16}, rec.Core)
	assert.LessOrEqual(t, rec.LaunchUnits, int64(16))
	assert.Equal(t, tiling.BufferPlan{Axis: 0, Factor: 1, Loops: 1, TailFactor: 1, Extent: 1, MaxElements: 30560}, rec.MainBuffer)
	assert.Len(t, rec.Regions(), 2)
	assert.Equal(t, tiling.WorkspaceBytes, rec.ScratchBytes())
}

func TestPlan_Variants(t *testing.T) {
	p := platform.Arch35()
	tests := []struct {
		name      string
		req       tiling.Request
		want      Variant
		units     int64
		regions   int
		unaligned bool
	}{
		{"single axis", rollReq(dtypes.Float32, []int64{1000}, []int64{3}, []int64{0}), SingleAxis, 32, 2, true},
		{"flattened without dims", rollReq(dtypes.Float32, []int64{4, 250}, []int64{-1}, nil), SingleAxis, 32, 2, true},
		{"before last two", rollReq(dtypes.Float32, []int64{4, 64, 8, 32}, []int64{1, 2, 3}, []int64{1, 2, 3}), BeforeLastTwo, 64, 4, true},
		{"second last aligned", rollReq(dtypes.Float32, []int64{64, 64, 512}, []int64{64}, []int64{2}), SecondLastAligned, 64, 2, false},
		{"second last unaligned", rollReq(dtypes.Float32, []int64{64, 512, 512}, []int64{3, 5}, []int64{1, 2}), SecondLastUnaligned, 64, 4, true},
		{"split last", rollReq(dtypes.Float32, []int64{2, 100000}, []int64{7}, []int64{1}), SplitLast, 64, 2, true},
		{"small tail no shift", rollReq(dtypes.Float16, []int64{3, 4, 4}, []int64{1}, []int64{0}), SmallTailNoShiftLast, 1, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := engine().Plan(tt.req, p)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Tag(), rec.Tag, "got %v", rec)
			assert.Equal(t, tt.units, rec.LaunchUnits)
			assert.Len(t, rec.Regions(), tt.regions)
			assert.Equal(t, tt.unaligned, rec.Wrap.Unaligned)
		})
	}
}

func TestPlan_SecondLastUnalignedResplits(t *testing.T) {
	rec, err := engine().Plan(rollReq(dtypes.Float32, []int64{64, 512, 512}, []int64{3, 5}, []int64{1, 2}), platform.Arch35())
	require.NoError(t, err)

	assert.Equal(t, tiling.BufferPlan{Axis: 1, Factor: 53, Loops: 10, TailFactor: 35, Extent: 512, MaxElements: 30720}, rec.MainBuffer)
	assert.Equal(t, tiling.PartitionPlan{Kind: tiling.SplitFlattened, Axis: tiling.FlatAxis, Factor: 262144, Units: 64, TailFactor: 262144, Extent: 1 << 24}, rec.Flat)
	assert.Equal(t, tiling.BufferPlan{Axis: tiling.FlatAxis, Factor: 30720, Loops: 9, TailFactor: 16384, Extent: 262144, MaxElements: 30720}, rec.FlatMain)
	assert.Equal(t, int64(512), rec.Wrap.SrcPitch)
	assert.Equal(t, int64(512), rec.Wrap.ScratchBytes)
	for _, r := range rec.Regions() {
		assert.Equal(t, int64(512), r.SrcStride)
	}
	assert.Equal(t, int64(509*512), rec.Regions()[2].SrcOffset)
}

func TestPlan_ShortRows(t *testing.T) {
	p := platform.Arch35()
	tests := []struct {
		name string
		req  tiling.Request
		want Variant
	}{
		{"shifted short row", rollReq(dtypes.Float16, []int64{20}, []int64{3}, []int64{0}), SmallTailShiftLast},
		{"flattened short row", rollReq(dtypes.Float16, []int64{4, 5}, []int64{3}, nil), SmallTailShiftLast},
		{"unshifted short row", rollReq(dtypes.Float16, []int64{20}, []int64{0}, []int64{0}), SingleAxis},
		{"wide row", rollReq(dtypes.Float16, []int64{40}, []int64{3}, []int64{0}), SingleAxis},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := engine().Plan(tt.req, p)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Tag(), rec.Tag, "got %v", rec)
			assert.Equal(t, int32(1), rec.Rank)
			assert.Equal(t, int64(1), rec.LaunchUnits)
		})
	}
}

func TestPlan_LargePlaneVerifies(t *testing.T) {
	req := rollReq(dtypes.Float16, []int64{18, 30, 21, 32, 1507}, []int64{13}, []int64{0})
	rec, err := engine().Plan(req, platform.Tiny())
	require.NoError(t, err)
	assert.Equal(t, int64(18), rec.Wrap.H)
	assert.Equal(t, int64(30*21*32*1507), rec.Wrap.W)
	assert.Len(t, rec.Regions(), 2)
}

func TestPlan_SplitLastUsesPerUnitCount(t *testing.T) {
	rec, err := engine().Plan(rollReq(dtypes.Float32, []int64{2, 100000}, []int64{7}, []int64{1}), platform.Arch35())
	require.NoError(t, err)

	assert.Equal(t, tiling.PartitionPlan{Kind: tiling.SplitFused, Axis: 1, Factor: 3125, Units: 64, TailFactor: 3125, Extent: 200000}, rec.Core)
	assert.Equal(t, tiling.BufferPlan{Axis: 1, Factor: 3125, Loops: 1, TailFactor: 3125, Extent: 3125, MaxElements: 30720}, rec.MainBuffer)
	assert.Equal(t, int64(200000), rec.Flat.Extent)
}

func TestPlan_Trivial(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		rec, err := engine().Plan(rollReq(dtypes.Float32, []int64{3, 0, 2}, []int64{1}, []int64{0}), platform.Arch35())
		require.NoError(t, err)
		assert.Equal(t, Empty.Tag(), rec.Tag)
		assert.Equal(t, int64(1), rec.LaunchUnits)
		assert.True(t, rec.IsEmpty())
		assert.Empty(t, rec.Regions())
	})

	t.Run("single element", func(t *testing.T) {
		rec, err := engine().Plan(rollReq(dtypes.Int8, []int64{1, 1, 1}, []int64{5}, []int64{1}), platform.Arch35())
		require.NoError(t, err)
		assert.Equal(t, SingleAxis.Tag(), rec.Tag)
		assert.Equal(t, int64(1), rec.LaunchUnits)
		assert.Equal(t, int64(1), rec.Core.Units)
		assert.Equal(t, int64(1), rec.NumElements())
	})

	t.Run("scalar", func(t *testing.T) {
		rec, err := engine().Plan(rollReq(dtypes.Float32, []int64{}, []int64{2}, nil), platform.Arch35())
		require.NoError(t, err)
		assert.Equal(t, int32(1), rec.Rank)
		assert.Equal(t, int64(1), rec.LaunchUnits)
	})
}

func TestPlan_Errors(t *testing.T) {
	p := platform.Arch35()
	tests := []struct {
		name string
		req  tiling.Request
		want tiling.Kind
	}{
		{"shifts and dims differ", rollReq(dtypes.Float32, []int64{4, 4}, []int64{1}, []int64{0, 1}), tiling.KindInvalidParameterCount},
		{"two shifts without dims", rollReq(dtypes.Float32, []int64{4, 4}, []int64{1, 2}, nil), tiling.KindInvalidParameterCount},
		{"no shifts", rollReq(dtypes.Float32, []int64{4, 4}, nil, nil), tiling.KindInvalidParameterCount},
		{"dim too large", rollReq(dtypes.Float32, []int64{4, 4, 4}, []int64{1}, []int64{3}), tiling.KindOutOfRangeAxis},
		{"dim too negative", rollReq(dtypes.Float32, []int64{4, 4, 4}, []int64{1}, []int64{-4}), tiling.KindOutOfRangeAxis},
		{"rank", rollReq(dtypes.Float32, []int64{1, 2, 1, 2, 1, 2, 1, 2, 1}, []int64{1}, []int64{0}), tiling.KindInvalidRank},
		{"negative size", rollReq(dtypes.Float32, []int64{4, -4}, []int64{1}, []int64{0}), tiling.KindShapeMismatch},
		{"dtype", rollReq(dtypes.Complex64, []int64{4}, []int64{1}, []int64{0}), tiling.KindInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := engine().Plan(tt.req, p)
			require.Error(t, err)
			assert.Equal(t, tt.want, tiling.KindOf(err), "%v", err)
			assert.Equal(t, tiling.Record{}, rec)
		})
	}

	t.Run("input differs from output", func(t *testing.T) {
		req := rollReq(dtypes.Float32, []int64{2, 3}, []int64{1}, []int64{0})
		req.InShape = []int64{3, 2}
		_, err := engine().Plan(req, p)
		assert.Equal(t, tiling.KindShapeMismatch, tiling.KindOf(err))
	})
}

// TestPlan_ShiftNormalization treats equivalent shifts identically.
func TestPlan_ShiftNormalization(t *testing.T) {
	e := engine()
	p := platform.Arch35()
	base, err := e.Plan(rollReq(dtypes.Float32, []int64{6, 10}, []int64{2}, []int64{1}), p)
	require.NoError(t, err)

	for _, shifts := range [][]int64{{12}, {-8}, {-18}} {
		got, err := e.Plan(rollReq(dtypes.Float32, []int64{6, 10}, shifts, []int64{1}), p)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(base, got), "shift %v", shifts)
	}

	accumulated, err := e.Plan(rollReq(dtypes.Float32, []int64{6, 10}, []int64{1, 1}, []int64{1, -1}), p)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(base, accumulated))
}

// TestPlan_Properties sweeps shapes, shifts, dtypes and profiles; every record
// must pass coverage verification and be reproducible.
func TestPlan_Properties(t *testing.T) {
	profiles := []platform.Profile{platform.Arch35(), platform.Arch22(), platform.Tiny()}
	shapes := [][]int64{{1}, {5}, {17}, {2, 3}, {7, 33}, {3, 1, 9}, {4, 6, 10}, {2, 3, 4, 5}, {1, 65, 1, 3}, {9, 130}}
	dts := []dtypes.DType{dtypes.Int8, dtypes.Float16, dtypes.Float32, dtypes.Int64}
	e := engine()

	for _, p := range profiles {
		for _, sizes := range shapes {
			for _, dt := range dts {
				for shift := int64(-3); shift <= 4; shift++ {
					dims := []int64{int64(len(sizes) - 1)}
					if len(sizes) > 1 && shift%2 == 0 {
						dims = []int64{0, -1}
					}
					shifts := make([]int64, len(dims))
					for i := range shifts {
						shifts[i] = shift + int64(i)
					}
					req := rollReq(dt, sizes, shifts, dims)

					a, err := e.Plan(req, p)
					require.NoError(t, err, "%s %v %s shifts=%v dims=%v", p.Name, sizes, dt, shifts, dims)
					b, err := e.Plan(req, p)
					require.NoError(t, err)
					require.Empty(t, cmp.Diff(a, b))

					_, known := FromTag(a.Tag)
					assert.True(t, known, "tag %d", a.Tag)
					assert.True(t, a.Core.Conserves())
					assert.True(t, a.MainBuffer.Conserves())
					assert.True(t, a.TailBuffer.Conserves())
					assert.LessOrEqual(t, a.LaunchUnits, p.UnitCount)
					var total int64 = 1
					for _, s := range sizes {
						total *= s
					}
					assert.Equal(t, total, a.NumElements())
				}
			}
		}
	}
}

func TestVariant_Tags(t *testing.T) {
	seen := map[uint64]Variant{}
	for _, v := range Variants() {
		tag := v.Tag()
		require.NotZero(t, tag, "%s", v)
		_, dup := seen[tag]
		require.False(t, dup, "duplicate tag %d", tag)
		seen[tag] = v

		got, ok := FromTag(tag)
		require.True(t, ok)
		assert.Equal(t, v, got)
		assert.NotEqual(t, "unknown", v.String())
	}
	_, ok := FromTag(12345)
	assert.False(t, ok)
}

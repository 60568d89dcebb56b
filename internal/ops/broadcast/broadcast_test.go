package broadcast

import (
	"fmt"
	"testing"

	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engine(opts ...tiling.Option) *tiling.Engine {
	return tiling.NewEngine(tiling.Strategies(New()), append([]tiling.Option{tiling.WithVerify(true)}, opts...)...)
}

func brcReq(dt dtypes.DType, in, out []int64) tiling.Request {
	return tiling.Request{Family: tiling.FamilyBroadcast, InShape: in, OutShape: out, DType: dt}
}

func TestPlan_Variants(t *testing.T) {
	p := platform.Arch35()
	tests := []struct {
		name string
		req  tiling.Request
		want Variant
	}{
		{"large copied row", brcReq(dtypes.Float32, nil, []int64{64, 100000}), LastDimLargeCopy},
		{"large broadcast row", brcReq(dtypes.Float32, []int64{64, 1}, []int64{64, 100000}), LastDimLargeBroadcast},
		{"buffer broadcast", brcReq(dtypes.Float32, []int64{1, 512}, []int64{8, 512}), BufferBroadcast},
		{"strided copy", brcReq(dtypes.Float32, []int64{100, 1, 4}, []int64{100, 50, 4}), StridedCopy},
		{"wide broadcast row", brcReq(dtypes.Float32, []int64{16, 1}, []int64{16, 64}), BufferBroadcast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := engine().Plan(tt.req, p)
			require.NoError(t, err)
			got, ok := FromTag(rec.Tag)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlan_LargeCopySplitsRow(t *testing.T) {
	rec, err := engine().Plan(brcReq(dtypes.Float32, nil, []int64{64, 100000}), platform.Arch35())
	require.NoError(t, err)
	assert.Equal(t, int32(1), rec.Rank)
	assert.Equal(t, tiling.PartitionPlan{Kind: tiling.SplitFused, Axis: 0, Factor: 100000, Units: 64, TailFactor: 100000, Extent: 6400000}, rec.Core)
	assert.Equal(t, tiling.BufferPlan{Axis: 0, Factor: 15360, Loops: 7, TailFactor: 7840, Extent: 100000, MaxElements: 15360}, rec.MainBuffer)
}

// TestPlan_DualSplit checks both policies that change the primary axis.
func TestPlan_DualSplit(t *testing.T) {
	p := platform.Arch35()

	t.Run("budget left for secondary", func(t *testing.T) {
		rec, err := engine().Plan(brcReq(dtypes.Float32, []int64{8, 1, 4}, []int64{8, 6, 4}), p)
		require.NoError(t, err)
		assert.Equal(t, tiling.PartitionPlan{Kind: tiling.SplitSingle, Axis: 0, Factor: 1, Units: 8, TailFactor: 1, Extent: 8}, rec.Core)
		assert.Equal(t, tiling.PartitionPlan{Kind: tiling.SplitSingle, Axis: 1, Factor: 1, Units: 6, TailFactor: 1, Extent: 6}, rec.Secondary)
		assert.Equal(t, int64(48), rec.LaunchUnits)
	})

	t.Run("prefer broadcast axis", func(t *testing.T) {
		rec, err := engine(tiling.WithDualPolicy(tiling.DualPreferFirst)).Plan(brcReq(dtypes.Float32, []int64{8, 1, 4}, []int64{8, 6, 4}), p)
		require.NoError(t, err)
		assert.Equal(t, int32(1), rec.Core.Axis)
		assert.Equal(t, int64(6), rec.Core.Units)
		assert.Equal(t, tiling.PartitionPlan{Kind: tiling.SplitSingle, Axis: 0, Factor: 1, Units: 8, TailFactor: 1, Extent: 8}, rec.Secondary)
	})

	t.Run("secondary runs in full", func(t *testing.T) {
		req := brcReq(dtypes.Float32, []int64{100, 1, 4}, []int64{100, 50, 4})
		rec, err := engine().Plan(req, p)
		require.NoError(t, err)
		assert.Equal(t, tiling.PartitionPlan{Kind: tiling.SplitSingle, Axis: 1, Factor: 1, Units: 50, TailFactor: 1, Extent: 50}, rec.Core)
		assert.Equal(t, tiling.PartitionPlan{Kind: tiling.SplitSingle, Axis: 0, Factor: 100, Units: 1, TailFactor: 100, Extent: 100}, rec.Secondary)

		rec, err = engine(tiling.WithDualPolicy(tiling.DualOutermost)).Plan(req, p)
		require.NoError(t, err)
		assert.Equal(t, tiling.PartitionPlan{Kind: tiling.SplitSingle, Axis: 0, Factor: 2, Units: 50, TailFactor: 2, Extent: 100}, rec.Core)
		assert.Equal(t, int64(50), rec.LaunchUnits)
	})
}

func TestBuildShapeModel(t *testing.T) {
	env := tiling.Env{Profile: platform.Arch35(), ElemSize: 4}

	m, err := New().BuildShapeModel(brcReq(dtypes.Float32, []int64{1, 1, 5}, []int64{1, 3, 5}), env)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, m.Sizes())
	assert.Equal(t, []int64{1, 5}, m.InSizes())

	m, err = New().BuildShapeModel(brcReq(dtypes.Float32, []int64{}, []int64{4, 4}), env)
	require.NoError(t, err)
	assert.Equal(t, []int64{16}, m.Sizes())
	assert.Equal(t, []int64{1}, m.InSizes())

	m, err = New().BuildShapeModel(brcReq(dtypes.Float32, []int64{3, 1, 1, 7}, []int64{3, 2, 5, 7}), env)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 10, 7}, m.Sizes())
}

func TestPlan_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  tiling.Request
		want tiling.Kind
	}{
		{"input rank above output", brcReq(dtypes.Float32, []int64{2, 3, 4}, []int64{3, 4}), tiling.KindShapeMismatch},
		{"incompatible axis", brcReq(dtypes.Float32, []int64{3}, []int64{4}), tiling.KindShapeMismatch},
		{"rank", brcReq(dtypes.Float32, nil, []int64{1, 1, 1, 1, 1, 1, 1, 1, 1}), tiling.KindInvalidRank},
		{"dtype", brcReq(dtypes.Complex128, nil, []int64{4}), tiling.KindInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine().Plan(tt.req, platform.Arch35())
			assert.Equal(t, tt.want, tiling.KindOf(err), "%v", err)
		})
	}
}

func TestPlan_Empty(t *testing.T) {
	rec, err := engine().Plan(brcReq(dtypes.Int8, []int64{1, 4}, []int64{0, 4}), platform.Arch35())
	require.NoError(t, err)
	assert.Equal(t, Empty.Tag(), rec.Tag)
	assert.True(t, rec.IsEmpty())
}

func TestPlan_Sweep(t *testing.T) {
	cases := [][2][]int64{
		{{1}, {1000}},
		{{5}, {5}},
		{{3, 1}, {3, 77}},
		{{1, 300}, {9, 300}},
		{{7, 1, 9}, {7, 130, 9}},
		{{1, 33, 1, 2}, {65, 33, 3, 2}},
		{{2, 1, 2, 1, 2}, {2, 3, 2, 3, 2}},
		{{1}, {2, 3, 4, 5}},
	}
	policies := []tiling.DualPolicy{tiling.DualWeighted, tiling.DualPreferFirst, tiling.DualPreferSecond, tiling.DualOutermost}
	for _, name := range platform.PresetNames() {
		p, err := platform.Preset(name)
		require.NoError(t, err)
		for _, policy := range policies {
			e := engine(tiling.WithDualPolicy(policy))
			for _, c := range cases {
				for _, dt := range []dtypes.DType{dtypes.Uint8, dtypes.BFloat16, dtypes.Float64} {
					t.Run(fmt.Sprintf("%s/%s/%v->%v/%s", name, policy, c[0], c[1], dt), func(t *testing.T) {
						rec, err := e.Plan(brcReq(dt, c[0], c[1]), p)
						require.NoError(t, err)
						_, ok := FromTag(rec.Tag)
						assert.True(t, ok)
						assert.LessOrEqual(t, rec.LaunchUnits, p.UnitCount)
					})
				}
			}
		}
	}
}

func TestVariant_Tags(t *testing.T) {
	seen := map[uint64]bool{}
	for _, v := range Variants() {
		assert.False(t, seen[v.Tag()], "%s", v)
		seen[v.Tag()] = true
		got, ok := FromTag(v.Tag())
		require.True(t, ok)
		assert.Equal(t, v, got)
	}
	_, ok := FromTag(50000)
	assert.False(t, ok)
}

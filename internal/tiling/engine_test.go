package tiling

import (
	"sync"
	"testing"

	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/shape"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatStrategy is a minimal family: flattened tensor, flat split.
type flatStrategy struct {
	mu    sync.Mutex
	calls map[string]int
}

func newFlatStrategy() *flatStrategy {
	return &flatStrategy{calls: map[string]int{}}
}

func (s *flatStrategy) count(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[stage]++
}

func (s *flatStrategy) Family() Family        { return FamilyElementwise }
func (s *flatStrategy) EmptyVariant() Variant { return testVariant(60000) }

func (s *flatStrategy) BuildShapeModel(req Request, _ Env) (shape.Model, error) {
	s.count("model")
	m, err := shape.FromSizes(req.OutShape)
	if err != nil {
		return shape.Model{}, Wrap(KindInvalidRank, err, "output shape")
	}
	return m.Flatten(), nil
}

func (s *flatStrategy) ComputeCoreSplit(m shape.Model, env Env) (CoreSplit, error) {
	s.count("core")
	return CoreSplit{Primary: SplitFlat(m.NumElements(), env.ElemSize, env.Profile)}, nil
}

func (s *flatStrategy) ComputeBufferSplit(_ shape.Model, core CoreSplit, env Env) (BufferSplit, error) {
	s.count("buffer")
	maxElems, err := MaxElements(env.ElemSize, env.Profile, BufferOptions{DoubleBuffer: true})
	if err != nil {
		return BufferSplit{}, err
	}
	return SplitFlatBuffers(core.Primary, maxElems, AlignElems(env.ElemSize, env.Profile)), nil
}

func (s *flatStrategy) SelectVariant(_ shape.Model, _ CoreSplit, _ BufferSplit, _ Env) (Selection, error) {
	s.count("select")
	return Selection{Variant: testVariant(10000)}, nil
}

func newTestEngine(s Strategy, opts ...Option) *Engine {
	return NewEngine(Strategies(s), opts...)
}

func TestEngine_Plan(t *testing.T) {
	s := newFlatStrategy()
	e := newTestEngine(s, WithVerify(true))

	rec, err := e.Plan(Request{Family: FamilyElementwise, OutShape: []int64{8, 125}, DType: dtypes.Float32}, platform.Arch35())
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), rec.Tag)
	assert.Equal(t, int64(4), rec.ElemSize)
	assert.Equal(t, int32(1), rec.Rank)
	assert.Equal(t, int64(1000), rec.Sizes[0])
	assert.Equal(t, int64(32), rec.LaunchUnits)
	assert.Equal(t, WorkspaceBytes, rec.WorkspaceBytes)
}

// TestEngine_EmptySkipsStages short-circuits zero-element tensors before any split.
func TestEngine_EmptySkipsStages(t *testing.T) {
	s := newFlatStrategy()
	e := newTestEngine(s)

	rec, err := e.Plan(Request{Family: FamilyElementwise, OutShape: []int64{4, 0}, DType: dtypes.Float16}, platform.Arch35())
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
	assert.Equal(t, uint64(60000), rec.Tag)
	assert.Equal(t, int64(1), rec.LaunchUnits)
	assert.Equal(t, 1, s.calls["model"])
	assert.Zero(t, s.calls["core"])
	assert.Zero(t, s.calls["buffer"])
	assert.Zero(t, s.calls["select"])
}

func TestEngine_Idempotent(t *testing.T) {
	e := newTestEngine(newFlatStrategy())
	req := Request{Family: FamilyElementwise, OutShape: []int64{3, 7, 1024}, DType: dtypes.BFloat16}

	a, err := e.Plan(req, platform.Arch22())
	require.NoError(t, err)
	b, err := e.Plan(req, platform.Arch22())
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a, b))
	assert.Equal(t, a, b)
}

func TestEngine_Errors(t *testing.T) {
	e := newTestEngine(newFlatStrategy())

	t.Run("invalid profile", func(t *testing.T) {
		p := platform.Arch35()
		p.UnitCount = 0
		_, err := e.Plan(Request{Family: FamilyElementwise, OutShape: []int64{4}, DType: dtypes.Float32}, p)
		assert.Equal(t, KindInvalidProfile, KindOf(err))
		assert.True(t, errors.Is(err, platform.ErrInvalidProfile))
	})

	t.Run("unknown family", func(t *testing.T) {
		_, err := e.Plan(Request{Family: FamilyRoll, OutShape: []int64{4}, DType: dtypes.Float32}, platform.Arch35())
		assert.Equal(t, KindInvalidParameter, KindOf(err))
	})

	t.Run("invalid dtype", func(t *testing.T) {
		_, err := e.Plan(Request{Family: FamilyElementwise, OutShape: []int64{4}}, platform.Arch35())
		assert.Equal(t, KindInvalidParameter, KindOf(err))
	})

	t.Run("rank overflow carries family", func(t *testing.T) {
		rec, err := e.Plan(Request{Family: FamilyElementwise, OutShape: []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}, DType: dtypes.Float32}, platform.Arch35())
		require.Error(t, err)
		assert.Equal(t, Record{}, rec)
		assert.True(t, errors.Is(err, ErrInvalidRank))
		assert.True(t, errors.Is(err, shape.ErrRankOverflow))
		var te *Error
		require.True(t, errors.As(err, &te))
		assert.Equal(t, FamilyElementwise, te.Family)
		assert.Contains(t, err.Error(), "elementwise")
	})

	t.Run("infeasible", func(t *testing.T) {
		p := platform.Profile{UnitCount: 1, FastMemBytes: 2, CacheLineBytes: 32, VectorWidthBytes: 32}
		_, err := e.Plan(Request{Family: FamilyElementwise, OutShape: []int64{4}, DType: dtypes.Float64}, p)
		assert.Equal(t, KindInfeasible, KindOf(err))
	})
}

func TestEngine_Cache(t *testing.T) {
	s := newFlatStrategy()
	cache := NewCache(2)
	e := newTestEngine(s, WithCache(cache))
	p := platform.Arch35()

	req := Request{Family: FamilyElementwise, OutShape: []int64{100}, DType: dtypes.Float32}
	first, err := e.Plan(req, p)
	require.NoError(t, err)
	second, err := e.Plan(req, p)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.calls["model"], "second plan must come from the cache")
	assert.Equal(t, CacheStats{Entries: 1, Hits: 1, Misses: 1}, cache.Stats())
	assert.Same(t, cache, e.Cache())
}

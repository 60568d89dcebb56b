package tiling

import (
	"github.com/born-ml/tiling/internal/dtype"
	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/shape"
	"k8s.io/klog/v2"
)

// Engine runs a family's stages in order and assembles the Record.
// It is safe for concurrent use.
type Engine struct {
	resolver Resolver
	cache    *Cache
	policy   DualPolicy
	verify   bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache memoizes records in c.
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithDualPolicy sets how dual-split families pick the primary axis.
func WithDualPolicy(p DualPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithVerify enables cell-level coverage verification of every record.
func WithVerify(on bool) Option {
	return func(e *Engine) { e.verify = on }
}

// NewEngine returns an engine resolving strategies through r.
func NewEngine(r Resolver, opts ...Option) *Engine {
	e := &Engine{resolver: r}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the memo cache, or nil.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// Plan computes the record for req on device p.
//
// On failure it returns the zero Record and a classified *Error; no partial
// record is ever returned.
func (e *Engine) Plan(req Request, p platform.Profile) (Record, error) {
	if err := p.Validate(); err != nil {
		return Record{}, withFamily(Wrap(KindInvalidProfile, err, ""), req.Family)
	}
	s, ok := e.resolver.Strategy(req.Family)
	if !ok {
		return Record{}, Errorf(KindInvalidParameter, "no tiling strategy for family %s", req.Family)
	}

	key := req.Key() + "@" + p.Key() + "/" + e.policy.String()
	if e.cache != nil {
		if rec, ok := e.cache.Get(key); ok {
			return rec, nil
		}
	}

	rec, err := e.plan(s, req, p)
	if err != nil {
		return Record{}, withFamily(err, s.Family())
	}
	if e.cache != nil {
		e.cache.Put(key, rec)
	}
	return rec, nil
}

func (e *Engine) plan(s Strategy, req Request, p platform.Profile) (Record, error) {
	elem, err := dtype.Size(req.DType)
	if err != nil {
		return Record{}, Wrap(KindInvalidParameter, err, "element type")
	}
	env := Env{Request: req, Profile: p, ElemSize: elem, Policy: e.policy}

	m, err := s.BuildShapeModel(req, env)
	if err != nil {
		return Record{}, err
	}
	if m.IsEmpty() {
		rec := EmptyRecord(s.Family(), s.EmptyVariant(), m, elem)
		klog.V(2).InfoS("tiling plan", "family", rec.Family, "variant", s.EmptyVariant(), "shape", m)
		return rec, nil
	}

	core, err := s.ComputeCoreSplit(m, env)
	if err != nil {
		return Record{}, err
	}
	klog.V(4).InfoS("core split", "family", s.Family(), "shape", m, "primary", core.Primary, "secondary", core.Secondary)

	buf, err := s.ComputeBufferSplit(m, core, env)
	if err != nil {
		return Record{}, err
	}
	klog.V(4).InfoS("buffer split", "family", s.Family(), "main", buf.Main, "tail", buf.Tail)

	sel, err := s.SelectVariant(m, core, buf, env)
	if err != nil {
		return Record{}, err
	}
	if sel.Variant == nil {
		return Record{}, Errorf(KindInvariant, "no variant selected for %v", m)
	}
	if sel.Wrap.Count > 0 {
		klog.V(4).InfoS("wraparound", "family", s.Family(), "regions", sel.Wrap.Count, "unaligned", sel.Wrap.Unaligned)
	}

	rec := assemble(s.Family(), m, elem, core, buf, sel)
	if err := rec.Check(p); err != nil {
		return Record{}, err
	}
	if e.verify {
		if err := Verify(rec); err != nil {
			return Record{}, Wrap(KindInvariant, err, "coverage")
		}
	}
	klog.V(2).InfoS("tiling plan", "family", rec.Family, "variant", sel.Variant, "tag", rec.Tag, "units", rec.LaunchUnits, "shape", m)
	return rec, nil
}

func assemble(f Family, m shape.Model, elem int64, core CoreSplit, buf BufferSplit, sel Selection) Record {
	rec := Record{
		Family:         f,
		Tag:            sel.Variant.Tag(),
		ElemSize:       elem,
		Core:           core.Primary,
		Secondary:      core.Secondary,
		MainBuffer:     buf.Main,
		TailBuffer:     buf.Tail,
		Flat:           sel.Flat,
		FlatMain:       sel.FlatBuffers.Main,
		FlatTail:       sel.FlatBuffers.Tail,
		Wrap:           sel.Wrap,
		LaunchUnits:    sel.LaunchUnits,
		WorkspaceBytes: WorkspaceBytes,
	}
	rec.setModel(m)
	if rec.LaunchUnits == 0 {
		rec.LaunchUnits = core.Units()
	}
	return rec
}

// EmptyRecord is the trivial plan of a zero-element tensor: one unit, no work.
func EmptyRecord(f Family, v Variant, m shape.Model, elem int64) Record {
	rec := Record{
		Family:         f,
		Tag:            v.Tag(),
		ElemSize:       elem,
		Core:           PartitionPlan{Kind: SplitFused, Units: 1},
		LaunchUnits:    1,
		WorkspaceBytes: WorkspaceBytes,
	}
	rec.setModel(m)
	return rec
}

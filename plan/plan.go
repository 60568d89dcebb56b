// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package plan

import (
	"context"

	"github.com/born-ml/tiling/internal/config"
	"github.com/born-ml/tiling/internal/ops"
	"github.com/born-ml/tiling/internal/parallel"
	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/pkg/errors"
)

// Type aliases for public API.

// Request is one operator invocation to plan.
type Request = tiling.Request

// Record is the finished tiling plan handed to the kernel launcher.
type Record = tiling.Record

// Profile describes the target device.
type Profile = platform.Profile

// Config is the planner configuration.
type Config = config.Config

// Family identifies an operator family.
type Family = tiling.Family

// PadMode selects how padded elements are produced.
type PadMode = tiling.PadMode

// CacheStats reports memo cache activity.
type CacheStats = tiling.CacheStats

// Operator families.
const (
	FamilyRoll        = tiling.FamilyRoll
	FamilyPad         = tiling.FamilyPad
	FamilyBroadcast   = tiling.FamilyBroadcast
	FamilyElementwise = tiling.FamilyElementwise
)

// Pad modes.
const (
	PadConstant  = tiling.PadConstant
	PadReflect   = tiling.PadReflect
	PadSymmetric = tiling.PadSymmetric
	PadEdge      = tiling.PadEdge
	PadCircular  = tiling.PadCircular
)

// Error sentinels; match with errors.Is.
var (
	ErrInvalidRank           = tiling.ErrInvalidRank
	ErrInvalidParameterCount = tiling.ErrInvalidParameterCount
	ErrOutOfRangeAxis        = tiling.ErrOutOfRangeAxis
	ErrShapeMismatch         = tiling.ErrShapeMismatch
	ErrInfeasible            = tiling.ErrInfeasible
	ErrInvalidParameter      = tiling.ErrInvalidParameter
	ErrInvalidProfile        = tiling.ErrInvalidProfile
	ErrInvariant             = tiling.ErrInvariant
)

// DefaultConfig returns the default planner configuration.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// LoadConfig reads a YAML planner configuration.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Planner plans operator invocations for one device profile.
// It is safe for concurrent use.
type Planner struct {
	engine   *tiling.Engine
	registry *ops.Registry
	profile  Profile
	workers  int
}

// New returns a Planner configured by cfg. A nil cfg means DefaultConfig.
func New(cfg *Config) (*Planner, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	profile, err := cfg.ResolveProfile()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	reg := ops.NewRegistry()
	opts := []tiling.Option{
		tiling.WithDualPolicy(policy),
		tiling.WithVerify(cfg.Engine.Verify),
	}
	if cfg.Engine.CacheEntries > 0 {
		opts = append(opts, tiling.WithCache(tiling.NewCache(cfg.Engine.CacheEntries)))
	}
	return &Planner{
		engine:   tiling.NewEngine(reg, opts...),
		registry: reg,
		profile:  profile,
		workers:  cfg.Engine.Workers,
	}, nil
}

// Profile returns the device profile the planner targets.
func (p *Planner) Profile() Profile {
	return p.profile
}

// Plan computes the record of req.
func (p *Planner) Plan(req Request) (Record, error) {
	return p.engine.Plan(req, p.profile)
}

// PlanOn computes the record of req on another device.
func (p *Planner) PlanOn(req Request, profile Profile) (Record, error) {
	return p.engine.Plan(req, profile)
}

// PlanAll plans every request concurrently. Records come back in request
// order; the first failure cancels the rest and is returned with its index.
func (p *Planner) PlanAll(ctx context.Context, reqs []Request) ([]Record, error) {
	cfg := parallel.DefaultConfig()
	if p.workers > 0 {
		cfg.NumWorkers = p.workers
		cfg.Enabled = p.workers > 1
	}

	out := make([]Record, len(reqs))
	err := parallel.ForEach(ctx, len(reqs), func(_ context.Context, i int) error {
		rec, err := p.engine.Plan(reqs[i], p.profile)
		if err != nil {
			return errors.Wrapf(err, "request %d", i)
		}
		out[i] = rec
		return nil
	}, cfg)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// KernelName returns "family/variant" for rec.
func (p *Planner) KernelName(rec Record) (string, error) {
	return p.registry.KernelName(rec.Family, rec.Tag)
}

// Families lists the operator families the planner handles.
func (p *Planner) Families() []Family {
	return p.registry.Families()
}

// CacheStats reports memo cache activity; zero when caching is off.
func (p *Planner) CacheStats() CacheStats {
	if c := p.engine.Cache(); c != nil {
		return c.Stats()
	}
	return CacheStats{}
}

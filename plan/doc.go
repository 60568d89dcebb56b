// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package plan provides the public API of the tiling engine.
//
// A Planner turns an operator invocation (family, shapes, parameters and
// element type) into a Record: the flat plan a kernel launcher needs to
// split the work across compute units and stage it through fast memory.
//
// Example:
//
//	p, err := plan.New(plan.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	rec, err := p.Plan(plan.Request{
//	    Family:   plan.FamilyRoll,
//	    OutShape: []int64{16, 1, 4, 4, 8},
//	    Shifts:   []int64{3, -2},
//	    Dims:     []int64{0, -1},
//	    DType:    dtypes.Float32,
//	})
//	name, _ := p.KernelName(rec)
package plan

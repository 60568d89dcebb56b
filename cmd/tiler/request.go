package main

import (
	"os"

	"github.com/born-ml/tiling/internal/dtype"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/born-ml/tiling/plan"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// requestSpec is the textual form of a request, shared by flags and files.
type requestSpec struct {
	Family  string  `yaml:"family"`
	Out     []int64 `yaml:"out"`
	In      []int64 `yaml:"in,omitempty"`
	Shifts  []int64 `yaml:"shifts,omitempty"`
	Dims    []int64 `yaml:"dims,omitempty"`
	Pads    []int64 `yaml:"pads,omitempty"`
	Grouped bool    `yaml:"grouped,omitempty"`
	Mode    string  `yaml:"mode,omitempty"`
	Inputs  int     `yaml:"inputs,omitempty"`
	DType   string  `yaml:"dtype"`
}

// requestFile is the layout of a sweep file.
type requestFile struct {
	Requests []requestSpec `yaml:"requests"`
}

func (s requestSpec) request() (plan.Request, error) {
	f, err := tiling.ParseFamily(s.Family)
	if err != nil {
		return plan.Request{}, err
	}
	dt, err := dtype.Parse(lo.Ternary(s.DType == "", "float32", s.DType))
	if err != nil {
		return plan.Request{}, err
	}
	req := plan.Request{
		Family:   f,
		OutShape: s.Out,
		InShape:  s.In,
		Shifts:   s.Shifts,
		Dims:     s.Dims,
		Paddings: s.Pads,
		Inputs:   s.Inputs,
		DType:    dt,
	}
	if s.Grouped {
		req.PaddingLayout = tiling.PaddingGrouped
	}
	if s.Mode != "" {
		if req.PadMode, err = tiling.ParsePadMode(s.Mode); err != nil {
			return plan.Request{}, err
		}
	}
	// Pad derives its output from the input and the pads.
	if f == tiling.FamilyPad && req.InShape == nil {
		req.InShape, req.OutShape = req.OutShape, nil
	}
	return req, nil
}

// loadRequests reads a sweep file.
func loadRequests(path string) ([]plan.Request, error) {
	//nolint:gosec // G304: request file is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read requests")
	}
	var file requestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "decode requests %s", path)
	}
	reqs := make([]plan.Request, len(file.Requests))
	for i, spec := range file.Requests {
		if reqs[i], err = spec.request(); err != nil {
			return nil, errors.Wrapf(err, "%s: request %d", path, i)
		}
	}
	return reqs, nil
}

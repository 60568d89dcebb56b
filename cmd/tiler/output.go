package main

import (
	"io"

	"github.com/born-ml/tiling/internal/dtype"
	"github.com/born-ml/tiling/internal/shape"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/born-ml/tiling/plan"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// recordView is the YAML rendering of a record.
type recordView struct {
	Kernel      string       `yaml:"kernel"`
	Tag         uint64       `yaml:"tag"`
	ElemSize    int64        `yaml:"elem_size"`
	Sizes       []int64      `yaml:"sizes,flow"`
	InSizes     []int64      `yaml:"in_sizes,flow"`
	Before      []int64      `yaml:"before,flow"`
	After       []int64      `yaml:"after,flow"`
	LaunchUnits int64        `yaml:"launch_units"`
	Core        string       `yaml:"core"`
	Secondary   string       `yaml:"secondary,omitempty"`
	MainBuffer  string       `yaml:"main_buffer,omitempty"`
	TailBuffer  string       `yaml:"tail_buffer,omitempty"`
	Flat        string       `yaml:"flat,omitempty"`
	FlatMain    string       `yaml:"flat_main,omitempty"`
	FlatTail    string       `yaml:"flat_tail,omitempty"`
	Regions     []regionView `yaml:"regions,omitempty"`
	Workspace   int64        `yaml:"workspace_bytes"`
}

type regionView struct {
	Src        int64 `yaml:"src"`
	Dst        int64 `yaml:"dst"`
	BlockCount int64 `yaml:"blocks"`
	BlockLen   int64 `yaml:"block_len"`
	SrcStride  int64 `yaml:"src_stride"`
	DstStride  int64 `yaml:"dst_stride"`
}

func partition(p tiling.PartitionPlan) string {
	return lo.Ternary(p.Active(), p.String(), "")
}

func buffer(b tiling.BufferPlan) string {
	return lo.Ternary(b.Active(), b.String(), "")
}

func viewOf(rec plan.Record, kernel string) recordView {
	n := min(max(int(rec.Rank), 0), shape.MaxRank)
	return recordView{
		Kernel:      kernel,
		Tag:         rec.Tag,
		ElemSize:    rec.ElemSize,
		Sizes:       rec.Sizes[:n],
		InSizes:     rec.InSizes[:n],
		Before:      rec.Before[:n],
		After:       rec.After[:n],
		LaunchUnits: rec.LaunchUnits,
		Core:        rec.Core.String(),
		Secondary:   partition(rec.Secondary),
		MainBuffer:  buffer(rec.MainBuffer),
		TailBuffer:  buffer(rec.TailBuffer),
		Flat:        partition(rec.Flat),
		FlatMain:    buffer(rec.FlatMain),
		FlatTail:    buffer(rec.FlatTail),
		Regions: lo.Map(rec.Regions(), func(r tiling.CopyRegion, _ int) regionView {
			return regionView{
				Src: r.SrcOffset, Dst: r.DstOffset,
				BlockCount: r.BlockCount, BlockLen: r.BlockLen,
				SrcStride: r.SrcStride, DstStride: r.DstStride,
			}
		}),
		Workspace: rec.ScratchBytes(),
	}
}

// writeYAML renders v as a YAML document.
func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encode yaml")
	}
	return enc.Close()
}

// requestLabel is a short description of a request for sweep tables.
func requestLabel(req plan.Request) string {
	return req.Family.String() + " " + dtype.Name(req.DType)
}

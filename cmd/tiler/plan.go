package main

import (
	"os"

	"github.com/born-ml/tiling/internal/serialization"
	"github.com/born-ml/tiling/plan"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newPlanCmd(g *globalFlags) *cobra.Command {
	var (
		spec   requestSpec
		encode string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan one operator invocation and print its record",
		Example: `  tiler plan --family roll --out 16,1,4,4,8 --shifts 5,3 --dims 0,-1 --dtype float16
  tiler plan --family pad --in 1239,1025 --pads 20,25,10,18 --profile arch22`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := spec.request()
			if err != nil {
				return err
			}
			p, err := g.planner()
			if err != nil {
				return err
			}
			rec, err := p.Plan(req)
			if err != nil {
				return err
			}
			if encode != "" {
				if err := writeFrames(encode, []plan.Record{rec}); err != nil {
					return err
				}
			}
			name, err := p.KernelName(rec)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), viewOf(rec, name))
		},
	}

	f := cmd.Flags()
	f.StringVar(&spec.Family, "family", "", "operator family: roll, pad, broadcast, elementwise")
	f.Int64SliceVar(&spec.Out, "out", nil, "output shape")
	f.Int64SliceVar(&spec.In, "in", nil, "input shape (broadcast, pad)")
	f.Int64SliceVar(&spec.Shifts, "shifts", nil, "roll shifts")
	f.Int64SliceVar(&spec.Dims, "dims", nil, "roll axes")
	f.Int64SliceVar(&spec.Pads, "pads", nil, "pad amounts, before/after per axis")
	f.BoolVar(&spec.Grouped, "grouped", false, "pads list every before, then every after")
	f.StringVar(&spec.Mode, "mode", "", "pad mode: constant, reflect, symmetric, edge, circular")
	f.IntVar(&spec.Inputs, "inputs", 0, "elementwise operand count")
	f.StringVar(&spec.DType, "dtype", "float32", "element type")
	f.StringVar(&encode, "encode", "", "also write the encoded record to this file")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}

// writeFrames writes records to path as consecutive frames.
func writeFrames(path string, recs []plan.Record) error {
	//nolint:gosec // G304: output path is supplied by the operator
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create frame file")
	}
	w := serialization.NewWriter(f)
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			_ = f.Close()
			return err
		}
	}
	return errors.Wrap(f.Close(), "close frame file")
}

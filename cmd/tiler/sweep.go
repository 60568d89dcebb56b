package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

func newSweepCmd(g *globalFlags) *cobra.Command {
	var frames string
	cmd := &cobra.Command{
		Use:   "sweep FILE",
		Short: "Plan every request of a YAML file concurrently",
		Long: `Sweep plans the requests listed in FILE:

  requests:
    - {family: roll, out: [64, 512], shifts: [3], dims: [1], dtype: float16}
    - {family: pad, in: [100, 30], pads: [1, 1, 2, 2], mode: edge}

The batch fails as a whole when any request fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := loadRequests(args[0])
			if err != nil {
				return err
			}
			p, err := g.planner()
			if err != nil {
				return err
			}
			recs, err := p.PlanAll(cmd.Context(), reqs)
			if err != nil {
				return err
			}
			if frames != "" {
				if err := writeFrames(frames, recs); err != nil {
					return err
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tREQUEST\tKERNEL\tTAG\tUNITS")
			for i, rec := range recs {
				name, err := p.KernelName(rec)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", i, requestLabel(reqs[i]), name, rec.Tag, rec.LaunchUnits)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			stats := p.CacheStats()
			klog.V(1).InfoS("sweep done", "requests", len(reqs), "cacheHits", stats.Hits, "cacheMisses", stats.Misses)
			return nil
		},
	}
	cmd.Flags().StringVar(&frames, "frames", "", "write the encoded records to this file")
	return cmd
}

package main

import (
	goflag "flag"

	"github.com/born-ml/tiling/internal/platform"
	"github.com/born-ml/tiling/internal/tiling"
	"github.com/born-ml/tiling/plan"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config  string
	profile string
	policy  string
	verify  bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "tiler",
		Short:         "Plan NPU kernel tilings for data-movement operators",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.config, "config", "", "YAML planner configuration")
	pf.StringVar(&g.profile, "profile", "", "device preset name or YAML profile file; overrides the config")
	pf.StringVar(&g.policy, "dual-policy", "", "dual-split policy: weighted, first, second, outermost")
	pf.BoolVar(&g.verify, "verify", false, "check cell-level coverage of every record")
	addKlogFlags(pf)

	root.AddCommand(
		newPlanCmd(g),
		newSweepCmd(g),
		newProfilesCmd(),
		newDecodeCmd(),
		newVersionCmd(),
	)
	return root
}

// addKlogFlags exposes klog's flags (-v, -logtostderr, ...) on fs.
func addKlogFlags(fs *pflag.FlagSet) {
	gfs := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(gfs)
	fs.AddGoFlagSet(gfs)
}

// planner builds a Planner from the config file and flag overrides.
func (g *globalFlags) planner() (*plan.Planner, error) {
	cfg := plan.DefaultConfig()
	if g.config != "" {
		var err error
		if cfg, err = plan.LoadConfig(g.config); err != nil {
			return nil, err
		}
	}
	if g.profile != "" {
		p, err := platform.Resolve(g.profile)
		if err != nil {
			return nil, err
		}
		cfg.Profile = &p
	}
	if g.policy != "" {
		if _, err := tiling.ParseDualPolicy(g.policy); err != nil {
			return nil, err
		}
		cfg.Engine.DualPolicy = g.policy
	}
	if g.verify {
		cfg.Engine.Verify = true
	}
	return plan.New(cfg)
}

package main

import (
	"github.com/born-ml/tiling/internal/platform"
	"github.com/spf13/cobra"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles [NAME|FILE]",
		Short: "Print the built-in device presets, or one resolved profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				p, err := platform.Resolve(args[0])
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), p)
			}
			var all []platform.Profile
			for _, name := range platform.PresetNames() {
				p, err := platform.Preset(name)
				if err != nil {
					return err
				}
				all = append(all, p)
			}
			return writeYAML(cmd.OutOrStdout(), all)
		},
	}
}

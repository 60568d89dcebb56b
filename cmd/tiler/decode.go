package main

import (
	"os"

	"github.com/born-ml/tiling/internal/ops"
	"github.com/born-ml/tiling/internal/serialization"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var validationLevels = map[string]serialization.ValidationLevel{
	"strict": serialization.ValidationStrict,
	"normal": serialization.ValidationNormal,
	"none":   serialization.ValidationNone,
}

func newDecodeCmd() *cobra.Command {
	var (
		level        string
		skipChecksum bool
	)
	cmd := &cobra.Command{
		Use:   "decode FILE",
		Short: "Decode and validate a file of encoded records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lv, ok := validationLevels[level]
			if !ok {
				return errors.Errorf("unknown validation level %q", level)
			}
			//nolint:gosec // G304: input path is supplied by the operator
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open frame file")
			}
			defer f.Close()

			r := serialization.NewReaderWithOptions(f, serialization.ReaderOptions{
				SkipChecksumValidation: skipChecksum,
				ValidationLevel:        lv,
			})
			recs, err := r.ReadAll()
			if err != nil {
				return err
			}
			views := make([]recordView, len(recs))
			for i, rec := range recs {
				name, err := ops.KernelName(rec.Family, rec.Tag)
				if err != nil {
					return errors.Wrapf(err, "record %d", i)
				}
				views[i] = viewOf(rec, name)
			}
			return writeYAML(cmd.OutOrStdout(), views)
		},
	}
	cmd.Flags().StringVar(&level, "level", "strict", "validation level: strict, normal, none")
	cmd.Flags().BoolVar(&skipChecksum, "skip-checksum", false, "do not verify frame checksums")
	return cmd
}

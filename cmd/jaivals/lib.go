package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var libForce bool

func init() {
	libCmd.Flags().BoolVar(&libForce, "force", false, "rebuild even when the cache is current")
}

var libCmd = &cobra.Command{
	Use:   "lib",
	Short: "Build or refresh the library symbol cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd, ".")
		if err != nil {
			return err
		}
		cache, err := newLibraryCache(cfg, cfg.NewParser())
		if err != nil {
			return err
		}
		return track("library", func() error {
			set, err := cache.GetOrCreate(cmd.Context(), libForce)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range set.Paths() {
				idx, _ := set.Lookup(p)
				fmt.Fprintf(out, "%s (%d symbols)\n", p, idx.Len())
			}
			fmt.Fprintf(out, "%d librar(ies) cached in %s\n", set.Len(), cache.Path())
			return nil
		})
	},
}

package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dloss/deckview/internal/deck"
)

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Load every slide and report the ones that fail",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		d, err := deck.Open(cfg.DeckDir, cfg.TotalSlides)
		if err != nil {
			return err
		}
		loader := deck.NewLoader(cfg.ContainerClass)

		bar := progressbar.NewOptions(d.Total(),
			progressbar.OptionSetDescription("Checking slides"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)

		var failures []string
		for i := 1; i <= d.Total(); i++ {
			path, err := d.Path(i)
			if err == nil {
				_, err = loader.Load(cmd.Context(), path)
			}
			if err != nil {
				failures = append(failures, fmt.Sprintf("slide %d: %v", i, err))
			}
			_ = bar.Add(1)
		}
		_ = bar.Finish()

		for _, f := range failures {
			fmt.Fprintln(os.Stderr, f)
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d of %d slides failed", len(failures), d.Total())
		}
		fmt.Printf("%d slides ok\n", d.Total())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

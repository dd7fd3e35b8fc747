package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dloss/deckview/internal/deck"
)

var lsCmd = &cobra.Command{
	Use:   "ls [dir]",
	Short: "List the slides of a deck with their titles",
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

		files := make([]string, d.Total())
		for i := 1; i <= d.Total(); i++ {
			files[i-1] = "-"
			if path, err := d.Path(i); err == nil {
				files[i-1] = filepath.Base(path)
				c, err := loader.Load(cmd.Context(), path)
				d.MarkLoaded(i, c, err)
			}
		}

		rows := make([][]string, 0, d.Total())
		for i, title := range d.Titles() {
			rows = append(rows, []string{strconv.Itoa(i + 1), title, files[i]})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
			Headers("#", "TITLE", "FILE").
			Rows(rows...)
		fmt.Println(t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}

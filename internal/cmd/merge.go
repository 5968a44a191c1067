package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jimezsa/jobfinder/internal/store"
)

type MergeCmd struct {
	Base  string `arg:"" help:"Listings CSV that wins on duplicate Job URLs."`
	Input string `arg:"" help:"Listings CSV to merge into BASE."`
	Out   string `name:"out" short:"o" help:"Write the merged file here instead of updating BASE."`
	Stats bool   `name:"stats" help:"Print merge stats."`
}

func (c *MergeCmd) Run(ctx *Context) error {
	input, err := store.ReadCSV(c.Input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var stats store.MergeStats
	if strings.TrimSpace(c.Out) == "" || pathsEqual(c.Out, c.Base) {
		stats, err = store.NewCSVStore(c.Base).Merge(input)
		if err != nil {
			return err
		}
	} else {
		base, err := store.ReadCSVAllowMissing(c.Base)
		if err != nil {
			return fmt.Errorf("read base: %w", err)
		}
		merged, mergeStats := store.MergeRecords(base, input)
		stats = mergeStats
		if err := store.WriteCSV(c.Out, merged); err != nil {
			return fmt.Errorf("write --out: %w", err)
		}
	}

	if c.Stats {
		_, err := fmt.Fprintf(
			ctx.Out,
			"total_base=%d total_input=%d invalid_skipped=%d added=%d total_out=%d\n",
			stats.TotalExisting,
			stats.TotalInput,
			stats.InvalidSkipped(),
			stats.Added,
			stats.TotalOut,
		)
		return err
	}
	return nil
}

func pathsEqual(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil {
		return absA == absB
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

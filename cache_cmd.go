package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lekman/tts-code/internal/cache"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the audio cache",
		Args:  cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show audio cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := newEngine(ttsConfig)
			if err != nil {
				return err
			}
			defer eng.close()

			printCacheStats(cmd.OutOrStdout(), eng.cache.Stats(), cacheDir(eng.cache))
			return nil
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached audio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := newEngine(ttsConfig)
			if err != nil {
				return err
			}
			defer eng.close()

			freed := eng.cache.Size()
			if err := eng.cache.Clear(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s of cached audio\n", humanize.IBytes(uint64(freed))) //nolint:gosec
			return err
		},
	}
)

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}

func cacheDir(cm *cache.CacheManager) string {
	if d := cm.Disk(); d != nil {
		return d.Path()
	}
	return ""
}

func printCacheStats(w io.Writer, s cache.ManagerStats, dir string) {
	row := func(label, value string) {
		_, _ = fmt.Fprintf(w, "  %-10s %s\n", label, value)
	}

	_, _ = fmt.Fprintln(w, keyword("Memory"))
	row("capacity", humanize.IBytes(uint64(s.L1.Capacity))) //nolint:gosec

	_, _ = fmt.Fprintln(w, keyword("Disk"))
	if s.L2 == nil {
		row("status", subtle("disabled"))
		return
	}
	row("location", dir)
	row("entries", humanize.Comma(s.L2.ItemCount))
	row("size", fmt.Sprintf("%s of %s (%.0f%%)",
		humanize.IBytes(uint64(s.L2.Size)),     //nolint:gosec
		humanize.IBytes(uint64(s.L2.Capacity)), //nolint:gosec
		percent(s.L2.Size, s.L2.Capacity),
	))
	row("evictions", humanize.Comma(s.L2.Evictions))
	if s.L2.Rejected > 0 {
		row("rejected", humanize.Comma(s.L2.Rejected))
	}
}

func percent(n, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/groundcheck/internal/cache"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the lookup cache",
	Long: `Manage the on-disk cache of Wikipedia lookups (cache.dir, default ~/.groundcheck/cache).
The in-memory layer lives only as long as a single run or server process.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached lookups",
	Long:  `Delete every cached lookup from the cache directory. Other files in the directory are left alone.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		disk := cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.DiskTTL)
		removed, err := disk.Clear()
		if err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %d cached lookups from %s\n", removed, disk.Dir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

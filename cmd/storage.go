package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matheuskafuri/larder/internal/assets"
	"github.com/matheuskafuri/larder/internal/config"
	"github.com/matheuskafuri/larder/internal/digest"
	"github.com/matheuskafuri/larder/internal/store"
	"github.com/matheuskafuri/larder/internal/tui"
	"github.com/matheuskafuri/larder/internal/viewer"
)

var (
	flagSeedOnboarding bool
	flagSeedCategories bool
	flagSeedItems      bool
	flagSeedTUI        bool
	flagGetOut         string
	flagGetOpen        bool
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage generated images",
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate missing onboarding, category and item images",
	Long: `Warm the asset store one key at a time.

Keys already stored are skipped. Generation is spaced and retried according
to the generator settings, so a cold seed can take a while.
With no selection flags every group is seeded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.cfg.AIEnabled() {
			a.log.Warn("%v", errNoGenerator)
		}

		keys, err := seedKeys(cmd.Context(), a.db, flagSeedOnboarding, flagSeedCategories, flagSeedItems)
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to seed.")
			return nil
		}

		if flagSeedTUI {
			return tui.Run(tui.RunOpts{Cache: a.cache, SeedKeys: keys})
		}

		out := cmd.OutOrStdout()
		cancel := a.cache.Subscribe("", func(e assets.Entry) {
			if e.State == assets.Loading {
				fmt.Fprintf(out, "  %s %s\n", dimStyle.Render("generating"), e.Key)
			}
		})
		defer cancel()

		entries := a.cache.Seed(cmd.Context(), keys, assets.DefaultPrompts)
		var ready, failed int
		for _, e := range entries {
			switch e.State {
			case assets.Ready:
				ready++
			case assets.Failed:
				failed++
				fmt.Fprintf(out, "  %s %s (%s): %v\n", urgentStyle.Render("failed"), e.Key, e.ErrKind, e.Err)
			}
		}
		fmt.Fprintf(out, "Seeded %d/%d assets", ready, len(entries))
		if failed > 0 {
			fmt.Fprintf(out, ", %d failed", failed)
		}
		if a.gen != nil {
			fmt.Fprintf(out, " (%d provider calls)", a.gen.Dispatched())
		}
		fmt.Fprintln(out)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Fetch or generate one asset",
	Long: `Resolve an asset key such as category:dairy, item:milk, onboarding:0 or
recipe:veggie omelette. The image is written to --out, or only reported when
--out is empty.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := assets.ParseKey(args[0])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		e := a.cache.Ensure(cmd.Context(), key.String(), assets.DefaultPrompts)
		if e.State != assets.Ready {
			if e.Err == nil {
				return fmt.Errorf("%s: %s", key, e.State)
			}
			return fmt.Errorf("%s: %s (%s): %w", key, e.State, e.ErrKind, e.Err)
		}

		out := cmd.OutOrStdout()
		path := flagGetOut
		if path == "" && flagGetOpen {
			f, err := os.CreateTemp("", "larder-*.png")
			if err != nil {
				return err
			}
			f.Close()
			path = f.Name()
		}
		if path == "" {
			fmt.Fprintf(out, "%s ready (%s, %s)\n", key, humanize.IBytes(uint64(len(e.Value))), e.Source)
			return nil
		}

		if err := os.WriteFile(path, e.Value, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		fmt.Fprintf(out, "Wrote %s (%s, %s) to %s\n", key, humanize.IBytes(uint64(len(e.Value))), e.Source, path)
		if flagGetOpen {
			return viewer.Open(path)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show asset store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.assets.AssetStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		keys, err := a.assets.ListAssetKeys(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing assets: %w", err)
		}

		out := cmd.OutOrStdout()
		engine := a.cfg.Assets.Engine
		location := config.DataPath()
		if engine == store.EngineFile {
			location = a.cfg.AssetDir()
		}
		fmt.Fprintf(out, "Engine: %s (%s)\n", engine, location)
		fmt.Fprintf(out, "Assets: %d\n", stats.Count)
		fmt.Fprintf(out, "Size: %s\n", humanize.IBytes(uint64(stats.Bytes)))
		for _, k := range keys {
			fmt.Fprintln(out, "  "+k)
		}
		return nil
	},
}

var forgetCmd = &cobra.Command{
	Use:   "forget <key>...",
	Short: "Delete stored assets so they are generated again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, arg := range args {
			key, err := assets.ParseKey(arg)
			if err != nil {
				return err
			}
			err = a.assets.DeleteAsset(cmd.Context(), key.String())
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s was not stored\n", key)
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", key)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&flagSeedOnboarding, "onboarding", false, "seed onboarding illustrations")
	seedCmd.Flags().BoolVar(&flagSeedCategories, "categories", false, "seed category icons")
	seedCmd.Flags().BoolVar(&flagSeedItems, "items", false, "seed icons of stored items")
	seedCmd.Flags().BoolVar(&flagSeedTUI, "tui", false, "show progress in a full-screen view")
	getCmd.Flags().StringVarP(&flagGetOut, "out", "o", "", "write the image to this file")
	getCmd.Flags().BoolVar(&flagGetOpen, "open", false, "open the image in the system viewer")

	assetsCmd.AddCommand(seedCmd)
	assetsCmd.AddCommand(getCmd)
	assetsCmd.AddCommand(statsCmd)
	assetsCmd.AddCommand(forgetCmd)
}

// seedKeys collects the keys to warm in a stable order. No flags means all
// groups.
func seedKeys(ctx context.Context, db digest.ItemLister, onboarding, categories, items bool) ([]string, error) {
	if !onboarding && !categories && !items {
		onboarding, categories, items = true, true, true
	}

	var keys []string
	if onboarding {
		keys = append(keys, assets.OnboardingKeys()...)
	}
	if categories {
		keys = append(keys, assets.CategoryKeys()...)
	}
	if items {
		stored, err := db.ListItems(ctx, store.ListOpts{})
		if err != nil {
			return nil, fmt.Errorf("listing items: %w", err)
		}
		seen := map[string]bool{}
		for _, it := range stored {
			if it.ImageKey == "" || seen[it.ImageKey] {
				continue
			}
			seen[it.ImageKey] = true
			keys = append(keys, it.ImageKey)
		}
	}
	return keys, nil
}

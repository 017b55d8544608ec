package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matheuskafuri/larder/internal/assets"
	"github.com/matheuskafuri/larder/internal/classify"
	"github.com/matheuskafuri/larder/internal/expiry"
	"github.com/matheuskafuri/larder/internal/store"
)

var (
	flagExpires  string
	flagIn       string
	flagCategory string
	flagNoIcon   bool

	flagListStatus   string
	flagListCategory string
	flagListSearch   string
)

var (
	urgentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F6D"}).Bold(true)
	soonStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C77C02", Dark: "#FFB347"})
	freshStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"})
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"})
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#2E7D5B", Dark: "#5FD39A"})
)

func statusStyle(c expiry.Category) lipgloss.Style {
	switch c {
	case expiry.Urgent:
		return urgentStyle
	case expiry.Soon:
		return soonStyle
	default:
		return freshStyle
	}
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an item to the larder",
	Long: `Add a grocery item with its expiry date.

The expiry is either an absolute date (--expires 2024-01-15) or a relative
one (--in 5d). The category is guessed from the name unless --category is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		exp, err := parseExpiry(flagExpires, flagIn, time.Now())
		if err != nil {
			return err
		}

		category := classify.Classify(name)
		if flagCategory != "" {
			if category, err = classify.ResolveAlias(flagCategory); err != nil {
				return err
			}
		}

		iconKey, err := assets.ItemKey(name)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		id, err := a.db.CreateItem(ctx, store.Item{
			Name:       name,
			Category:   category,
			ExpiryDate: exp,
		})
		if err != nil {
			return fmt.Errorf("adding item: %w", err)
		}
		if !flagNoIcon {
			if err := a.db.SetItemImage(ctx, id, iconKey.String()); err != nil {
				return fmt.Errorf("linking icon: %w", err)
			}
		}

		st := expiry.Classify(exp, time.Now())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added %s (%s) %s\n", titleStyle.Render(name), category.DisplayName(),
			statusStyle(st.Category).Render(expiry.Label(st)))
		fmt.Fprintln(out, dimStyle.Render("id "+id))

		if flagNoIcon || !a.cfg.AIEnabled() {
			return nil
		}
		a.cache.Prefetch(iconKey.String(), assets.DefaultPrompts)
		a.cache.Wait()
		e := a.cache.Get(iconKey.String())
		if e.State == assets.Ready {
			fmt.Fprintf(out, "Icon %s (%s)\n", e.State, e.Source)
		} else {
			fmt.Fprintf(out, "Icon %s: %v\n", e.State, e.Err)
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List items, soonest expiry first",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.ListOpts{Search: flagListSearch}
		if flagListStatus != "" {
			st, err := expiry.ParseCategory(flagListStatus)
			if err != nil {
				return err
			}
			opts.Status = st
		}
		if flagListCategory != "" {
			c, err := classify.ResolveAlias(flagListCategory)
			if err != nil {
				return err
			}
			opts.Category = c
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.db.ListItems(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		printItems(cmd.OutOrStdout(), items, time.Now())
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"remove"},
	Short:   "Remove items by id",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, id := range args {
			if err := a.db.DeleteItem(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&flagExpires, "expires", "", "expiry date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&flagIn, "in", "", "expires after a duration (e.g., 5d, 36h)")
	addCmd.Flags().StringVar(&flagCategory, "category", "", "category or alias (e.g., dairy, fruit)")
	addCmd.Flags().BoolVar(&flagNoIcon, "no-icon", false, "do not link or generate an item icon")
	addCmd.MarkFlagsMutuallyExclusive("expires", "in")

	listCmd.Flags().StringVar(&flagListStatus, "status", "", "only urgent, soon or fresh items")
	listCmd.Flags().StringVar(&flagListCategory, "category", "", "only items of this category")
	listCmd.Flags().StringVar(&flagListSearch, "search", "", "only items whose name contains this text")
}

// parseExpiry resolves --expires or --in to a calendar date in now's
// location.
func parseExpiry(expires, in string, now time.Time) (time.Time, error) {
	switch {
	case expires != "":
		t, err := time.ParseInLocation("2006-01-02", expires, now.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --expires value %q: want YYYY-MM-DD", expires)
		}
		return t, nil
	case in != "":
		d, err := parseSince(in)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --in value: %w", err)
		}
		t := now.Add(d)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), nil
	default:
		return time.Time{}, fmt.Errorf("an expiry is required: use --expires or --in")
	}
}

func printItems(w io.Writer, items []store.Item, now time.Time) {
	if len(items) == 0 {
		fmt.Fprintln(w, "Nothing in the larder.")
		return
	}

	nameWidth := 4
	for _, it := range items {
		if n := lipgloss.Width(it.Name); n > nameWidth {
			nameWidth = n
		}
	}

	for _, it := range items {
		st := expiry.Classify(it.ExpiryDate, now)
		fmt.Fprintf(w, "%s  %-*s  %-12s  %s\n",
			statusStyle(st.Category).Render(fmt.Sprintf("%-6s", st.Category)),
			nameWidth, it.Name,
			it.Category.DisplayName(),
			statusStyle(st.Category).Render(expiry.Label(st))+dimStyle.Render("  "+it.ID),
		)
	}
}

package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/larder/internal/classify"
	"github.com/matheuskafuri/larder/internal/digest"
	"github.com/matheuskafuri/larder/internal/expiry"
)

var (
	flagDigestSize     int
	flagDigestCategory string
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Summarize what to use first",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := digest.GenerateOpts{Now: time.Now(), UseFirstSize: flagDigestSize}
		if flagDigestCategory != "" {
			c, err := classify.ResolveAlias(flagDigestCategory)
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

		opts.DB = a.db
		d, err := digest.Generate(cmd.Context(), opts)
		if err != nil {
			return err
		}
		printDigest(cmd.OutOrStdout(), d)
		return nil
	},
}

func init() {
	digestCmd.Flags().IntVar(&flagDigestSize, "size", 5, "number of items in the use-first list")
	digestCmd.Flags().StringVar(&flagDigestCategory, "category", "", "only consider this category")
}

func printDigest(w io.Writer, d *digest.Digest) {
	fmt.Fprintf(w, "%s · %s\n\n", titleStyle.Render(d.Greeting), d.DateLabel)

	if d.Total == 0 {
		fmt.Fprintln(w, "Nothing in the larder.")
		return
	}

	fmt.Fprintf(w, "%d items: ", d.Total)
	for i, c := range expiry.AllCategories() {
		if i > 0 {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprint(w, statusStyle(c).Render(fmt.Sprintf("%d %s", d.Counts[c], c)))
	}
	fmt.Fprintln(w)
	if d.TopCategories != "" {
		fmt.Fprintln(w, dimStyle.Render("Mostly "+d.TopCategories))
	}

	if len(d.UseFirst) == 0 {
		fmt.Fprintln(w, "\nEverything is fresh.")
		return
	}
	fmt.Fprintln(w, "\nUse first:")
	for _, c := range d.UseFirst {
		fmt.Fprintf(w, "  %d. %s  %s\n", c.Index, c.Item.Name, statusStyle(c.Status.Category).Render(c.Label))
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rumah-finder/internal/filter"
	"github.com/evcraddock/rumah-finder/internal/suggest"
)

func newSuggestCmd() *cobra.Command {
	var pick int

	cmd := &cobra.Command{
		Use:   "suggest [query]",
		Short: "Show search suggestions",
		Long:  "Show grouped suggestions for a query. With no query, shows recent searches, popular locations and the newest listings. --pick commits a numbered suggestion as a recent search and prints the resulting filters.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, strings.Join(args, " "), pick)
		},
	}

	cmd.Flags().IntVar(&pick, "pick", 0, "commit the suggestion with this number")

	return cmd
}

func runSuggest(cmd *cobra.Command, query string, pick int) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeSession(sess)

	if _, err := sess.WaitDirectory(ctx); err != nil {
		return err
	}

	query = strings.TrimSpace(query)
	out := sess.Suggestions().Build(ctx, query)
	if query == "" {
		entries, err := sess.Recents().List(ctx)
		if err != nil {
			return fmt.Errorf("loading recent searches: %w", err)
		}
		out = suggest.WithRecent(out, entries)
	}

	if pick == 0 {
		if isJSON() {
			return printJSON(cmd.OutOrStdout(), out)
		}
		printSuggestions(cmd.OutOrStdout(), out)
		return nil
	}

	items := out.Flat()
	if pick < 1 || pick > len(items) {
		return fmt.Errorf("--pick must be between 1 and %d", len(items))
	}
	item := items[pick-1]
	if err := sess.Recents().Push(ctx, item.RecentEntry()); err != nil {
		return fmt.Errorf("saving recent search: %w", err)
	}

	state := filter.Default().Apply(item.Fragment)
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), state)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Selected %q.\n", item.Label)
	fmt.Fprintf(cmd.OutOrStdout(), "Run: rf search%s\n", searchArgs(state))
	return nil
}

// searchArgs renders the search flags that reproduce s.
func searchArgs(s filter.State) string {
	var b strings.Builder
	if s.Keyword != "" {
		fmt.Fprintf(&b, " --keyword %q", s.Keyword)
	}
	if s.Location != filter.All {
		fmt.Fprintf(&b, " --location %q", s.Location)
	}
	return b.String()
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecentCmd() *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent searches",
		Long:  "List the five most recent committed searches, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecent(cmd, clearAll)
		},
	}

	cmd.Flags().BoolVar(&clearAll, "clear", false, "forget all recent searches")

	return cmd
}

func runRecent(cmd *cobra.Command, clearAll bool) error {
	ctx := cmd.Context()
	sess, err := openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeSession(sess)

	if clearAll {
		if err := sess.Recents().Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Recent searches cleared.")
		return nil
	}

	entries, err := sess.Recents().List(ctx)
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	printRecent(cmd.OutOrStdout(), entries)
	return nil
}

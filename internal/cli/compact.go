package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	cmd := &cobra.Command{
		Use:   "compact",
		Short: "Prune old exchanges down to the retention floor",
		Long:  "Prune old exchanges. Without --force this only acts when the stored count exceeds the retention ceiling.",
		Run:   runCompact,
	}

	cmd.Flags().Bool("force", false, "Prune to the floor even below the ceiling")

	RootCmd.AddCommand(cmd)
}

func runCompact(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	res, err := s.Compact(cmd.Context(), force)
	if err != nil {
		exitErr("compact", err)
	}
	logger.Info("compacted", zap.Int("before", res.Before), zap.Int("after", res.After))

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"before":%d,"after":%d,"pruned":%d}`+"\n",
		res.Before, res.After, res.Pruned())
}

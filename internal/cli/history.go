package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored exchanges",
		Long:  "Show the most recent exchanges, oldest first. With --query, search inputs and replies instead (newest first).",
		Run:   runHistory,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max exchanges")
	cmd.Flags().StringP("query", "q", "", "Substring to search for")
	cmd.Flags().StringP("category", "c", "", "Filter search by category")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	query, _ := cmd.Flags().GetString("query")
	category, _ := cmd.Flags().GetString("category")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var exchanges []model.Exchange
	if query != "" || category != "" {
		exchanges, err = s.SearchExchanges(cmd.Context(), store.SearchParams{
			Query:    query,
			Category: category,
			Limit:    limit,
		})
	} else {
		exchanges, err = s.Recent(cmd.Context(), limit)
	}
	if err != nil {
		exitErr("history", err)
	}

	if formatFlag == "text" {
		writeExchanges(cmd.OutOrStdout(), exchanges)
		return
	}
	if exchanges == nil {
		exchanges = []model.Exchange{}
	}
	printJSON(cmd.OutOrStdout(), exchanges)
}

func writeExchanges(w io.Writer, exchanges []model.Exchange) {
	for _, ex := range exchanges {
		fmt.Fprintf(w, "[%s] (%s)\n  you: %s\n  bot: %s\n",
			ex.Timestamp.Local().Format("2006-01-02 15:04:05"), ex.Category, ex.Input, ex.Response)
	}
}

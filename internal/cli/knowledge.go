package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/store"
)

func init() {
	learn := &cobra.Command{
		Use:   "learn [information]",
		Short: "File a piece of information under a topic",
		Args:  cobra.MinimumNArgs(1),
		Run:   runLearn,
	}
	learn.Flags().StringP("topic", "t", "", "Topic (required)")
	learn.Flags().StringP("source", "s", "cli", "Where the information came from")
	learn.MarkFlagRequired("topic")

	recall := &cobra.Command{
		Use:   "recall [topic]",
		Short: "Show the newest facts whose topic contains the query",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRecall,
	}
	recall.Flags().IntP("limit", "l", store.MaxKnowledgeResults, "Max facts")

	RootCmd.AddCommand(learn, recall)
}

func runLearn(cmd *cobra.Command, args []string) {
	topic, _ := cmd.Flags().GetString("topic")
	source, _ := cmd.Flags().GetString("source")
	info := strings.TrimSpace(strings.Join(args, " "))
	if info == "" {
		exitErr("learn", fmt.Errorf("information is required"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := s.AddKnowledge(cmd.Context(), topic, info, source); err != nil {
		exitErr("learn", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), `{"ok":true}`)
}

func runRecall(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	topic := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	facts, err := s.QueryFacts(cmd.Context(), topic, limit)
	if err != nil {
		exitErr("recall", err)
	}

	if formatFlag == "text" {
		for _, f := range facts {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", f.Topic, f.Information)
		}
		return
	}
	if facts == nil {
		facts = []model.Fact{}
	}
	printJSON(cmd.OutOrStdout(), facts)
}

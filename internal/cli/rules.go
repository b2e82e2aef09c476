package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/rules"
)

type ruleView struct {
	Category  string   `json:"category"`
	Mood      string   `json:"mood,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Patterns  []string `json:"patterns,omitempty"`
	Responses []string `json:"responses"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate and list the rule table",
		Long:  "Load the rule table (embedded defaults, rules_path, or --file), report any definition error, and list its entries in match order.",
		Run:   runRules,
	}

	cmd.Flags().String("file", "", "Rule file to validate instead of the configured one")

	RootCmd.AddCommand(cmd)
}

func runRules(cmd *cobra.Command, args []string) {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = cfg.RulesPath
	}

	table, err := rules.Load(path)
	if err != nil {
		exitErr("rules", err)
	}

	if formatFlag == "text" {
		for i, e := range table.Entries() {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. %-10s keywords=%q responses=%d\n", i+1, e.Category, e.Keywords, len(e.Responses))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "fallback responses: %d\n", len(table.Fallback()))
		return
	}

	views := make([]ruleView, 0, table.Len())
	for _, e := range table.Entries() {
		v := ruleView{Category: e.Category, Mood: e.Mood, Keywords: e.Keywords, Responses: e.Responses}
		for _, p := range e.Patterns {
			v.Patterns = append(v.Patterns, strings.TrimPrefix(p.String(), "(?i)"))
		}
		views = append(views, v)
	}
	printJSON(cmd.OutOrStdout(), map[string]any{
		"rules":    views,
		"fallback": table.Fallback(),
	})
}

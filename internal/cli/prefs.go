package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	prefs := &cobra.Command{
		Use:   "prefs",
		Short: "Show stored preferences",
		Run:   runPrefs,
	}

	name := &cobra.Command{
		Use:   "name [new name]",
		Short: "Show or change the display name",
		Run:   runName,
	}

	RootCmd.AddCommand(prefs, name)
}

func runPrefs(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.LoadPreferences(cmd.Context())
	if err != nil {
		exitErr("load preferences", err)
	}
	printJSON(cmd.OutOrStdout(), p)
}

func runName(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	p, err := s.LoadPreferences(cmd.Context())
	if err != nil {
		exitErr("load preferences", err)
	}

	if name := strings.TrimSpace(strings.Join(args, " ")); name != "" {
		p.DisplayName = name
		if err := s.SavePreferences(cmd.Context(), p); err != nil {
			exitErr("save preferences", err)
		}
	}
	printJSON(cmd.OutOrStdout(), map[string]string{"display_name": p.DisplayName})
}

package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored exchanges as JSON",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	exchanges, err := s.ExportExchanges(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}
	printJSON(cmd.OutOrStdout(), exchanges)
}

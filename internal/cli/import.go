package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ctrl-alt-del-2010-developer/Quantumia/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import exchanges from JSON",
		Long:  "Import exchanges from JSON on stdin. Expects the format produced by export. IDs are reassigned and retention applies.",
		Run:   runImport,
	}

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		exitErr("read stdin", err)
	}

	var exchanges []model.Exchange
	if err := json.Unmarshal(data, &exchanges); err != nil {
		exitErr("parse json", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported, err := s.ImportExchanges(cmd.Context(), exchanges)
	if err != nil {
		exitErr("import", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"imported":%d}`+"\n", imported)
}

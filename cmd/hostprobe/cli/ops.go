package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var opsFile string

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List and validate the operations table",
	Long: `Print the operations the menu offers, with their wire codes and
nicknames, after checking the table for problems: empty descriptions,
duplicate codes, nicknames shared between operations, and nicknames that
look like menu numbers or exit keywords.

An operations file looks like:

  operations:
    - description: Get host uptime
      code: 22
      nicknames: [uptime]`,
	Args: cobra.NoArgs,
	RunE: listOperations,
}

func init() {
	rootCmd.AddCommand(opsCmd)
	opsCmd.Flags().StringVarP(&opsFile, "file", "f", "", "operations table (YAML) to check instead of the configured one")
}

func listOperations(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	table, err := loadTable(cfg, opsFile)
	if err != nil {
		return err
	}
	if err := table.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return json.NewEncoder(out).Encode(table.Operations)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCODE\tDESCRIPTION\tNICKNAMES")
	for i, e := range table.Operations {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", i+1, e.Code, e.Description, strings.Join(e.Nicknames, ", "))
	}
	return w.Flush()
}

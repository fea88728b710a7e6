package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/swapwatch/internal/control"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify RPC, price oracle and Telegram credentials",
	Run:   runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	results := control.Check(context.Background(), cfg, control.CheckDeps{})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CHECK\tSTATUS\tDETAIL")
	failed := false
	for _, r := range results {
		status, detail := "ok", r.Detail
		if r.Err != nil {
			status, detail, failed = "FAIL", r.Err.Error(), true
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, status, detail)
	}
	w.Flush()

	if failed {
		os.Exit(1)
	}
}

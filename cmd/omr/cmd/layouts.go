package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/MeKo-Tech/omrscore/internal/layout"
	"github.com/spf13/cobra"
)

// layoutsCmd represents the layouts command.
var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List known phase codes and their subject layouts",
	Long: `List the class/stream phase codes the decoder knows, together with the
subject list each code resolves to.

Examples:
  omr layouts
  omr layouts --format json`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		table := layout.Phases()
		codes := make([]string, 0, len(table))
		for code := range table {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		out := cmd.OutOrStdout()

		if format == outputFormatJSON {
			ordered := make([]struct {
				Code     string   `json:"code"`
				Subjects []string `json:"subjects"`
			}, 0, len(codes))
			for _, code := range codes {
				ordered = append(ordered, struct {
					Code     string   `json:"code"`
					Subjects []string `json:"subjects"`
				}{Code: code, Subjects: table[code]})
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(ordered)
		}

		for _, code := range codes {
			if _, err := fmt.Fprintf(out, "%-10s %s\n", code, strings.Join(table[code], ", ")); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(out, "\nUnknown codes fall back to: %s\n", strings.Join(layout.DefaultSubjects(), ", "))
		return err
	},
}

func init() {
	rootCmd.AddCommand(layoutsCmd)
	layoutsCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
}

// GetLayoutsCommand returns the layouts command for testing purposes.
func GetLayoutsCommand() *cobra.Command {
	return layoutsCmd
}

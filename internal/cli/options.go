package cli

import (
	"encoding/json"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spellchain/pkg/stage"
)

// optionsCommand lists the block option catalog.
func (c *CLI) optionsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "options",
		Short: "List the options available for each block",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if asJSON {
				return writeCatalogJSON(out)
			}
			_, err := io.WriteString(out, catalogTable()+"\n")
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

func writeCatalogJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stage.Catalog())
}

// catalogTable renders every stage's options as one table, in stage order.
func catalogTable() string {
	var rows [][]string
	var firstOfStage []bool
	for _, k := range stage.All() {
		for i, o := range k.Options() {
			title := ""
			if i == 0 {
				title = k.Icon() + " " + k.Title()
			}
			rows = append(rows, []string{title, o.ID, o.Icon + " " + o.Label})
			firstOfStage = append(firstOfStage, i == 0)
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers("Block", "ID", "Option").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == -1:
				return styleHeader.Padding(0, 1)
			case col == 0 && firstOfStage[row]:
				return base.Inherit(StyleTitle)
			case col == 1:
				return base.Inherit(StyleHighlight)
			}
			return base
		}).
		Render()
}

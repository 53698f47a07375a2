package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	domainagg "github.com/yungbote/greenlight-backend/internal/domain/aggregates"
)

func NewImportCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <outline.yaml>",
		Short: "Create a curriculum set from a YAML outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Services.Import.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printImport(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func printImport(w io.Writer, res domainagg.ImportSetResult) {
	leaves := 0
	for _, it := range res.Items {
		if it.IsLeaf {
			leaves++
		}
	}
	if res.Set != nil {
		fmt.Fprintf(w, "imported %q (%s)\n", res.Set.Name, res.Set.ID)
	}
	fmt.Fprintf(w, "  items: %d  leaves: %d\n", len(res.Items), leaves)
}

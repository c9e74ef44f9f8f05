package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newArchiveCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "archive PROJECT_ID",
		Short: "Export a project's archived repository snapshot",
		Long: `Write the tar.gz snapshot stored for a project to a local file.

By default the file is written under its stored archive name in the
current directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			return runArchive(cmd, projectID, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")

	return cmd
}

func runArchive(cmd *cobra.Command, projectID int64, output string) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	archive, err := st.GetArchive(cmd.Context(), projectID)
	if err != nil {
		return err
	}

	if output == "" {
		output = archive.Filename
	}
	if err := os.WriteFile(output, archive.Data, 0644); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", output, archive.Size)
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rulestack-labs/rulestack/internal/gitrepo"
	"github.com/rulestack-labs/rulestack/internal/importer"
)

func newImportCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "import NAME URL",
		Short: "Import a project from a git repository",
		Long: `Clone a git repository, discover its rulebooks, and store the project.

The repository must contain a top-level rulebooks/ directory holding the
rulebook YAML files. Each import creates a new project; re-importing the
same URL creates a second, distinct project.`,
		Example: `  # Import a project
  rulestack import demo https://example.com/automation/demo.git

  # Import with a description
  rulestack import demo https://example.com/automation/demo.git \
    --description "Demo automation rules"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], args[1], description)
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")

	return cmd
}

func runImport(cmd *cobra.Command, name, url, description string) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	svc := importer.New(importer.Config{
		Git:        gitrepo.NewCLI(cfg.GitBin, logger),
		Store:      st,
		Logger:     logger,
		CloneDepth: cfg.CloneDepth,
	})

	project, err := svc.ImportProject(cmd.Context(), name, url, description)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported project %d (%s)\n", project.ID, project.Name)
	fmt.Fprintf(out, "  url:     %s\n", project.URL)
	fmt.Fprintf(out, "  commit:  %s\n", project.GitHash)
	fmt.Fprintf(out, "  archive: %s\n", project.ArchiveName)
	return nil
}

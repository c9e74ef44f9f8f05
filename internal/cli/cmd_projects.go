package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newProjectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List imported projects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProjects(cmd)
		},
	}
}

func runProjects(cmd *cobra.Command) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	projects, err := st.ListProjects(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects imported yet.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "NAME", "URL", "COMMIT", "ARCHIVE", "CREATED"})
	for _, p := range projects {
		t.AppendRow(table.Row{
			p.ID, p.Name, p.URL, shortHash(p.GitHash), p.ArchiveName,
			p.CreatedAt.Format(time.RFC3339),
		})
	}
	t.Render()
	fmt.Fprintf(w, "(%d projects)\n", len(projects))
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRulebooksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rulebooks PROJECT_ID",
		Short: "List a project's rulebooks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			return runRulebooks(cmd, projectID)
		},
	}
}

func runRulebooks(cmd *cobra.Command, projectID int64) error {
	st, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	project, err := st.GetProject(ctx, projectID)
	if err != nil {
		return err
	}

	rulebooks, err := st.ListRulebooks(ctx, projectID)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Project %d (%s) at %s\n", project.ID, project.Name, shortHash(project.GitHash))
	if len(rulebooks) == 0 {
		fmt.Fprintln(w, "No rulebooks.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "NAME", "RULESETS", "RULES"})
	for _, rb := range rulebooks {
		t.AppendRow(table.Row{rb.ID, rb.Name, rb.Rulesets, rb.Rules})
	}
	t.Render()
	return nil
}

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taskboard/internal/board"
)

type columnView struct {
	ID    string     `yaml:"id,omitempty"`
	Title string     `yaml:"title"`
	Tasks []taskView `yaml:"tasks"`
}

type taskView struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Pending bool   `yaml:"pending,omitempty"`
}

func newBoardCmd(a *app) *cobra.Command {
	var output, category string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks grouped by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "table" && output != "yaml" {
				return fmt.Errorf("unknown output format %q", output)
			}
			if err := a.signedIn(cmd.Context()); err != nil {
				return describe(err)
			}

			columns := boardView(a.store.Board())
			if category != "" {
				c, err := resolveCategory(a.store, category)
				if err != nil {
					return err
				}
				columns = []columnView{{ID: c.ID.String(), Title: c.Title, Tasks: taskViews(a.store.TasksInCategory(c.ID))}}
			}

			if output == "yaml" {
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(columns)
			}
			return renderTable(cmd.OutOrStdout(), columns)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or yaml")
	cmd.Flags().StringVar(&category, "category", "", "only show one category (id or title)")
	return cmd
}

func boardView(b board.Board) []columnView {
	columns := make([]columnView, 0, len(b.Columns))
	for _, col := range b.Columns {
		view := columnView{Title: col.Title(), Tasks: []taskView{}}
		if !col.Unassigned() {
			view.ID = col.Category.ID.String()
		}
		for _, card := range col.Cards {
			view.Tasks = append(view.Tasks, taskView{ID: card.ID.String(), Title: card.Title, Pending: card.Pending})
		}
		columns = append(columns, view)
	}
	return columns
}

func taskViews(tasks []board.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskView{ID: task.ID.String(), Title: task.Title})
	}
	return out
}

func renderTable(w io.Writer, columns []columnView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, col := range columns {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s (%d)\n", col.Title, len(col.Tasks))
		if len(col.Tasks) == 0 {
			fmt.Fprintln(tw, "  -")
		}
		for _, task := range col.Tasks {
			fmt.Fprintf(tw, "  %s\t%s\n", task.ID[:shortIDLen], task.Title)
		}
	}
	return tw.Flush()
}

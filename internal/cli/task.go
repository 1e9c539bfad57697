package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/internal/board"
	"taskboard/internal/drag"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, edit, move and remove tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(a),
		newTaskEditCmd(a),
		newTaskMoveCmd(a),
		newTaskRmCmd(a),
	)
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(cmd.Context()); err != nil {
				return describe(err)
			}
			c, err := resolveCategory(a.store, category)
			if err != nil {
				return err
			}

			op, err := a.coord.Submit(cmd.Context(), board.CreateTask{Title: args[0], CategoryID: c.ID})
			if err != nil {
				return err
			}
			if err := op.Wait(cmd.Context()); err != nil {
				return err
			}

			// The refetch after a create has replaced the placeholder.
			for _, task := range a.store.TasksInCategory(c.ID) {
				if task.Title == args[0] && !task.Placeholder {
					fmt.Fprintf(cmd.OutOrStdout(), "Created task %s in %s.\n", shortID(task.ID), c.Title)
					return nil
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task in %s.\n", c.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category id or title")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newTaskEditCmd(a *app) *cobra.Command {
	var title, category string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task's title or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" && category == "" {
				return errors.New("nothing to change, pass --title or --category")
			}
			if err := a.signedIn(cmd.Context()); err != nil {
				return describe(err)
			}
			task, err := resolveTask(a.store, args[0])
			if err != nil {
				return err
			}

			update := board.UpdateTask{TaskID: task.ID, Title: task.Title}
			if title != "" {
				update.Title = title
			}
			switch {
			case category != "":
				c, err := resolveCategory(a.store, category)
				if err != nil {
					return err
				}
				update.CategoryID = c.ID
			case task.PrimaryCategoryID != nil:
				update.CategoryID = *task.PrimaryCategoryID
			}

			if err := a.coord.Do(cmd.Context(), update); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s.\n", shortID(task.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&category, "category", "c", "", "new category id or title")
	return cmd
}

// newTaskMoveCmd performs the same gesture as dragging a card to a column.
func newTaskMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move ID CATEGORY",
		Short: "Move a task to another category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(cmd.Context()); err != nil {
				return describe(err)
			}
			task, err := resolveTask(a.store, args[0])
			if err != nil {
				return err
			}
			c, err := resolveCategory(a.store, args[1])
			if err != nil {
				return err
			}

			h := drag.NewHandler(a.coord, a.store)
			h.DragStart(task.ID)
			h.DragOver(c.ID)
			op, err := h.Drop(cmd.Context(), c.ID)
			if err != nil {
				return err
			}
			if op == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %s is already in %s.\n", shortID(task.ID), c.Title)
				return nil
			}
			if err := op.Wait(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved task %s to %s.\n", shortID(task.ID), c.Title)
			return nil
		},
	}
}

func newTaskRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(cmd.Context()); err != nil {
				return describe(err)
			}
			task, err := resolveTask(a.store, args[0])
			if err != nil {
				return err
			}
			if err := a.coord.Do(cmd.Context(), board.DeleteTask{TaskID: task.ID}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s.\n", shortID(task.ID))
			return nil
		},
	}
}

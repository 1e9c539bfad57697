package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/internal/board"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Add, rename and remove categories",
	}
	cmd.AddCommand(
		newCategoryAddCmd(a),
		newCategoryEditCmd(a),
		newCategoryRmCmd(a),
	)
	return cmd
}

func newCategoryAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(cmd.Context()); err != nil {
				return describe(err)
			}
			op, err := a.coord.Submit(cmd.Context(), board.CreateCategory{Title: args[0]})
			if err != nil {
				return err
			}
			if err := op.Wait(cmd.Context()); err != nil {
				return err
			}

			categories := a.store.Categories()
			created := categories[len(categories)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %s (%s).\n", created.Title, shortID(created.ID))
			return nil
		},
	}
}

func newCategoryEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit CATEGORY TITLE",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(cmd.Context()); err != nil {
				return describe(err)
			}
			c, err := resolveCategory(a.store, args[0])
			if err != nil {
				return err
			}
			if err := a.coord.Do(cmd.Context(), board.UpdateCategory{CategoryID: c.ID, Title: args[1]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s.\n", c.Title, args[1])
			return nil
		},
	}
}

func newCategoryRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm CATEGORY",
		Aliases: []string{"delete"},
		Short:   "Delete a category; its tasks become unassigned",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.signedIn(cmd.Context()); err != nil {
				return describe(err)
			}
			c, err := resolveCategory(a.store, args[0])
			if err != nil {
				return err
			}
			if err := a.coord.Do(cmd.Context(), board.DeleteCategory{CategoryID: c.ID}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s.\n", c.Title)
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/session"
)

func newRegisterCmd(a *app) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.Register(cmd.Context(), name, email, password)
			if err != nil {
				return describe(err)
			}
			return a.saveSession(cmd, res)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (min 6 characters)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return describe(err)
			}
			return a.saveSession(cmd, res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sess, err := session.Load(a.sessionPath); err == nil {
				sess.Close()
			}
			if err := session.Remove(a.sessionPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func (a *app) saveSession(cmd *cobra.Command, res *api.AuthResult) error {
	sess := session.New(res.Token, res.User.Email)
	if err := session.Save(a.sessionPath, sess); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", res.User.Email)
	return nil
}

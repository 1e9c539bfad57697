// Package cli implements boardctl, a terminal client for the task board.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskboard/internal/api"
	"taskboard/internal/board"
	"taskboard/internal/coordinator"
	"taskboard/internal/session"
)

// app is the state shared by one command invocation.
type app struct {
	configPath  string
	sessionPath string
	cfg         Config
	log         *logrus.Logger
	client      *api.Client
	store       *board.Store
	coord       *coordinator.Coordinator
}

// NewRootCmd builds the boardctl command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	v := newViper()

	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "Manage your task board from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.setup(cmd.ErrOrStderr())
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", DefaultConfigPath(), "config file")
	flags.StringVar(&a.sessionPath, "session", session.DefaultPath(), "session file")
	flags.String("api-url", defaultAPIURL, "base URL of the task API")
	flags.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	_ = v.BindPFlag("api_url", flags.Lookup("api-url"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newBoardCmd(a),
		newTaskCmd(a),
		newCategoryCmd(a),
	)
	return root
}

// Execute runs boardctl with os.Args.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) setup(stderr io.Writer) {
	a.log = logrus.New()
	a.log.SetOutput(stderr)
	level, err := logrus.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		a.log.Warnf("unknown log level %q, using %s", a.cfg.LogLevel, defaultLogLevel)
		level = logrus.WarnLevel
	}
	a.log.SetLevel(level)

	a.client = api.New(a.cfg.APIURL,
		api.WithTimeout(a.cfg.Timeout),
		api.WithLogger(a.log.WithField("component", "api")),
	)
}

// signedIn loads the saved session and prepares the store and coordinator.
func (a *app) signedIn(ctx context.Context) error {
	sess, err := session.Load(a.sessionPath)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			return errors.New("not signed in, run `boardctl login` first")
		}
		return err
	}
	sess.OnInvalidate(func(reason error) {
		a.log.WithError(reason).Warn("session rejected by server, signing out")
		if err := session.Remove(a.sessionPath); err != nil {
			a.log.WithError(err).Warn("failed to remove session file")
		}
	})
	a.client.SetSession(sess)

	a.store = board.NewStore()
	a.coord = coordinator.New(a.store, a.client,
		coordinator.WithSession(sess),
		coordinator.WithLogger(a.log.WithField("component", "coordinator")),
	)
	return a.coord.Refresh(ctx)
}

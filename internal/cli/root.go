// Package cli implements the buildfs command line, an inspection tool for
// the merged view a build session serves.
package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/jmgilman/go/buildfs/config"
	"github.com/jmgilman/go/buildfs/session"
)

const (
	configFlagName   = "config"
	rootFlagName     = "root"
	backendFlagName  = "backend"
	logLevelFlagName = "log-level"
	logFileFlagName  = "log-file"
	overlayFlagName  = "overlay"
)

const rootLongDescription = `buildfs inspects the layered file system a build session serves:
real files from the configured backend merged with in-memory overlay content.

Configuration is read from --config (YAML) and BUILDFS_* environment
variables, e.g. BUILDFS_BACKEND_TYPE=s3 BUILDFS_BACKEND_S3_BUCKET=sources.`

// app carries state shared by the subcommands of one invocation.
type app struct {
	configPath  string
	overlay     map[string]string
	sessionOpts []session.Option

	cfg  *config.Config
	sess *session.Session
}

// NewRootCmd creates the buildfs command tree. Session options are applied
// to every session a subcommand opens.
func NewRootCmd(opts ...session.Option) *cobra.Command {
	a := &app{sessionOpts: opts}

	cmd := &cobra.Command{
		Use:           "buildfs",
		Short:         "Inspect a layered build file system",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, config.WithFlags(cmd.Flags()))
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.sess == nil {
				return nil
			}
			return a.sess.Close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, configFlagName, "c", "", "path to a YAML config file")
	flags.String(rootFlagName, "", "project root")
	flags.String(backendFlagName, "", "real backend: local, memory or s3")
	flags.String(logLevelFlagName, "", "log level: debug, info, warn or error")
	flags.String(logFileFlagName, "", "write logs to a rotated file instead of stderr")
	flags.StringToStringVar(&a.overlay, overlayFlagName, nil, "overlay content as path=content (can be repeated)")

	cmd.AddCommand(
		newCatCmd(a),
		newLsCmd(a),
		newStatCmd(a),
		newOutputsCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// session opens the build session on first use and writes the overlay
// content given on the command line.
func (a *app) session() (*session.Session, error) {
	if a.sess != nil {
		return a.sess, nil
	}

	sess, err := session.New(a.cfg, a.sessionOpts...)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(a.overlay))
	for name := range a.overlay {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var fault string
		sess.Host().WriteFile(name, a.overlay[name], false, func(message string) { fault = message })
		if fault != "" {
			_ = sess.Close()
			return nil, overlayError(name, fault)
		}
	}

	a.sess = sess
	return sess, nil
}

// Execute runs the buildfs command line and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		return 1
	}
	return 0
}

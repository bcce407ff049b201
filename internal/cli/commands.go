package cli

import (
	"bytes"
	"fmt"
	"io"
	"runtime/debug"
	"strconv"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jmgilman/go/buildfs/internal/pathutil"
)

func newCatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat PATH",
		Short: "Print a file as the bundler sees it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}

			data, err := sess.FileSystem().ReadFileSync(sess.Host().Resolve(args[0]))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [DIR]",
		Short: "List a directory of the merged view",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}

			dir := sess.Host().CurrentDirectory()
			if len(args) == 1 {
				dir = sess.Host().Resolve(args[0])
			}

			st := sess.Store()
			names, err := st.List(dir)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(names))
			for _, name := range names {
				p := pathutil.Join(dir, name)
				kind := "file"
				if isDir, err := st.IsDirectory(p); err == nil && isDir {
					kind = "dir"
				}
				layer := "real"
				if st.IsVirtual(p) {
					layer = "virtual"
				}
				rows = append(rows, []string{name, kind, layer})
			}

			return renderTable(cmd.OutOrStdout(), []string{"Name", "Type", "Layer"}, rows)
		},
	}
}

func newStatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stat PATH...",
		Short: "Show the synthetic stat the host reports for files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(args))
			for _, arg := range args {
				st := sess.Host().Stat(arg)
				if st == nil {
					return platformerrors.WithContext(
						platformerrors.New(platformerrors.CodeNotFound, "no such file or directory"),
						"path", sess.Host().Resolve(arg),
					)
				}
				rows = append(rows, []string{
					sess.Host().Denormalize(sess.Host().Resolve(arg)),
					strconv.FormatInt(st.Size(), 10),
					strconv.FormatInt(st.Blocks, 10),
					strconv.FormatUint(st.Ino, 10),
					strconv.FormatUint(st.Dev, 10),
					st.Mtime.UTC().Format(time.RFC3339),
				})
			}

			return renderTable(cmd.OutOrStdout(), []string{"Path", "Size", "Blocks", "Inode", "Device", "Modified"}, rows)
		},
	}
}

func newOutputsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "outputs",
		Short: "List generated outputs in the overlay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.session()
			if err != nil {
				return err
			}

			for _, p := range sess.GeneratedOutputs() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), p); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  "Prints the configuration after merging defaults, the config file, environment and flags. Credentials are redacted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Args:  cobra.NoArgs,
		// Skip config loading so version works with a broken config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()
			if !ok || info.Main.Version == "" {
				cmd.Println("version: unknown")
				return
			}

			cmd.Println("buildfs version\t", info.Main.Version)
			cmd.Println("go version\t", info.GoVersion)
		},
	}
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()

	_, err := w.Write(buf.Bytes())
	return err
}

func overlayError(name, message string) error {
	return platformerrors.WithContext(
		platformerrors.New(platformerrors.CodeInternal, fmt.Sprintf("failed to write overlay: %s", message)),
		"path", name,
	)
}

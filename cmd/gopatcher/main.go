package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/daimatz/gopatcher/pkg/logging"
)

type globalOptions struct {
	logLevel  string
	logFormat string
	jdk       bool
}

func (g *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(g.logLevel),
		Format: logging.ParseFormat(g.logFormat),
		Output: cmd.ErrOrStderr(),
	})
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "gopatcher",
		Short:         "Locate methods in JVM class corpora by signature",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "log format (text, json)")
	root.PersistentFlags().BoolVar(&g.jdk, "jdk", false, "append java.base.jmod from JAVA_BASE_JMOD or JAVA_HOME to the corpus")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newResolveCmd(g))
	root.AddCommand(newFindCmd(g))
	root.AddCommand(newDumpCmd(g))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gopatcher 0.1.0-dev")
		},
	}
}

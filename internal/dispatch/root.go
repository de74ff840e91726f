// Package dispatch is the standard execution path: the full command tree a
// revbox invocation falls into when the command-server fast path does not
// apply.
//
// Run takes over the process and never returns; command semantics live in
// the engine modules the loader resolves, not here.
package dispatch

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sungur/revbox/internal/engine"
	"github.com/sungur/revbox/internal/log"
	"github.com/sungur/revbox/internal/paths"
	"github.com/sungur/revbox/internal/upgrade"
)

// Version, Commit, and Date are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Options is the immutable bootstrap state threaded into the command tree.
type Options struct {
	// Argv is the full invocation, including the program name.
	Argv []string
	// Layout is the resolved installation layout.
	Layout paths.Layout
	// SearchPath is the library search path assembled at bootstrap.
	SearchPath paths.SearchPath
	// Engine is the embedded engine version.
	Engine engine.Version
	// DeferredLoading reports whether the loader was enabled at bootstrap.
	DeferredLoading bool
}

// Run executes the command tree and terminates the process with the
// command's exit status. It does not return.
func Run(opts Options) {
	root := newRootCmd(opts)
	root.SetArgs(opts.Argv[1:])
	if err := root.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
	os.Exit(0)
}

func newRootCmd(opts Options) *cobra.Command {
	root := &cobra.Command{
		Use:   "revbox <command> [flags]",
		Short: "Scalable distributed revision control",
		Long: `revbox is the command-line front end of a scalable revision-control
system. Run "revbox help" for the command list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.Version = Version
	root.SetVersionTemplate(upgrade.VersionString(Version, Commit, Date) + "\n")

	pf := root.PersistentFlags()
	pf.BoolP("quiet", "q", false, "Suppress all output (exit code only)")
	pf.CountP("debug", "d", "Debug output (-d bootstrap details)")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			log.EnableQuietMode()
		} else if debug, _ := cmd.Flags().GetCount("debug"); debug > 0 {
			log.SetLevel(log.LevelDebug)
		}
	}

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newModulesCmd(opts))
	root.AddCommand(newUpdateCmd())
	return root
}

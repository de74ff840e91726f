package dispatch

import (
	"github.com/spf13/cobra"

	"github.com/sungur/revbox/internal/loader"
	"github.com/sungur/revbox/internal/log"
)

// newModulesCmd lists the library modules reachable from the search path.
// Mostly a support/debugging aid for broken installs.
func newModulesCmd(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:    "debugmodules",
		Short:  "List resolvable library modules",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := loader.Names(opts.SearchPath)
			if err != nil {
				return err
			}
			if opts.DeferredLoading {
				log.Dim("deferred loading: enabled")
			} else {
				log.Dim("deferred loading: disabled")
			}
			for _, name := range names {
				m, err := loader.Resolve(name, opts.SearchPath)
				if err != nil {
					return err
				}
				log.Infof("%s\t%s", m.Name, m.Location)
			}
			return nil
		},
	}
}

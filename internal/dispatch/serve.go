package dispatch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sungur/revbox/internal/cmdserver"
)

// newServeCmd is the slow-path server start. Invocations that meet the
// fast-path argv contract never reach it; everything else (missing marker,
// reordered flags, other transports) lands here and gets full flag parsing.
func newServeCmd(opts Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a persistent command server",
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, _ := cmd.Flags().GetString("cmdserver")
			address, _ := cmd.Flags().GetString("address")
			postexec, _ := cmd.Flags().GetString("daemon-postexec")

			if transport != "chgunix2" {
				return fmt.Errorf("unsupported command server transport %q", transport)
			}
			if address == "" {
				return fmt.Errorf("--address is required for %s", transport)
			}

			cmdserver.Run(cmdserver.Options{
				Address:    address,
				PostExec:   postexec,
				SearchPath: opts.SearchPath,
				Engine:     opts.Engine,
			})
			return nil
		},
	}

	f := cmd.Flags()
	f.String("cmdserver", "chgunix2", "Command server transport")
	f.String("address", "", "Unix socket address to listen on")
	f.String("daemon-postexec", "", "Post-exec action for daemonized servers (chdir:DIR)")
	return cmd
}

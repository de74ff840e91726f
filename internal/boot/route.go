package boot

import (
	"slices"

	"github.com/sungur/revbox/internal/cmdserver"
)

type routeKind int

const (
	routeStandard routeKind = iota
	routeServer
)

// The fast-path invocation is matched by exact argv position:
//
//	revbox serve --cmdserver chgunix2 --address <addr> <arg6> --daemon-postexec chdir:/
//
// Positions 5 (the socket address) and 6 are not part of the contract and
// are never inspected. There is no tolerance for reordering or extra
// flags; anything else goes through full dispatch.
var (
	serverArgvHead = []string{"serve", "--cmdserver", "chgunix2", "--address"}
	serverArgvTail = []string{"--daemon-postexec", "chdir:/"}
)

// route decides between the command-server fast path and standard
// dispatch. All three conditions must hold: both argv slices, and the
// marker variable that only the server's own re-exec ever sets. The
// decision is a pure function of the invocation; it is computed once per
// process and never revisited.
func route(argv []string, lookupEnv func(string) (string, bool)) routeKind {
	if len(argv) < 9 {
		return routeStandard
	}
	if !slices.Equal(argv[1:5], serverArgvHead) {
		return routeStandard
	}
	if !slices.Equal(argv[7:9], serverArgvTail) {
		return routeStandard
	}
	if _, ok := lookupEnv(cmdserver.MarkerEnv); !ok {
		return routeStandard
	}
	return routeServer
}

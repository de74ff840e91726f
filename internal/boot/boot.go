// Package boot prepares the process environment and selects the execution
// path for a revbox invocation. Every run of the tool passes through Run
// exactly once.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/docker/go-units"

	"github.com/sungur/revbox/internal/cmdserver"
	"github.com/sungur/revbox/internal/dispatch"
	"github.com/sungur/revbox/internal/engine"
	"github.com/sungur/revbox/internal/loader"
	"github.com/sungur/revbox/internal/log"
	"github.com/sungur/revbox/internal/paths"
	"github.com/sungur/revbox/internal/textenc"
)

const (
	// PedanticEnv forces strict text decoding for the whole process when
	// set to a truthy value. Legacy compatibility knob; unsupported
	// runtimes skip it silently.
	PedanticEnv = "REVBOX_UNICODE_PEDANTRY"

	// exitBadInstall is the status for a fatal dependency-resolution
	// failure. Reads as -1 on platforms with signed exit status, distinct
	// from normal command failures.
	exitBadInstall = 255
)

// Env is the immutable result of bootstrap, threaded into whichever
// downstream entry takes over. Nothing mutates it after Run builds it.
type Env struct {
	Argv       []string
	Layout     paths.Layout
	SearchPath paths.SearchPath
	Engine     engine.Version
}

// Run resolves the installation layout, prepares the library search path,
// and hands the process to exactly one of the command-server fast path or
// standard dispatch. It does not return: the downstream entry owns the
// process from here, and the only exit Run performs itself is the fatal
// bad-install path.
func Run() {
	layout, err := paths.ResolveLayout()
	if err != nil {
		fmt.Fprintf(os.Stderr, "abort: %v\n", err)
		os.Exit(exitBadInstall)
	}

	if truthy(os.Getenv(PedanticEnv)) {
		// Soft capability: a runtime that cannot honor the request is not
		// an error, the knob just stays off.
		_ = textenc.EnableStrict()
	}

	sp := paths.DefaultSearchPath(layout, os.Getenv)
	if bundle, size, ok := layout.FindBundle(); ok {
		// Bundled deps go to the front so they shadow same-named modules
		// already on the host.
		sp = sp.Prepend(bundle)
		log.Debugf("using dependency bundle %s (%s)", bundle, units.HumanSize(float64(size)))
	}

	env := Env{
		Argv:       os.Args,
		Layout:     layout,
		SearchPath: sp,
		Engine:     engine.Current(),
	}

	if route(env.Argv, os.LookupEnv) == routeServer {
		// Fast path. Deferred loading is skipped entirely; the server must
		// not pay its cost or pick up its side effects.
		cmdserver.Run(cmdserver.Options{
			Address:    env.Argv[5],
			PostExec:   env.Argv[8],
			SearchPath: env.SearchPath,
			Engine:     env.Engine,
		})
		return
	}

	deferred := false
	if env.Engine.SupportsDeferredLoading() {
		switch err := loader.Enable(env.SearchPath); {
		case err == nil:
			deferred = true
		case errors.Is(err, loader.ErrMissingLibraries):
			fmt.Fprintf(os.Stderr, "abort: couldn't find revbox libraries in [%s]\n",
				strings.Join(env.SearchPath, " "))
			fmt.Fprintf(os.Stderr, "(check your install and %s)\n", paths.LibPathEnv)
			os.Exit(exitBadInstall)
		default:
			// A malformed manifest degrades to eager loading.
			log.Debugf("deferred loading unavailable: %v", err)
		}
	}

	dispatch.Run(dispatch.Options{
		Argv:            env.Argv,
		Layout:          env.Layout,
		SearchPath:      env.SearchPath,
		Engine:          env.Engine,
		DeferredLoading: deferred,
	})
}

// truthy interprets the value of an on/off environment knob.
func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

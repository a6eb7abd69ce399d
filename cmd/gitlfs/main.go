// Command gitlfs drives the pointer filter and transfer engine from
// the command line: clean/smudge run the filter directly over
// stdin/stdout (the contract a host VCS invokes them under — wiring
// filter.Install into a specific host VCS's filter registry is that
// integration's job, not this binary's), and pull/push run the
// transfer engine against a remote.
//
// Grounded on the teacher's main.go: an urfave/cli v2 app, a custom
// help template/printer from utils/flags, a UTC date+time logger, and
// an rlimit bump before any work that may hold many file descriptors
// open.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/git-lfs/lfscore/config"
	"github.com/git-lfs/lfscore/filter"
	"github.com/git-lfs/lfscore/logging"
	"github.com/git-lfs/lfscore/metric"
	metricsprom "github.com/git-lfs/lfscore/metric/prometheus"
	"github.com/git-lfs/lfscore/objectstore"
	"github.com/git-lfs/lfscore/pointer"
	"github.com/git-lfs/lfscore/remote"
	"github.com/git-lfs/lfscore/transfer"
	"github.com/git-lfs/lfscore/utils/flags"
	"github.com/git-lfs/lfscore/utils/rlimit"
)

const logFlags = log.Ldate | log.Ltime | log.LUTC

// gitCommit is the version stamp for the binary. Set through linker options.
var gitCommit string

func main() {
	log.SetFlags(logFlags)

	maybeGitCommitMsg := ""
	if len(gitCommit) > 0 && gitCommit != "{STABLE_GIT_COMMIT}" {
		maybeGitCommitMsg = fmt.Sprintf(" from git commit %s", gitCommit)
	}
	log.Printf("gitlfs built with %s%s.", runtime.Version(), maybeGitCommitMsg)

	app := cli.NewApp()
	cli.AppHelpTemplate = flags.Template
	cli.HelpPrinterCustom = flags.HelpPrinter
	app.ExtraInfo = func() map[string]string { return map[string]string{} }

	app.Flags = flags.GetCliFlags()
	app.Commands = []*cli.Command{
		{Name: "clean", Usage: "Run the clean filter over stdin, writing a pointer to stdout.", Action: runClean},
		{Name: "smudge", Usage: "Run the smudge filter over stdin, writing object bytes to stdout.", Action: runSmudge},
		{Name: "pull", Usage: "Fetch the objects given as \"hex:size\" arguments that are missing from the local store.", Action: runPull},
		{Name: "push", Usage: "Upload the objects given as \"hex:size\" arguments that the remote doesn't have yet.", Action: runPush},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal("gitlfs terminated: ", err)
	}
}

func setup(ctx *cli.Context) (*config.Config, logging.Loggers, *objectstore.Store, func(), error) {
	rlimit.Raise()

	cfg, err := config.Get(ctx)
	if err != nil {
		return nil, logging.Loggers{}, nil, nil, err
	}

	loggers := logging.New(cfg.AccessLogLevel)
	store := objectstore.New(cfg.Dir)

	stop := func() {}
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		metricsprom.WrapMetricsEndpoint(mux)
		srv := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				loggers.Error.Printf("lfs: metrics server: %v", err)
			}
		}()
		stop = func() { srv.Close() }
	}

	return cfg, loggers, store, stop, nil
}

func runClean(ctx *cli.Context) error {
	cfg, loggers, store, stop, err := setup(ctx)
	if err != nil {
		return err
	}
	defer stop()

	f := filter.New(store, filter.Config{Track: cfg.Track}, loggers)
	path := ctx.Args().First()
	_, err = f.Apply(filter.Clean, os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("clean %s: %w", path, err)
	}
	return nil
}

func runSmudge(ctx *cli.Context) error {
	cfg, loggers, store, stop, err := setup(ctx)
	if err != nil {
		return err
	}
	defer stop()

	f := filter.New(store, filter.Config{Track: cfg.Track}, loggers)
	path := ctx.Args().First()
	consumed, err := f.Apply(filter.Smudge, os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("smudge %s: %w", path, err)
	}
	if !consumed {
		loggers.Access.Printf("lfs: smudge %s: passthrough", path)
	}
	return nil
}

func runPull(ctx *cli.Context) error {
	cfg, loggers, store, stop, err := setup(ctx)
	if err != nil {
		return err
	}
	defer stop()

	engine, missing, err := buildEngine(ctx, cfg, loggers, store)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		loggers.Access.Printf("lfs: pull: nothing to do")
		return nil
	}

	loggers.Access.Printf("lfs: pull: fetching %d object(s)", len(missing))
	return engine.Pull(context.Background(), missing)
}

func runPush(ctx *cli.Context) error {
	cfg, loggers, store, stop, err := setup(ctx)
	if err != nil {
		return err
	}
	defer stop()

	engine, toPush, err := buildEngine(ctx, cfg, loggers, store)
	if err != nil {
		return err
	}
	if len(toPush) == 0 {
		loggers.Access.Printf("lfs: push: nothing to do")
		return nil
	}

	loggers.Access.Printf("lfs: push: uploading %d object(s)", len(toPush))
	return engine.Push(context.Background(), toPush)
}

// buildEngine wires a transfer.Engine against cfg's remote and returns
// it alongside the pointer set to act on. This CLI has no attached
// working copy to walk, so pull/push take pointer hex digests (plus
// size, "hex:size") as positional arguments rather than deriving them
// from repo.FindTreeMissing / repo.FindToPush; a real host-VCS
// integration would call those directly instead of going through this
// binary's argument parsing.
func buildEngine(ctx *cli.Context, cfg *config.Config, loggers logging.Loggers, store *objectstore.Store) (*transfer.Engine, []pointer.Pointer, error) {
	base, err := remote.ResolveLFSURL(cfg.RemoteURL)
	if err != nil {
		return nil, nil, err
	}

	collector := metric.NoOpCollector()
	if cfg.MetricsAddress != "" {
		collector = metricsprom.NewCollector()
	}

	// Tag the batch and verify requests this invocation makes with a
	// correlation ID, so they can be tied together on the remote's side.
	// Download and upload requests carry only the action's own headers
	// and the User-Agent, so they do not get this ID.
	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	headers["X-Request-Id"] = uuid.NewString()

	engine := &transfer.Engine{
		Client:           http.DefaultClient,
		BaseURL:          base,
		Store:            store,
		AccessToken:      cfg.AccessToken,
		Headers:          headers,
		ConcurrencyLimit: cfg.ConcurrencyLimit,
		UserAgent:        cfg.UserAgent,
		Loggers:          loggers,
		BatchDuration:    collector.NewHistogram("gitlfs_batch_duration_seconds", "Batch API round-trip duration.", nil),
		ObjectsCounter:   collector.NewCounter("gitlfs_objects_transferred_total", "Objects transferred."),
		BytesCounter:     collector.NewCounter("gitlfs_bytes_transferred_total", "Bytes transferred."),
	}

	pointers, err := parsePointerArgs(ctx.Args().Slice())
	if err != nil {
		return nil, nil, err
	}
	return engine, pointers, nil
}

// parsePointerArgs parses "hex:size" positional arguments into
// pointer.Pointer values.
func parsePointerArgs(args []string) ([]pointer.Pointer, error) {
	pointers := make([]pointer.Pointer, 0, len(args))
	for _, arg := range args {
		hexPart, sizePart, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("malformed pointer argument %q, want \"hex:size\"", arg)
		}
		size, err := strconv.ParseInt(sizePart, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed pointer argument %q: %w", arg, err)
		}
		raw, err := hex.DecodeString(hexPart)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("malformed pointer argument %q: bad hex digest", arg)
		}
		var p pointer.Pointer
		copy(p.Hash[:], raw)
		p.Size = size
		pointers = append(pointers, p)
	}
	return pointers, nil
}

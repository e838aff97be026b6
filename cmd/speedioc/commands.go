package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sghaida/speedioc/artifact"
	"github.com/sghaida/speedioc/config"
	"github.com/sghaida/speedioc/di"
	"github.com/sghaida/speedioc/diagnostics"
)

// app carries the global flags and output streams shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer

	cache      string
	configPath string
	envFiles   []string
	noColor    bool
	verbose    bool

	log *zap.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, log: zap.NewNop()}

	root := &cobra.Command{
		Use:           "speedioc",
		Short:         "Inspect and maintain persisted container plans",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			configureColors(a.noColor)
			if a.verbose {
				log, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				a.log = log
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cache, "cache", "", "cache location holding the plans")
	pf.StringVar(&a.configPath, "config", "", "YAML build options file consulted for the cache location")
	pf.StringSliceVar(&a.envFiles, "env-file", nil, ".env files consulted for "+config.EnvCacheLocation)
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		a.listCmd(),
		a.inspectCmd(),
		a.verifyCmd(),
		a.purgeCmd(),
		a.renderCmd(),
		a.serveCmd(),
	)
	return root
}

// cacheDir resolves the cache location from --cache, --config and the
// environment, in that order.
func (a *app) cacheDir() (string, error) {
	dir := a.cache
	if dir == "" {
		opts := di.DefaultOptions()
		if a.configPath != "" {
			var err error
			if opts, err = config.Load(a.configPath); err != nil {
				return "", err
			}
		}
		opts, err := config.FromEnv(opts, a.envFiles...)
		if err != nil {
			return "", err
		}
		dir = opts.CacheLocation
	}
	if dir == "" {
		return "", fmt.Errorf("no cache location: pass --cache or set %s", config.EnvCacheLocation)
	}
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return "", fmt.Errorf("cache location %q is not a directory", dir)
	}
	return dir, nil
}

func (a *app) load(identity string) (string, *artifact.Plan, error) {
	dir, err := a.cacheDir()
	if err != nil {
		return "", nil, err
	}
	p, err := artifact.Load(dir, identity)
	if errors.Is(err, artifact.ErrNotFound) {
		return dir, nil, fmt.Errorf("no plan for %q in %s", identity, dir)
	}
	if err != nil {
		return dir, nil, fmt.Errorf("loading %q: %w", identity, err)
	}
	return dir, p, nil
}

// -----------------------------------------------------------------------------
// list
// -----------------------------------------------------------------------------

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the plans in the cache location",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			dir, err := a.cacheDir()
			if err != nil {
				return err
			}
			ids, err := artifact.List(dir)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				_, _ = fmt.Fprintln(a.stdout, gray("no plans in "+dir))
				return nil
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "IDENTITY\tENTRIES\tACTIVE\tOVERRIDDEN\tSKIPPED\tGENERATED")
			for _, id := range ids {
				p, err := artifact.Load(dir, id)
				if err != nil {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t\t\t\t%v\n", id, red("unreadable"), err)
					continue
				}
				_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
					id, len(p.Entries), len(p.Active()), len(p.Overridden()), len(p.Skipped()),
					p.GeneratedAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

// -----------------------------------------------------------------------------
// inspect
// -----------------------------------------------------------------------------

func (a *app) inspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <identity>",
		Short: "Show every entry of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, p, err := a.load(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				out, err := json.MarshalIndent(p, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.stdout, string(out))
				return err
			}
			a.printPlan(p)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	return cmd
}

func (a *app) printPlan(p *artifact.Plan) {
	w := a.stdout
	_, _ = fmt.Fprintf(w, "%s %s\n", bold("identity:   "), p.Identity)
	_, _ = fmt.Fprintf(w, "%s %s\n", bold("fingerprint:"), p.Fingerprint)
	_, _ = fmt.Fprintf(w, "%s %s\n", bold("generated:  "), p.GeneratedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "%s %d active, %d overridden, %d skipped\n",
		bold("entries:    "), len(p.Active()), len(p.Overridden()), len(p.Skipped()))

	for _, e := range p.Entries {
		_, _ = fmt.Fprintf(w, "\n%s %s %s\n", cyan(fmt.Sprintf("[%d]", e.Index)), e.Key, statusColor(string(e.Status)))
		_, _ = fmt.Fprintf(w, "    identifier:   %s\n", e.Identifier)
		_, _ = fmt.Fprintf(w, "    concrete:     %s\n", e.ConcreteType)
		lifetime := e.Lifetime.String()
		if e.PreCreate {
			lifetime += " (pre-created)"
		}
		_, _ = fmt.Fprintf(w, "    lifetime:     %s\n", lifetime)

		switch e.Status {
		case artifact.StatusOverridden:
			_, _ = fmt.Fprintf(w, "    overridden by [%d]\n", e.OverriddenBy)
			continue
		case artifact.StatusSkipped:
			_, _ = fmt.Fprintf(w, "    skipped:      %s\n", e.SkipReason)
			continue
		}

		_, _ = fmt.Fprintf(w, "    construction: %s %s\n", e.Construction.Kind, e.Construction.Signature)
		for _, m := range e.Members {
			_, _ = fmt.Fprintf(w, "    member:       %s %s via %s\n", m.Kind, m.Name, m.Via)
		}
		if len(e.Dependencies) > 0 {
			_, _ = fmt.Fprintf(w, "    depends on:   %s\n", strings.Join(e.Dependencies, ", "))
		}
	}
}

// -----------------------------------------------------------------------------
// verify
// -----------------------------------------------------------------------------

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [identity]",
		Short: "Check plan checksums and format versions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir, err := a.cacheDir()
			if err != nil {
				return err
			}
			ids := args
			if len(ids) == 0 {
				if ids, err = artifact.List(dir); err != nil {
					return err
				}
			}

			failed := 0
			for _, id := range ids {
				p, err := artifact.Load(dir, id)
				if err != nil {
					failed++
					_, _ = fmt.Fprintf(a.stdout, "%s %s: %v\n", red("FAIL"), id, err)
					continue
				}
				_, _ = fmt.Fprintf(a.stdout, "%s   %s (%d entries)\n", green("ok"), id, len(p.Entries))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d plan(s) failed verification", failed, len(ids))
			}
			return nil
		},
	}
}

// -----------------------------------------------------------------------------
// purge
// -----------------------------------------------------------------------------

func (a *app) purgeCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "purge [identity]",
		Short: "Remove a plan and its rendition",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return errors.New("purge needs an identity or --all")
			}
			dir, err := a.cacheDir()
			if err != nil {
				return err
			}
			ids := args
			if len(ids) == 0 {
				if ids, err = artifact.List(dir); err != nil {
					return err
				}
			}

			removed := 0
			for _, id := range ids {
				paths, err := artifact.Purge(dir, id)
				for _, path := range paths {
					_, _ = fmt.Fprintln(a.stdout, "removed", path)
				}
				removed += len(paths)
				if err != nil {
					return err
				}
			}
			if removed == 0 {
				_, _ = fmt.Fprintln(a.stdout, gray("nothing to remove"))
			}
			a.log.Info("purged", zap.String("dir", dir), zap.Int("files", removed))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "purge every plan in the cache location")
	return cmd
}

// -----------------------------------------------------------------------------
// render
// -----------------------------------------------------------------------------

func (a *app) renderCmd() *cobra.Command {
	var (
		pkg      string
		comments bool
		out      string
	)
	cmd := &cobra.Command{
		Use:   "render <identity>",
		Short: "Print the Go rendition of a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			_, p, err := a.load(args[0])
			if err != nil {
				return err
			}
			src, err := artifact.Render(p, pkg, comments)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = a.stdout.Write(src)
				return err
			}
			if err := os.WriteFile(out, src, 0o644); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.stdout, "wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&pkg, "package", di.DefaultRenditionPackage, "package clause of the rendition")
	cmd.Flags().BoolVar(&comments, "comments", false, "include the diagnostic comment of each entry")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a file instead of stdout")
	return cmd
}

// -----------------------------------------------------------------------------
// serve
// -----------------------------------------------------------------------------

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve <identity>",
		Short: "Serve the diagnostics routes of a plan over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := a.load(args[0])
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Handler:           diagnostics.NewRouter(diagnostics.PlanSource(p), diagnostics.WithLogger(a.log)),
				ReadHeaderTimeout: 5 * time.Second,
			}
			_, _ = fmt.Fprintf(a.stdout, "serving %s on http://%s\n", bold(p.Identity), ln.Addr())
			a.log.Info("serving diagnostics", zap.String("identity", p.Identity), zap.Stringer("addr", ln.Addr()))
			return serve(cmd.Context(), srv, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8081", "listen address")
	return cmd
}

// serve runs srv on ln until ctx is done, then shuts it down.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

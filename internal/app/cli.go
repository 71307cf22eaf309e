package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/go-faster/errors"
	sdkapp "github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/upload"
)

// Execute runs the foodhub command line with args.
func Execute(ctx context.Context, lg *zap.Logger, m *sdkapp.Telemetry, args []string) error {
	root := NewRootCommand(Options{
		MeterProvider:  m.MeterProvider(),
		TracerProvider: m.TracerProvider(),
		Out:            os.Stdout,
	})
	root.SetArgs(args)
	return root.ExecuteContext(zctx.Base(ctx, lg))
}

type cli struct {
	opts Options

	cfgFile string
	apiURL  string
	authURL string
	store   string

	app *App
}

// NewRootCommand builds the foodhub command tree. Dependencies are created
// once the command line is parsed.
func NewRootCommand(opts Options) *cobra.Command {
	c := &cli{opts: opts}
	root := &cobra.Command{
		Use:               "foodhub",
		Short:             "FoodHub storefront client",
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.app != nil {
				c.app.Close()
			}
		},
	}
	if opts.Out != nil {
		root.SetOut(opts.Out)
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "Config file (YAML)")
	pf.StringVar(&c.apiURL, "api-url", "", "REST API base URL")
	pf.StringVar(&c.authURL, "auth-url", "", "Auth service base URL")
	pf.StringVar(&c.store, "store", "", "Store backend: file, memory, redis or postgres")

	root.AddCommand(
		c.authCommand(),
		c.mealsCommand(),
		c.cartCommand(),
		c.checkoutCommand(),
		c.ordersCommand(),
		c.providerCommand(),
		c.adminCommand(),
		c.reviewsCommand(),
		c.doctorCommand(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(c.cfgFile)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.APIURL = c.apiURL
	}
	if c.authURL != "" {
		cfg.AuthURL = c.authURL
	}
	if c.store != "" {
		cfg.Store.Backend = c.store
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	opts := c.opts
	if opts.Logger == nil {
		opts.Logger = zctx.From(cmd.Context())
	}
	if opts.Out == nil {
		opts.Out = cmd.OutOrStdout()
	}
	c.app, err = New(cmd.Context(), cfg, opts)
	return err
}

func (c *cli) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check connectivity to the API, the auth service and the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := c.app.Doctor(cmd.Context())
			if _, err := report.WriteTo(cmd.OutOrStdout()); err != nil {
				return err
			}
			if !report.Healthy() {
				return errors.New("some checks failed")
			}
			return nil
		},
	}
}

// fetchPage loads one page through a list controller and returns the
// settled state.
func fetchPage[T any](ctx context.Context, a *App, name string, src listquery.Source[T], q listquery.Query) (listquery.State[T], error) {
	ctl := listquery.New(src, a.ListOptions(name, q))
	defer ctl.Close()

	ctl.Start()
	s, err := awaitSettled(ctx, ctl)
	if err != nil {
		return s, err
	}
	if s.Failed() {
		return s, s.Err
	}
	return s, nil
}

// awaitSettled blocks until the controller has applied a result or reported
// a failure.
func awaitSettled[T any](ctx context.Context, ctl *listquery.Controller[T]) (listquery.State[T], error) {
	changed := make(chan struct{}, 1)
	cancel := ctl.Subscribe(func(listquery.State[T]) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer cancel()

	for {
		s := ctl.State()
		if s.Phase == listquery.PhaseReady || s.Failed() {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return s, ctx.Err()
		case <-changed:
		}
	}
}

// pageFooter prints the pagination line under a list.
func pageFooter[T any](w io.Writer, s listquery.State[T], noun string) {
	if s.TotalItems == 0 && len(s.Items) == 0 {
		_, _ = fmt.Fprintf(w, "No %s found.\n", noun)
		return
	}
	if s.ShowPagination() {
		_, _ = fmt.Fprintf(w, "Page %d of %d (%d %s)\n", s.Page, s.TotalPages, s.TotalItems, noun)
		return
	}
	_, _ = fmt.Fprintf(w, "%d %s\n", max(s.TotalItems, len(s.Items)), noun)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// resolveImage returns the URL to store for an image flag pair: a file is
// uploaded first, otherwise the URL is used as given.
func (c *cli) resolveImage(ctx context.Context, file, url string) (string, error) {
	if file == "" {
		return url, nil
	}
	u, err := upload.File(ctx, c.app.Uploader, file)
	if err != nil {
		return "", errors.Wrap(err, "upload image")
	}
	return u, nil
}

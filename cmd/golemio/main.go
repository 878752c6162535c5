package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/samvad-hq/golemio-go/internal/app"
	"github.com/samvad-hq/golemio-go/internal/config"
	"github.com/samvad-hq/golemio-go/internal/logger"
	"github.com/samvad-hq/golemio-go/pkg/golemio"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cli carries the connection flags shared by every subcommand.
type cli struct {
	key        string
	staging    bool
	insecure   bool
	apiVersion string
	host       string
	timeout    time.Duration

	cfg    *config.ClientConfig
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stderr: stderr}

	root := &cobra.Command{
		Use:           "golemio",
		Short:         "Query the Golemio PID transit API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&c.key, "key", "", "access key (default $GOLEMIO_ACCESS_KEY)")
	flags.BoolVar(&c.staging, "staging", false, "use the staging host")
	flags.BoolVar(&c.insecure, "insecure", false, "use http instead of https")
	flags.StringVar(&c.apiVersion, "api-version", "", "API version path prefix (default $GOLEMIO_API_VERSION or v2)")
	flags.DurationVar(&c.timeout, "timeout", 0, "per-request timeout (default $GOLEMIO_TIMEOUT_SECONDS)")
	flags.StringVar(&c.host, "host", "", "override the API host")
	_ = flags.MarkHidden("host")

	root.AddCommand(
		c.servicesCmd(),
		c.routesCmd(),
		c.routeCmd(),
		c.tripsCmd(),
		c.tripCmd(),
		c.shapeCmd(),
		c.stopsCmd(),
		c.stopCmd(),
		c.stopTimesCmd(),
		c.vehiclesCmd(),
		c.departuresCmd(),
		c.infoTextsCmd(),
		c.feedCmd(),
	)
	return root
}

// load fills unset flags from configuration.
func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if !flags.Changed("key") {
		c.key = cfg.AccessKey
	}
	if !flags.Changed("staging") {
		c.staging = cfg.Staging
	}
	if !flags.Changed("insecure") {
		c.insecure = cfg.Insecure
	}
	if !flags.Changed("api-version") {
		c.apiVersion = cfg.APIVersion
	}
	if !flags.Changed("timeout") {
		c.timeout = cfg.RequestTimeout
	}
	if !flags.Changed("host") {
		c.host = cfg.Host
	}

	cfg.AccessKey = c.key
	cfg.Staging = c.staging
	cfg.Insecure = c.insecure
	cfg.APIVersion = c.apiVersion
	cfg.RequestTimeout = c.timeout
	cfg.Host = c.host
	c.cfg = cfg
	return nil
}

func (c *cli) client() *golemio.Client {
	return app.NewClient(c.cfg, logger.New(c.cfg.LogLevel, zapcore.AddSync(c.stderr)))
}

// jsonRun adapts a client call to a cobra RunE that prints indented JSON.
func (c *cli) jsonRun(call func(ctx context.Context, gc *golemio.Client, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		gc := c.client()
		defer gc.Close()

		out, err := call(cmd.Context(), gc, args)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
}

// Command epias-cli fetches EPİAŞ transparency data and writes it as CSV or
// JSON, or serves it over HTTP.
//
// Usage:
//
//	epias-cli <command> [flags]
//
// Credentials and endpoints come from EPIAS_* environment variables or the
// YAML file given with -config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/epias-client/internal/config"
	"github.com/Sternrassler/epias-client/pkg/auth"
	"github.com/Sternrassler/epias-client/pkg/client"
	"github.com/Sternrassler/epias-client/pkg/epias"
	"github.com/Sternrassler/epias-client/pkg/fetch"
	"github.com/Sternrassler/epias-client/pkg/logging"
	"github.com/rs/zerolog/log"
)

const usage = `usage: epias-cli <command> [flags]

commands:
  orgs                 organizations active in the range
  plants               power plant list
  uevcbs               settlement units of -org
  ptf                  day-ahead market clearing price
  smf                  system marginal price
  consumption          consumption quantities (-province)
  bilateral            bilateral contracts pivoted by side and type
  generation           realtime generation (-org or -orgs, -plant)
  kgup                 final daily production plan (-org or -orgs)
  clearing             day-ahead matched quantities of -entity
  price-stats          PTF summary statistics
  generation-summary   generation of -org aggregated by type
  overview             every part of -org's overview with row counts
  dashboard            market summary panels of the landing page
  serve                HTTP server exposing /health, /metrics and /data/<command>
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err != errUsage {
			fmt.Fprintf(os.Stderr, "epias-cli: %v\n", err)
		}
		os.Exit(1)
	}
}

// options are the flags shared by every command.
type options struct {
	configPath string
	start      string
	end        string
	org        int64
	orgs       string
	plant      int64
	province   int64
	entity     int64
	format     string
	output     string
	addr       string
}

func (o options) dateRange() (epias.DateRange, error) {
	if o.start == "" {
		return epias.DateRange{}, fmt.Errorf("%w: -start is required", errUsage)
	}
	start, err := time.ParseInLocation(epias.DateLayout, o.start, epias.MarketLocation)
	if err != nil {
		return epias.DateRange{}, fmt.Errorf("%w: -start: %v", errUsage, err)
	}
	end := start
	if o.end != "" {
		if end, err = time.ParseInLocation(epias.DateLayout, o.end, epias.MarketLocation); err != nil {
			return epias.DateRange{}, fmt.Errorf("%w: -end: %v", errUsage, err)
		}
	}
	return epias.DayRange(start, end), nil
}

func (o options) orgIDs() ([]int64, error) {
	if o.orgs == "" {
		if o.org == 0 {
			return nil, nil
		}
		return []int64{o.org}, nil
	}
	var ids []int64
	for _, part := range strings.Split(o.orgs, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: -orgs: invalid id %q", errUsage, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func optionalID(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

func parseFlags(name string, args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", os.Getenv(config.EnvConfigPath), "YAML config file")
	fs.StringVar(&o.start, "start", "", "first day, YYYY-MM-DD")
	fs.StringVar(&o.end, "end", "", "last day, YYYY-MM-DD (default: -start)")
	fs.Int64Var(&o.org, "org", 0, "organization id")
	fs.StringVar(&o.orgs, "orgs", "", "comma-separated organization ids for fan-out")
	fs.Int64Var(&o.plant, "plant", 0, "power plant id")
	fs.Int64Var(&o.province, "province", 0, "province id")
	fs.Int64Var(&o.entity, "entity", 0, "entity id for clearing quantities")
	fs.StringVar(&o.format, "format", "csv", "output format: csv or json")
	fs.StringVar(&o.output, "o", "", "output file (default stdout)")
	fs.StringVar(&o.addr, "addr", ":8080", "listen address for serve")
	if err := fs.Parse(args); err != nil {
		return o, fmt.Errorf("%w: %v", errUsage, err)
	}
	if o.format != "csv" && o.format != "json" {
		return o, fmt.Errorf("%w: -format must be csv or json, got %q", errUsage, o.format)
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	name := args[0]
	if _, ok := commands[name]; !ok && name != "serve" {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", name, usage)
		return errUsage
	}

	opts, err := parseFlags(name, args[1:], stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadAndValidate(opts.configPath)
	if err != nil {
		return err
	}
	logCfg := cfg.LoggingConfig()
	logCfg.Output = stderr
	logging.Setup(logCfg)

	fetcher, err := newFetcher(cfg)
	if err != nil {
		return err
	}

	if name == "serve" {
		return serve(ctx, opts.addr, fetcher)
	}

	result, err := execute(ctx, fetcher, name, opts)
	if err != nil {
		return err
	}

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return write(out, opts.format, result)
}

func newFetcher(cfg *config.Config) (*fetch.Fetcher, error) {
	tickets, err := auth.New(cfg.AuthConfig())
	if err != nil {
		return nil, fmt.Errorf("create ticket manager: %w", err)
	}
	c, err := client.New(cfg.ClientConfig(), tickets)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	log.Info().
		Str("component", "cli").
		Str("environment", cfg.Environment).
		Str("base_url", cfg.API.BaseURL).
		Msg("EPİAŞ client ready")
	return fetch.New(c, cfg.FetcherConfig())
}

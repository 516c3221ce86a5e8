// Command catalogctl browses the product catalog from a terminal using the
// same listing state machine as the storefront.
//
//	catalogctl --query phone --pages 2 --sort price_asc --min-price 100
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/sefaaycicek/fakestore/internal/catalog"
	"github.com/sefaaycicek/fakestore/internal/config"
	"github.com/sefaaycicek/fakestore/internal/domain"
	"github.com/sefaaycicek/fakestore/internal/listing"
	"github.com/sefaaycicek/fakestore/pkg/httpclient"
	"github.com/sefaaycicek/fakestore/pkg/logger"
)

const (
	baseURLFlag  = "base-url"
	pageSizeFlag = "page-size"
	pagesFlag    = "pages"
	queryFlag    = "query"
	sortFlag     = "sort"
	minPriceFlag = "min-price"
	maxPriceFlag = "max-price"
	categoryFlag = "category"
	timeoutFlag  = "timeout"
	jsonFlag     = "json"
	logLevelFlag = "log-level"
)

// options are the parsed command line flags.
type options struct {
	BaseURL    string
	PageSize   int
	Pages      int
	Query      string
	Sort       domain.SortSpec
	Filter     domain.FilterSpec
	Timeout    time.Duration
	MaxRetries int
	JSON       bool
	LogLevel   string
}

func main() {
	defaults, err := config.LoadCatalog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	opts, err := parseFlags(os.Args[1:], defaults)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.NewWithWriter("catalogctl", opts.LogLevel, os.Stderr)
	if err := run(ctx, opts, os.Stdout, log); err != nil {
		log.Error("catalogctl failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, defaults *config.CatalogConfig) (options, error) {
	fs := pflag.NewFlagSet("catalogctl", pflag.ContinueOnError)
	baseURL := fs.StringP(baseURLFlag, "u", defaults.BaseURL, "catalog base URL")
	pageSize := fs.IntP(pageSizeFlag, "n", defaults.PageSize, "products per page")
	pages := fs.IntP(pagesFlag, "p", 1, "number of pages to load")
	query := fs.StringP(queryFlag, "q", "", "search text")
	sortName := fs.StringP(sortFlag, "s", domain.SortRecommended.String(), "sort: recommended, title_asc, title_desc, price_asc, price_desc")
	minPrice := fs.String(minPriceFlag, "", "lowest effective price, inclusive")
	maxPrice := fs.String(maxPriceFlag, "", "highest effective price, inclusive")
	categories := fs.StringSliceP(categoryFlag, "c", nil, "category slug; repeatable")
	timeout := fs.Duration(timeoutFlag, defaults.Timeout, "per request timeout")
	asJSON := fs.Bool(jsonFlag, false, "print the final state as JSON")
	logLevel := fs.String(logLevelFlag, "warn", "log level")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	opts := options{
		BaseURL:    *baseURL,
		PageSize:   *pageSize,
		Pages:      *pages,
		Query:      *query,
		Timeout:    *timeout,
		MaxRetries: defaults.MaxRetries,
		JSON:       *asJSON,
		LogLevel:   *logLevel,
	}

	var errs []error
	if opts.Pages < 1 {
		errs = append(errs, fmt.Errorf("--%s: must be at least 1", pagesFlag))
	}
	if opts.PageSize < 1 || opts.PageSize > 100 {
		errs = append(errs, fmt.Errorf("--%s: must be between 1 and 100", pageSizeFlag))
	}
	sort, err := domain.ParseSort(*sortName)
	if err != nil {
		errs = append(errs, fmt.Errorf("--%s: %w", sortFlag, err))
	}
	opts.Sort = sort

	opts.Filter.Categories = *categories
	if opts.Filter.MinPrice, err = parsePrice(*minPrice); err != nil {
		errs = append(errs, fmt.Errorf("--%s: %w", minPriceFlag, err))
	}
	if opts.Filter.MaxPrice, err = parsePrice(*maxPrice); err != nil {
		errs = append(errs, fmt.Errorf("--%s: %w", maxPriceFlag, err))
	}
	if lo, hi := opts.Filter.MinPrice, opts.Filter.MaxPrice; lo != nil && hi != nil && lo.GreaterThan(*hi) {
		errs = append(errs, fmt.Errorf("--%s must not exceed --%s", minPriceFlag, maxPriceFlag))
	}

	return opts, errors.Join(errs...)
}

func parsePrice(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("price must not be negative")
	}
	return &d, nil
}

// run loads the requested pages through a listing controller, applies the
// filter and sort, and prints the result.
func run(ctx context.Context, opts options, out io.Writer, log *slog.Logger) error {
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = opts.Timeout
	httpCfg.MaxRetries = opts.MaxRetries
	client := catalog.NewHTTPClient(opts.BaseURL, httpclient.New(httpCfg), log)

	ctrl := listing.NewController(client, listing.Options{
		PageSize:    opts.PageSize,
		QuietPeriod: time.Millisecond,
		Logger:      log,
	})
	defer ctrl.Close()

	states, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	var state domain.ListingState
	var err error
	if opts.Query != "" {
		if err := ctrl.Search(opts.Query); err != nil {
			return err
		}
		state, err = waitSettled(ctx, states, func(s domain.ListingState) bool { return s.Query == opts.Query })
	} else {
		if err := ctrl.LoadInitial(ctx); err != nil {
			return err
		}
		state = ctrl.State()
	}
	if err != nil {
		return err
	}

	for page := 1; page < opts.Pages && state.Phase == domain.PhaseSuccess && state.CanPaginate; page++ {
		if err := ctrl.LoadNextPage(ctx); err != nil {
			return err
		}
		state = ctrl.State()
	}
	if state.Err != nil {
		return fmt.Errorf("%s error: %s", state.Err.Kind, state.Err.Message)
	}

	if err := ctrl.ApplyFilter(opts.Filter); err != nil {
		return err
	}
	if err := ctrl.SetSort(opts.Sort); err != nil {
		return err
	}
	state = ctrl.State()

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}
	return printTable(out, state)
}

// waitSettled waits for a snapshot that satisfies match and is no longer
// loading.
func waitSettled(ctx context.Context, states <-chan domain.ListingState, match func(domain.ListingState) bool) (domain.ListingState, error) {
	for {
		select {
		case <-ctx.Done():
			return domain.ListingState{}, ctx.Err()
		case s, ok := <-states:
			if !ok {
				return domain.ListingState{}, listing.ErrClosed
			}
			if match(s) && (s.Phase == domain.PhaseSuccess || s.Phase == domain.PhaseError) {
				return s, nil
			}
		}
	}
}

func printTable(out io.Writer, state domain.ListingState) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tEFFECTIVE")
	for _, p := range state.Products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			p.ID, p.Title, p.Category, p.Price.StringFixed(2), p.EffectivePrice().StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	total := "?"
	if state.Total != nil {
		total = fmt.Sprint(*state.Total)
	}
	_, err := fmt.Fprintf(out, "\n%d shown, %d loaded, %s in catalog, sort: %s\n",
		len(state.Products), state.Accumulated, total, state.Sort.Label())
	return err
}

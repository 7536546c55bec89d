// Command fetcch runs the storefront payment request flow: an HTTP
// storefront, a one-shot buy from the terminal, or an MCP tool server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"github.com/mark3labs/fetcch-go"
	"github.com/mark3labs/fetcch-go/checkout"
	"github.com/mark3labs/fetcch-go/config"
	fetcchhttp "github.com/mark3labs/fetcch-go/http"
	fetcchchi "github.com/mark3labs/fetcch-go/http/chi"
	fetcchgin "github.com/mark3labs/fetcch-go/http/gin"
	mcpserver "github.com/mark3labs/fetcch-go/mcp/server"
	"github.com/mark3labs/fetcch-go/metrics"
	"github.com/mark3labs/fetcch-go/notify"
	"github.com/mark3labs/fetcch-go/poller"
	"github.com/mark3labs/fetcch-go/retry"
)

const version = "0.1.0"

func main() {
	// Load environment variables from .env file if present
	if err := config.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "buy":
		err = runBuy(os.Args[2:])
	case "status":
		err = runStatus(os.Args[2:])
	case "chains":
		err = runChains(os.Args[2:])
	case "mcp":
		err = runMCP(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("fetcch - Fetcch payment request storefront")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fetcch serve [flags]   - Run the storefront HTTP API")
	fmt.Println("  fetcch buy [flags]     - Request a payment and wait for it to settle")
	fmt.Println("  fetcch status [flags]  - Query the status of a payment request")
	fmt.Println("  fetcch chains          - List supported chains")
	fmt.Println("  fetcch mcp [flags]     - Serve payment request tools over MCP stdio")
	fmt.Println()
	fmt.Println("Run 'fetcch <command> --help' for more information.")
	fmt.Println("The API secret key is read from FETCCH_SECRET_KEY.")
}

// env bundles what every command needs.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	sync   func()
	client *fetcchhttp.RequestClient
}

// setup parses the common flags and loads configuration. Logs go to stderr,
// which keeps stdout free for the MCP stdio transport.
func setup(fs *flag.FlagSet, args []string) (*env, error) {
	configPath := fs.String("config", "", "YAML configuration file")
	apiURL := fs.String("api", "", "Fetcch API base URL (overrides config)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error")
	verbose := fs.Bool("verbose", false, "Human readable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	zl, logger, err := newLogger(cfg.Log.Level, *verbose)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	return &env{
		cfg:    cfg,
		logger: logger,
		sync:   func() { _ = zl.Sync() },
	}, nil
}

func (e *env) newClient(recorder metrics.Recorder, extra ...fetcchhttp.ClientOption) error {
	opts := append([]fetcchhttp.ClientOption{
		fetcchhttp.WithTimeout(e.cfg.API.Timeout),
		fetcchhttp.WithLogger(e.logger),
		fetcchhttp.WithMetrics(recorder),
	}, extra...)
	client, err := fetcchhttp.NewRequestClient(e.cfg.API.BaseURL, e.cfg.API.SecretKey, opts...)
	if err != nil {
		return err
	}
	e.client = client
	return nil
}

func (e *env) checkoutOptions(recorder metrics.Recorder) []checkout.Option {
	return []checkout.Option{
		checkout.WithReceiver(e.cfg.Store.Receiver),
		checkout.WithLabel(e.cfg.Store.Label),
		checkout.WithPollConfig(e.cfg.PollConfig()),
		checkout.WithMetrics(recorder),
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (overrides config)")
	router := fs.String("router", "chi", "HTTP router: chi or gin")
	allowOrigin := fs.String("allow-origin", "", "CORS allowed origin (chi router only)")
	withMCP := fs.Bool("mcp", true, "Serve MCP tools at /mcp")

	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.sync()
	if *addr != "" {
		e.cfg.Server.Addr = *addr
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewPrometheusRecorder(reg)

	if err := e.newClient(recorder); err != nil {
		return err
	}

	price, _ := e.cfg.Price()
	chains, _ := e.cfg.Chains()

	store, err := fetcchhttp.NewStorefront(e.client,
		fetcchhttp.WithChains(chains),
		fetcchhttp.WithBasePrice(price),
		fetcchhttp.WithStoreLogger(e.logger),
		fetcchhttp.WithCheckoutOptions(e.checkoutOptions(recorder)...),
	)
	if err != nil {
		return err
	}
	defer store.Close()

	var handler http.Handler
	switch *router {
	case "chi":
		handler = fetcchchi.NewRouter(store, fetcchchi.Config{Gatherer: reg, AllowOrigin: *allowOrigin, Logger: e.logger})
	case "gin":
		gin.SetMode(gin.ReleaseMode)
		engine := gin.New()
		engine.Use(gin.Recovery())
		fetcchgin.Register(engine, store, reg)
		handler = engine
	default:
		return fmt.Errorf("unknown router %q", *router)
	}

	if *withMCP {
		mcpSrv, err := e.newMCPServer(chains, price)
		if err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/mcp", mcpSrv.Handler())
		mux.Handle("/", handler)
		handler = mux
	}

	srv := &http.Server{
		Addr:              e.cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("storefront listening", "addr", srv.Addr, "router", *router, "api", e.cfg.API.BaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	e.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runBuy(args []string) error {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	payer := fs.String("payer", "", "Payer Fetcch ID, e.g. bob@fetcch (required)")
	chainID := fs.Int("chain", fetcch.DefaultChain().ID, "Chain registry id (see 'fetcch chains')")
	message := fs.String("message", "", "Message attached to the request")
	priceFlag := fs.String("price", "", "Price in native token units (overrides config)")
	noWait := fs.Bool("no-wait", false, "Return after the request is created")

	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.sync()

	if err := e.newClient(metrics.NoopRecorder{}); err != nil {
		return err
	}

	price, _ := e.cfg.Price()
	if *priceFlag != "" {
		if price, err = fetcch.ParsePrice(*priceFlag); err != nil {
			return err
		}
	}
	chains, _ := e.cfg.Chains()

	opts := append(e.checkoutOptions(metrics.NoopRecorder{}),
		checkout.WithChains(chains),
		checkout.WithPrice(price),
		checkout.WithLogger(e.logger),
	)
	controller, err := checkout.New(e.client, notify.NewLog(e.logger), opts...)
	if err != nil {
		return err
	}
	defer controller.Close()

	controller.SetPayer(*payer)
	controller.SetMessage(*message)
	if err := controller.SelectChain(*chainID); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	receipt, err := controller.BuyNow(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Requested %s from %s (request %s, %s base units)\n",
		fetcch.FormatAmount(receipt.Price, receipt.Chain), *payer, receipt.RequestID, receipt.Amount)

	if *noWait {
		return nil
	}

	done := make(chan struct{})
	go func() {
		controller.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	snap := controller.Snapshot()
	switch snap.State {
	case checkout.StateSettled:
		fmt.Printf("Settled: %s\n", snap.TransactionURL)
		return nil
	default:
		return fmt.Errorf("request %s %s: %s", snap.RequestID, snap.State, snap.Error)
	}
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	id := fs.Int64("id", 0, "Payment request id (required)")
	wait := fs.Bool("wait", false, "Poll until the request settles")

	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.sync()

	if *id <= 0 {
		fs.PrintDefaults()
		return errors.New("--id is required")
	}
	if err := e.newClient(metrics.NoopRecorder{}, fetcchhttp.WithStatusRetry(retry.DefaultConfig)); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var status *fetcch.RequestStatus
	if *wait {
		p := poller.New(e.client, poller.WithConfig(e.cfg.PollConfig()), poller.WithLogger(e.logger))
		status, err = p.Watch(ctx, fetcch.RequestID(*id))
	} else {
		status, err = e.client.GetStatus(ctx, fetcch.RequestID(*id))
	}
	if err != nil {
		return err
	}

	if status.Executed {
		fmt.Printf("Request %d settled: %s\n", *id, status.TransactionHash)
	} else {
		fmt.Printf("Request %d pending\n", *id)
	}
	return nil
}

func runChains(args []string) error {
	fs := flag.NewFlagSet("chains", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSYMBOL\tDECIMALS\tTOKEN")
	for _, c := range fetcch.Chains() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", c.ID, c.Name, c.Type, c.Symbol, c.Decimals, c.DisplayToken())
	}
	return w.Flush()
}

func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)

	e, err := setup(fs, args)
	if err != nil {
		return err
	}
	defer e.sync()

	if err := e.newClient(metrics.NoopRecorder{}); err != nil {
		return err
	}

	price, _ := e.cfg.Price()
	chains, _ := e.cfg.Chains()
	srv, err := e.newMCPServer(chains, price)
	if err != nil {
		return err
	}
	return srv.ServeStdio()
}

func (e *env) newMCPServer(chains []fetcch.ChainDescriptor, price decimal.Decimal) (*mcpserver.Server, error) {
	cfg := mcpserver.DefaultConfig()
	cfg.Receiver = e.cfg.Store.Receiver
	cfg.Label = e.cfg.Store.Label
	cfg.Price = price
	cfg.Chains = chains
	cfg.Poll = e.cfg.PollConfig()
	cfg.Logger = e.logger
	return mcpserver.NewServer("fetcch", version, e.client, cfg)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stockboard/internal/app"
	"stockboard/internal/config"
	"stockboard/internal/dashboard"
	"stockboard/internal/format"
	"stockboard/internal/util"
	"stockboard/internal/watchlist"
	"stockboard/internal/web"
	"stockboard/pkg/marketapi"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: stockboard-cli <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version                     Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  status [-addr host:port]    Probe stockboard-server gRPC health\n")
	fmt.Fprintf(os.Stderr, "  quote SYMBOL                Show the latest quote\n")
	fmt.Fprintf(os.Stderr, "  company SYMBOL              Show the company profile\n")
	fmt.Fprintf(os.Stderr, "  search QUERY                Search symbols\n")
	fmt.Fprintf(os.Stderr, "  news [SYMBOL]               Show market or stock news\n")
	fmt.Fprintf(os.Stderr, "  crypto                      Show tracked crypto prices\n")
	fmt.Fprintf(os.Stderr, "  watchlist [list|add SYMBOL|remove SYMBOL|import FILE]\n")
	fmt.Fprintf(os.Stderr, "  archive [-days N] [SYMBOL...] Save daily candles and today's news to parquet\n")
	fmt.Fprintf(os.Stderr, "                              defaulting to the watchlist, then archived symbols\n")
	fmt.Fprintf(os.Stderr, "\n")
}

func main() {
	flag.Usage = usage
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "version" {
		fmt.Printf("stockboard-cli %s\n", version)
		return
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		fatalf("loading config: %v", err)
	}
	// stdout is for command output.
	logger := util.NewLoggerTo(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "status":
		err = runStatus(ctx, cfg, args)
	case "quote", "company", "search", "news", "crypto":
		client := app.NewClient(cfg)
		err = runQuery(ctx, client, app.NewNews(cfg, client, logger), cmd, args)
	case "watchlist":
		var a *app.App
		if a, err = app.New(ctx, cfg, logger); err == nil {
			err = runWatchlist(ctx, a.Watchlist, args)
			a.Close()
		}
	case "archive":
		var a *app.App
		if a, err = app.New(ctx, cfg, logger); err == nil {
			err = runArchive(ctx, a, args)
			a.Close()
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fatalf("%s: %v", cmd, err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runStatus(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	addr := fs.String("addr", cfg.Server.GRPCAddr(), "gRPC health address")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	status, err := web.Check(ctx, *addr, web.HealthService)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", *addr, status)
	return nil
}

func runQuery(ctx context.Context, c *marketapi.Client, ns dashboard.NewsSource, cmd string, args []string) error {
	needArg := func() (string, error) {
		if len(args) < 1 {
			return "", fmt.Errorf("usage: stockboard-cli %s ARG", cmd)
		}
		return strings.Join(args, " "), nil
	}

	switch cmd {
	case "quote":
		sym, err := needArg()
		if err != nil {
			return err
		}
		sym = strings.ToUpper(sym)
		q, err := c.Quote(ctx, sym)
		if err != nil {
			return err
		}
		v := dashboard.NewQuoteView(sym, q)
		fmt.Printf("%s  %s  %s\n", sym, v.PriceText, v.ChangeText)
		fmt.Printf("  open %s  high %s  low %s  prev close %s\n", v.OpenText, v.HighText, v.LowText, v.PrevCloseText)

	case "company":
		sym, err := needArg()
		if err != nil {
			return err
		}
		co, err := c.Company(ctx, strings.ToUpper(sym))
		if msg := marketapi.UnsupportedMessage(err); msg != "" {
			fmt.Printf("Exchange Not Supported: %s\n", msg)
			return nil
		}
		if err != nil {
			return err
		}
		p := dashboard.StockPage{Company: co}
		fmt.Println(p.CompanyLine())
		if co.Industry != "" {
			fmt.Printf("  industry: %s\n", co.Industry)
		}
		if co.WebURL != "" {
			fmt.Printf("  web: %s\n", co.WebURL)
		}

	case "search":
		q, err := needArg()
		if err != nil {
			return err
		}
		resp, err := c.Search(ctx, q)
		if err != nil {
			return err
		}
		for _, r := range resp.Results {
			fmt.Printf("%-14s %-40s %s\n", r.Label(), r.Description, r.Type)
		}
		fmt.Printf("%s results\n", format.Int(int64(len(resp.Results))))

	case "news":
		var (
			items []marketapi.NewsItem
			err   error
		)
		if len(args) > 0 {
			items, err = ns.StockNews(ctx, strings.ToUpper(args[0]))
		} else {
			items, err = ns.MarketNews(ctx)
		}
		if err != nil {
			return err
		}
		for _, n := range dashboard.NewNewsView(items, 20, time.Local) {
			fmt.Printf("%-10s %s\n           %s  %s\n", n.Date, n.Headline, n.Source, n.URL)
		}

	case "crypto":
		list, err := c.CryptoList(ctx)
		if err != nil {
			return err
		}
		for _, a := range list.Cryptos {
			v := dashboard.NewCryptoView(a)
			fmt.Printf("%-12s %-12s %14s  %s\n", v.Name, v.DisplaySymbol, v.PriceText, v.ChangeText)
		}
	}
	return nil
}

func runWatchlist(ctx context.Context, s watchlist.Store, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "list":
	case "add":
		if len(args) == 0 {
			return errors.New("usage: stockboard-cli watchlist add SYMBOL...")
		}
		for _, sym := range args {
			if err := s.Add(ctx, sym); err != nil {
				if errors.Is(err, watchlist.ErrDuplicate) {
					fmt.Println(err)
					continue
				}
				return err
			}
		}
	case "remove", "rm":
		if len(args) == 0 {
			return errors.New("usage: stockboard-cli watchlist remove SYMBOL...")
		}
		for _, sym := range args {
			if err := s.Remove(ctx, sym); err != nil {
				return err
			}
		}
	case "import":
		if len(args) != 1 {
			return errors.New("usage: stockboard-cli watchlist import FILE")
		}
		symbols, err := watchlist.ImportYAML(args[0])
		if err != nil {
			return err
		}
		added, err := watchlist.AddAll(ctx, s, symbols)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d of %d symbols\n", len(added), len(symbols))
	default:
		return fmt.Errorf("unknown watchlist command %q", sub)
	}

	symbols, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(symbols) == 0 {
		fmt.Println("Your watchlist is empty")
		return nil
	}
	fmt.Println(strings.Join(symbols, "\n"))
	return nil
}

func runArchive(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	days := fs.Int("days", 365, "days of daily candles to fetch")
	fs.Parse(args)

	symbols := fs.Args()
	if len(symbols) == 0 {
		var err error
		if symbols, err = a.Watchlist.List(ctx); err != nil {
			return err
		}
	}
	if len(symbols) == 0 {
		var err error
		if symbols, err = a.Archive.ListSymbols(); err != nil {
			return err
		}
	}
	if len(symbols) == 0 {
		return errors.New("no symbols given, the watchlist is empty and nothing is archived")
	}

	from, to := dashboard.CandleWindow(time.Now(), *days)
	for _, sym := range symbols {
		sym = strings.ToUpper(sym)
		c, err := a.Client.Candles(ctx, sym, marketapi.DefaultResolution, from, to)
		if err != nil {
			a.Log.Warn("fetching candles", "symbol", sym, "error", err)
			continue
		}
		if !c.OK() || c.Mock {
			a.Log.Info("skipping candles", "symbol", sym, "status", c.S, "mock", c.Mock)
			continue
		}
		n, err := a.Archive.WriteCandles(sym, c)
		if err != nil {
			return fmt.Errorf("archiving %s: %w", sym, err)
		}
		fmt.Printf("%-8s %s candles (%s stored)\n", sym, format.Int(int64(c.Len())), format.Int(int64(n)))
	}

	items, err := a.News.MarketNews(ctx)
	if err != nil {
		a.Log.Warn("fetching market news", "error", err)
		return nil
	}
	n, err := a.Archive.WriteNews(time.Now(), items)
	if err != nil {
		return fmt.Errorf("archiving news: %w", err)
	}
	fmt.Printf("news: %s articles (%s stored)\n", format.Int(int64(len(items))), format.Int(int64(n)))
	return nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"github.com/angelmondragon/shopcart/internal/notifications"
	"github.com/angelmondragon/shopcart/pkg/cartclient"
	"github.com/angelmondragon/shopcart/pkg/cartstate"
	"github.com/angelmondragon/shopcart/pkg/config"
	"github.com/angelmondragon/shopcart/pkg/logger"
	"github.com/angelmondragon/shopcart/pkg/metrics"
	"github.com/angelmondragon/shopcart/pkg/money"
	"github.com/angelmondragon/shopcart/pkg/redis"
)

func main() {
	cmd := flag.String("cmd", "list", "cart command: list|add|update|remove|clear")
	productID := flag.String("product", "", "product id (add)")
	variantID := flag.String("variant", "", "variant id (add)")
	inventoryID := flag.String("inventory", "", "inventory id (add)")
	lineID := flag.String("line", "", "line id productId-variantId-inventoryId (update, remove)")
	name := flag.String("name", "", "display name (add)")
	sku := flag.String("sku", "", "sku (add)")
	price := flag.String("price", "0", "unit price (add)")
	quantity := flag.Int("qty", 1, "quantity (add, update)")
	showMetrics := flag.Bool("metrics", false, "print mutation outcome counts after the command")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cartctl"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "cartctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	unit, err := money.ParseCurrency(cfg.App.Currency)
	requireResource(context.Background(), logg, "currency", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "cmd", *cmd)

	recent := notifications.NewRecorder(0)
	var publisher redis.Publisher
	if cfg.Notifications.PublishRedis && cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
		publisher = redisClient
	}
	fanout, err := notifications.NewFanout(logg, recent, publisher, cfg.Notifications.Channel)
	requireResource(ctx, logg, "notification sinks", err)

	registry := prometheus.NewRegistry()
	mgr, err := cartstate.NewManager(cartstate.Params{
		Remote:   cartclient.New(cfg.CartAPI),
		Notifier: fanout,
		Logger:   logg,
		Recorder: metrics.NewMutationMetrics(registry),
	})
	requireResource(ctx, logg, "cart manager", err)

	requireResource(ctx, logg, "cart api", mgr.Load(ctx))

	var ok bool
	switch *cmd {
	case "list":
		ok = true
	case "add":
		unitPrice, perr := decimal.NewFromString(*price)
		if perr != nil {
			fmt.Fprintf(os.Stderr, "invalid -price %q: %v\n", *price, perr)
			os.Exit(2)
		}
		ok = mgr.Add(ctx, cartstate.CartLine{
			ProductID:   *productID,
			VariantID:   *variantID,
			InventoryID: *inventoryID,
			SKU:         *sku,
			Name:        *name,
			Price:       unitPrice,
			Quantity:    *quantity,
		})
	case "update":
		ok = mgr.UpdateQuantity(ctx, *lineID, *quantity)
	case "remove":
		ok = mgr.Remove(ctx, *lineID)
	case "clear":
		ok = mgr.ClearCart(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown -cmd %q\n", *cmd)
		flag.Usage()
		os.Exit(2)
	}

	printCart(os.Stdout, mgr, unit, language.AmericanEnglish)
	if *showMetrics {
		printMutations(os.Stderr, registry)
	}

	if !ok {
		for _, n := range recent.Recent() {
			fmt.Fprintf(os.Stderr, "%s: %s\n", n.Title, n.Message)
		}
		logg.Error(ctx, "cart command failed", mgr.LastError())
		os.Exit(1)
	}
}

func printCart(out io.Writer, mgr *cartstate.Manager, unit currency.Unit, tag language.Tag) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, line := range mgr.Lines() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			line.ID(),
			line.Name,
			line.Quantity,
			money.Format(line.Price, unit, tag),
			money.Format(line.Subtotal(), unit, tag),
		)
	}
	fmt.Fprintf(tw, "\t\t%d\t\t%s\n", mgr.ItemCount(), money.Format(mgr.Total(), unit, tag))
	_ = tw.Flush()
}

func printMutations(out io.Writer, g prometheus.Gatherer) {
	counts, err := metrics.SummarizeMutations(g)
	if err != nil {
		fmt.Fprintf(out, "metrics unavailable: %v\n", err)
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OP\tOUTCOME\tCOUNT")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Op, c.Outcome, c.Count)
	}
	_ = tw.Flush()
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

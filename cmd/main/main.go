package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"storefront/client/internal/cart"
	"storefront/client/internal/config"
	"storefront/client/internal/container"
	"storefront/client/internal/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type options struct {
	productID string
	deselect  []string
	promoCode string
	commit    bool
	notifier  bool
	workers   int
}

func main() {
	opts := parseFlags()

	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	if opts.notifier {
		if err := app.RunNotifier(ctx, opts.workers); err != nil {
			log.Fatalf("Notifier exited with error: %v", err)
		}
		return
	}

	if opts.productID == "" {
		log.Fatal("--product is required unless --notifier is set")
	}

	if err := runPage(ctx, app.Service, opts); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func parseFlags() options {
	var opts options

	pflag.StringVarP(&opts.productID, "product", "p", "", "product id to open")
	pflag.StringSliceVar(&opts.deselect, "deselect", nil, "bundle candidates to leave out")
	pflag.StringVar(&opts.promoCode, "promo", "", "promo code to apply to the cart")
	pflag.BoolVar(&opts.commit, "commit", false, "add the selected bundle to the cart")
	pflag.BoolVar(&opts.notifier, "notifier", false, "run the commit notifier worker")
	pflag.IntVar(&opts.workers, "workers", 2, "notifier worker count")
	pflag.String("base-url", "", "storefront API base url")
	pflag.String("user", "", "signed in user id")
	pflag.String("log-level", "", "log level")
	pflag.Parse()

	// Flags override config.yaml and environment when set
	bindFlag("storefront.base_url", "base-url")
	bindFlag("storefront.user_id", "user")
	bindFlag("log.level", "log-level")

	return opts
}

func bindFlag(key, name string) {
	if f := pflag.Lookup(name); f != nil && f.Changed {
		if err := viper.BindPFlag(key, f); err != nil {
			log.Fatalf("Failed to bind flag --%s: %v", name, err)
		}
	}
}

func runPage(ctx context.Context, svc *service.Service, opts options) error {
	view, err := svc.OpenPage(ctx, opts.productID)
	if err != nil {
		return err
	}

	product := view.Product()
	log.Infof("📦 %s (%s) %s", product.Name, product.ID, view.Format(product.Price))
	if desc, err := view.Description(); err != nil {
		log.Warnf("⚠️ Could not read description: %v", err)
	} else if desc.Text != "" {
		fmt.Println(desc.Text)
	}

	if !view.HasBundle() {
		log.Info("No bundle offered for this product")
	} else {
		for _, id := range opts.deselect {
			if view.IsSelected(id) {
				view.Toggle(id)
			}
		}

		for _, c := range view.Candidates() {
			mark := " "
			if view.IsSelected(c.ID) {
				mark = "x"
			}
			fmt.Printf("[%s] %-12s %-30s %s\n", mark, c.ID, c.Name, view.Format(c.Price))
		}

		snap := view.Snapshot()
		fmt.Printf("Bundle of %d: %s", snap.Items, view.Format(snap.Total))
		if d := snap.DisplayDiscount(); d > 0 {
			fmt.Printf(" (was %s, -%d%%)", view.Format(snap.TotalOriginal), d)
		}
		fmt.Println()
	}

	if opts.commit {
		commit, err := view.CommitBundle(ctx)
		var partial *cart.PartialCommitError
		switch {
		case errors.Is(err, service.ErrBundleUnavailable):
			log.Warn("Nothing to commit: no bundle for this product")
		case errors.As(err, &partial):
			fmt.Println(view.Notification(commit))
		case err != nil:
			return err
		default:
			fmt.Println(view.Notification(commit))
		}
	}

	if strings.TrimSpace(opts.promoCode) != "" {
		shopperCart, err := svc.LoadCart(ctx)
		if err != nil {
			return fmt.Errorf("failed to load cart for promo code: %w", err)
		}

		if err := view.SubmitPromo(ctx, opts.promoCode, shopperCart); err != nil {
			return err
		}

		promo := view.Promo()
		if applied := promo.Applied(); applied != nil {
			fmt.Printf("Promo %s: %s\n", applied.Code, applied.Message)
			fmt.Printf("Cart total: %s -> %s\n",
				view.Format(shopperCart.Total), view.Format(promo.DiscountedTotal(shopperCart.Total)))
		} else {
			fmt.Printf("Promo %s rejected: %s\n", strings.ToUpper(strings.TrimSpace(opts.promoCode)), promo.Error())
		}
	}

	return nil
}

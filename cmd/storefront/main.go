package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/config"
	storegrpc "github.com/fjod/go_cart/storefront/internal/grpc"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/tracker"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("STOREFRONT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("storefront stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeStore()

	orderOpts := []service.OrderOption{service.WithFreeShippingThreshold(cfg.Checkout.FreeShippingThreshold)}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := publisher.NewKafkaPublisher(cfg.Kafka.Topic, log, cfg.Kafka.Brokers...)
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn("close kafka publisher", zap.Error(err))
			}
		}()
		outbox := publisher.NewOutbox(pub, store, log.Named("outbox"), 5*time.Second)
		go outbox.Run(ctx)
		orderOpts = append(orderOpts, service.WithPublisher(outbox))
		log.Info("publishing order events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	cart := service.NewCartService(store, log.Named("cart"))
	orders := service.NewOrderService(store, log.Named("orders"), orderOpts...)
	auth, err := service.NewAuthService(store, log.Named("auth"))
	if err != nil {
		return err
	}

	for name, load := range map[string]func(context.Context) error{
		"cart":   cart.Load,
		"orders": orders.Load,
		"auth":   auth.Load,
	} {
		if err := load(ctx); err != nil {
			return fmt.Errorf("restore %s: %w", name, err)
		}
	}

	gateway := payment.NewSimulator(cfg.Checkout.PaymentDelay, payment.AlwaysApprove{})
	checkout := service.NewCheckoutService(store, cart, orders, auth, gateway, log.Named("checkout"),
		service.WithCheckoutFreeShippingThreshold(cfg.Checkout.FreeShippingThreshold))

	progression := tracker.NewProgression(orders, cfg.Checkout.ProgressStep, log.Named("tracker"))
	defer progression.StopAll()

	products := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.StaleAfter, cfg.Catalog.Timeout, log.Named("catalog"))

	router := h.NewRouter(h.Deps{
		Cart:           cart,
		Orders:         orders,
		Auth:           auth,
		Checkout:       checkout,
		Products:       products,
		Tracker:        progression,
		Logger:         log.Named("http"),
		BaseCtx:        ctx,
		RequestTimeout: cfg.Server.RequestTimeout,
		PayTimeout:     cfg.Server.RequestTimeout + cfg.Checkout.PaymentDelay,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + cfg.Checkout.PaymentDelay + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grpcServer, hs := storegrpc.NewServer(log.Named("grpc"))
	lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	reporter := storegrpc.NewHealthReporter(store, hs, log.Named("health"), 10*time.Second)
	go reporter.Run(ctx)

	errCh := make(chan error, 2)
	go func() {
		log.Info("http server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info("grpc health server starting", zap.String("port", cfg.GRPC.Port))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info("shutting down storefront...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	log.Info("storefront stopped")
	return nil
}

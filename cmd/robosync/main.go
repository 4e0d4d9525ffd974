package main

import (
	"context"
	"os"
	"os/signal"
	"robosync/internal/config"
	"robosync/internal/coordinator/rest"
	"robosync/internal/federation"
	"robosync/internal/logger"
	"robosync/internal/metrics"
	"robosync/internal/orders"
	"robosync/internal/platform"
	"robosync/internal/session"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	log.Info("Client started.")

	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Runtime.MetricsAddr != "" {
		srv := metrics.Serve(cfg.Runtime.MetricsAddr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		log.WithFields(logrus.Fields{"addr": cfg.Runtime.MetricsAddr}).Info("Metrics endpoint listening.")
	}

	coordinators, err := loadFederation(cfg.Federation.File)
	if err != nil {
		log.WithError(err).Fatal("Failed to load federation.")
	}
	network, err := federation.ParseNetwork(cfg.Federation.Network)
	if err != nil {
		log.WithError(err).Fatal("Invalid network.")
	}

	caps := platform.Capabilities{
		Native: cfg.Platform.Native,
		Onion:  cfg.Platform.Onion,
		Origin: cfg.Platform.Origin,
	}
	registry, err := federation.NewRegistry(coordinators, network, cfg.Federation.Active, caps)
	if err != nil {
		log.WithError(err).Fatal("Failed to select coordinator.")
	}

	store, err := platform.NewFileStore(cfg.Platform.StorePath)
	if err != nil {
		log.WithError(err).Fatal("Failed to open store.")
	}
	host := platform.Host{
		Capabilities: caps,
		Store:        store,
		Clipboard:    platform.LogClipboard{Log: log},
	}

	factory := rest.NewFactory(rest.Options{
		Timeout:    cfg.Transport.Timeout,
		SocksProxy: cfg.Transport.SocksProxy,
	}, log)

	clientVersion := session.ClientVersion
	if cfg.Runtime.ClientVersion != "" {
		clientVersion, err = session.ParseVersion(cfg.Runtime.ClientVersion)
		if err != nil {
			log.WithError(err).Fatal("Invalid client version.")
		}
	}

	sess := session.New(registry, factory, host, log, session.Options{
		Sync: orders.Config{
			DefaultInterval: cfg.Sync.DefaultInterval,
			BackoffMin:      cfg.Sync.BackoffMin,
			BackoffMax:      cfg.Sync.BackoffMax,
			RequestTimeout:  cfg.Sync.RequestTimeout,
		},
		Metrics:       m,
		ClientVersion: clientVersion,
		OnOrderUpdate: func(v orders.View) { logView(log, v) },
	})
	defer sess.Close()

	if cfg.Robot.Token != "" {
		if err := sess.Identity().SetToken(cfg.Robot.Token); err != nil {
			log.WithError(err).Fatal("Failed to restore robot token.")
		}
	}
	if cfg.Robot.PubKey != "" && cfg.Robot.EncPrivKey != "" {
		if err := sess.Identity().SetKeys(cfg.Robot.PubKey, cfg.Robot.EncPrivKey); err != nil {
			log.WithError(err).Fatal("Failed to store robot keys.")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sess.Start(ctx); err != nil {
		log.WithError(err).Fatal("Session failed to start.")
	}
	if cfg.Robot.OrderID != 0 {
		sess.TrackOrder(cfg.Robot.OrderID)
	}

	r := sess.Robot()
	log.WithCoordinator(registry.Active().Alias).WithFields(logrus.Fields{
		"nickname": r.Nickname,
		"network":  registry.Network(),
		"base_url": registry.BaseURL(),
	}).Info("Robot ready.")

	<-sigCh

	cancel()

	log.Info("Client stopped.")
}

func loadFederation(path string) ([]federation.Coordinator, error) {
	if path == "" {
		return federation.Default()
	}
	return federation.Load(path)
}

func logView(log *logger.Logger, v orders.View) {
	entry := log.WithOrderID(v.OrderID).WithField("next_poll", v.NextPoll)
	if v.Order == nil {
		entry.WithField("message", v.Message).Warn("Order unavailable.")
		return
	}
	cancel := orders.OrderEligibility(*v.Order)
	entry.WithFields(logrus.Fields{
		"status":               v.Order.Status.String(),
		"read_only":            v.ReadOnly,
		"cancel":               cancel.Kind.String(),
		"cancel_needs_confirm": cancel.RequiresConfirmation,
	}).Info("Order updated.")
}

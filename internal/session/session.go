package session

import (
	"context"
	"robosync/internal/clock"
	"robosync/internal/coordinator"
	"robosync/internal/federation"
	"robosync/internal/logger"
	"robosync/internal/metrics"
	"robosync/internal/models"
	"robosync/internal/orders"
	"robosync/internal/platform"
	"robosync/internal/robot"
	"sync"

	"github.com/sirupsen/logrus"
)

// Market is the coordinator-wide data fetched alongside the robot.
type Market struct {
	Book            []models.Order
	Limits          models.LimitList
	Info            *models.Info
	UpdateAvailable bool
	Message         string
}

type Options struct {
	Sync          orders.Config
	Clock         clock.Clock
	Metrics       *metrics.Metrics
	ClientVersion models.Version
	// OnOrderUpdate receives every applied order snapshot.
	OnOrderUpdate func(orders.View)
}

// Session binds the active coordinator to the robot identity and the tracked
// order. An endpoint change retires both and bootstraps them again.
type Session struct {
	registry *federation.Registry
	factory  coordinator.Factory
	log      *logger.Logger
	version  models.Version

	identity *robot.Bootstrap
	engine   *orders.Engine

	mu     sync.Mutex
	client coordinator.Client
	epoch  uint64
	market Market
	// pinned is set while the tracked order was requested through TrackOrder.
	pinned bool
}

func New(registry *federation.Registry, factory coordinator.Factory, host platform.Host, log *logger.Logger, opts Options) *Session {
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	if opts.ClientVersion == (models.Version{}) {
		opts.ClientVersion = ClientVersion
	}

	s := &Session{
		registry: registry,
		factory:  factory,
		log:      log,
		version:  opts.ClientVersion,
		client:   factory(registry.BaseURL()),
	}

	s.identity = robot.NewBootstrap(s.client, host, log, robot.Options{
		Metrics:        opts.Metrics,
		OnCurrentOrder: s.followRobotOrder,
	})
	s.engine = orders.New(opts.Sync, s.client, log, orders.Options{
		Clock:          opts.Clock,
		Metrics:        opts.Metrics,
		OnCurrentOrder: s.identity.SetCurrentOrder,
		OnUpdate:       opts.OnOrderUpdate,
	})
	return s
}

// Start restores the robot, makes first contact with the coordinator and loads market data.
func (s *Session) Start(ctx context.Context) error {
	if err := s.identity.Load(); err != nil {
		return err
	}
	s.logEntry().WithField("base_url", s.registry.BaseURL()).Info("Session started.")

	if _, err := s.identity.Trigger(ctx, robot.TriggerFirstContact); err != nil {
		s.logEntry().WithError(err).Warn("First contact failed.")
	}
	s.Refresh(ctx)
	return nil
}

func (s *Session) Close() {
	s.engine.Close()
}

func (s *Session) SetNetwork(ctx context.Context, network federation.Network) error {
	changed, err := s.registry.SetNetwork(network)
	if err != nil {
		return err
	}
	if changed {
		s.switchEndpoint(ctx)
	}
	return nil
}

func (s *Session) SetCoordinator(ctx context.Context, index int) error {
	changed, err := s.registry.SetActive(index)
	if err != nil {
		return err
	}
	if changed {
		s.switchEndpoint(ctx)
	}
	return nil
}

func (s *Session) switchEndpoint(ctx context.Context) {
	baseURL := s.registry.BaseURL()

	s.engine.Stop()
	s.identity.Invalidate()

	client := s.factory(baseURL)
	s.mu.Lock()
	s.client = client
	s.epoch++
	s.market = Market{}
	s.pinned = false
	s.mu.Unlock()

	s.engine.SetClient(client)
	s.identity.SetClient(client)

	s.logEntry().WithFields(logrus.Fields{
		"base_url":    baseURL,
		"coordinator": s.registry.Active().Alias,
		"network":     s.registry.Network(),
	}).Info("Coordinator endpoint changed.")

	if _, err := s.identity.Trigger(ctx, robot.TriggerEndpointChanged); err != nil {
		s.logEntry().WithError(err).Warn("Robot re-registration failed.")
	}
	s.Refresh(ctx)
}

// OpenProfile refreshes the robot as the profile view does when opened.
func (s *Session) OpenProfile(ctx context.Context) error {
	_, err := s.identity.Trigger(ctx, robot.TriggerProfileOpened)
	return err
}

// TrackOrder follows an explicitly requested order.
func (s *Session) TrackOrder(orderID int64) {
	s.mu.Lock()
	s.pinned = true
	s.mu.Unlock()
	s.engine.Track(orderID)
}

func (s *Session) RenewOrder(ctx context.Context) (int64, error) {
	return s.engine.Renew(ctx)
}

// CancelOptions reports the cancel affordance for the order currently shown.
func (s *Session) CancelOptions() (orders.CancelEligibility, bool) {
	view := s.engine.View()
	if view.Order == nil {
		return orders.CancelEligibility{}, false
	}
	return orders.OrderEligibility(*view.Order), true
}

func (s *Session) OrderView() orders.View {
	return s.engine.View()
}

func (s *Session) Robot() robot.Robot {
	return s.identity.Robot()
}

func (s *Session) Identity() *robot.Bootstrap {
	return s.identity
}

func (s *Session) Market() Market {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.market
}

// Refresh loads book, limits and info from the active coordinator. Results
// that arrive after an endpoint change are dropped.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	client := s.client
	epoch := s.epoch
	s.mu.Unlock()

	book, bookErr := client.GetBook(ctx)
	limits, limitsErr := client.GetLimits(ctx)
	info, infoErr := client.GetInfo(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}

	s.market.Message = ""
	if bookErr == nil {
		s.market.Book = book
	} else {
		s.market.Message = coordinator.Reason(bookErr)
		s.logEntry().WithError(bookErr).Warn("Failed to fetch book.")
	}
	if limitsErr == nil {
		s.market.Limits = limits
	} else {
		s.logEntry().WithError(limitsErr).Warn("Failed to fetch limits.")
	}
	if infoErr == nil {
		s.market.Info = &info
		s.market.UpdateAvailable = UpdateAvailable(s.version, info.Version)
		if s.market.UpdateAvailable {
			s.logEntry().WithFields(logrus.Fields{
				"client":      FormatVersion(s.version),
				"coordinator": FormatVersion(info.Version),
			}).Warn("Client update available.")
		}
	} else {
		s.logEntry().WithError(infoErr).Warn("Failed to fetch info.")
	}
}

// followRobotOrder tracks the order the coordinator reports for the robot
// unless it is already the tracked one. When the robot has no order the
// subscription is dropped, except for an order the user asked for.
func (s *Session) followRobotOrder(orderID int64, ok bool) {
	s.mu.Lock()
	pinned := s.pinned
	if ok {
		s.pinned = false
	}
	s.mu.Unlock()

	if !ok {
		if !pinned {
			s.engine.Stop()
		}
		return
	}
	if current, tracking := s.engine.OrderID(); tracking && current == orderID {
		return
	}
	s.engine.Track(orderID)
}

func (s *Session) logEntry() *logrus.Entry {
	return s.log.WithComponent("session")
}

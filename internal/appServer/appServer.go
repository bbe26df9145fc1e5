package appServer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/ticket-marketplace/config"
	"github.com/ds124wfegd/ticket-marketplace/internal/database/memory"
	repository "github.com/ds124wfegd/ticket-marketplace/internal/database/postgres"
	"github.com/ds124wfegd/ticket-marketplace/internal/entity"
	"github.com/ds124wfegd/ticket-marketplace/internal/service"
	"github.com/ds124wfegd/ticket-marketplace/internal/transport"
	"github.com/ds124wfegd/ticket-marketplace/internal/transport/middleware"
	"github.com/ds124wfegd/ticket-marketplace/internal/worker"

	"github.com/ds124wfegd/ticket-marketplace/pkg/firebase"
	"github.com/ds124wfegd/ticket-marketplace/pkg/postgres"
	"github.com/ds124wfegd/ticket-marketplace/pkg/queue"
	"github.com/ds124wfegd/ticket-marketplace/pkg/redis"
	"github.com/ds124wfegd/ticket-marketplace/pkg/stripe"
	"github.com/ds124wfegd/ticket-marketplace/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// NewServer wires the application and blocks until SIGINT/SIGTERM or a
// fatal component error.
func NewServer(cfg *config.Config) error {
	setupLogger(&cfg.Server)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Initialize store
	store, err := newStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	// Initialize notification queue
	var (
		redisQueue    *queue.RedisQueue
		taskPublisher service.TaskPublisher
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			if cfg.IsProduction() {
				return err
			}
			logrus.Errorf("Failed to initialize Redis queue: %v. Continuing without queue...", err)
		} else {
			defer redisClient.Close()
			queueCfg := queue.DefaultRedisQueueConfig(cfg.Redis.QueuePrefix)
			redisQueue = queue.NewRedisQueue(redisClient, queueCfg, nil, nil)
			// Создаем адаптер для очереди
			taskPublisher = service.NewQueueAdapter(redisQueue)
		}
	} else {
		logrus.Warn("Redis queue disabled, notifications will not be sent")
	}

	gateway, err := newPaymentGateway(cfg)
	if err != nil {
		return err
	}

	verifier, err := newIdentityVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	// Initialize services
	bookingService := service.NewBookingService(store, gateway, taskPublisher, cfg.Booking)
	ticketService := service.NewTicketService(store, cfg.Inventory)
	paymentService := service.NewPaymentService(store, gateway, cfg.Payment)
	userService := service.NewUserService(store)
	vendorService := service.NewVendorService(store)

	// Initialize handlers
	var queueInspector transport.QueueInspector
	if redisQueue != nil {
		queueInspector = redisQueue
	}
	handlers := &transport.Handlers{
		Tickets:  transport.NewTicketHandler(ticketService),
		Bookings: transport.NewBookingHandler(bookingService),
		Payments: transport.NewPaymentHandler(paymentService, bookingService),
		Users:    transport.NewUserHandler(userService, vendorService),
		Admin:    transport.NewAdminHandler(userService, vendorService, ticketService, bookingService, queueInspector),
	}

	// Setup HTTP server
	if cfg.IsProduction() || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := transport.InitRoutes(handlers, transport.RouterConfig{
		Verifier:       verifier,
		Roles:          userService,
		Health:         store,
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: cfg.Server.CORSOrigins,
	})

	g, gctx := errgroup.WithContext(ctx)

	if redisQueue != nil {
		taskHandler := queue.NewTaskHandler(newNotifier(&cfg.Telegram), cfg.Telegram.ChatID)
		if err := redisQueue.Subscribe(gctx, taskHandler.HandleTask); err != nil {
			return fmt.Errorf("failed to start queue subscriber: %w", err)
		}
		logrus.Info("Queue subscriber started")
	}

	if cfg.Worker.AuditInterval > 0 {
		auditWorker := worker.NewInventoryAuditWorker(bookingService, cfg.Worker.AuditInterval)
		g.Go(func() error {
			auditWorker.Start(gctx)
			return nil
		})
	}

	srv := new(Server)
	g.Go(func() error {
		logrus.WithField("addr", cfg.Server.Addr()).Print("App Started")
		if err := srv.Run(cfg, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error occured while running http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logrus.Print("App Shutting Down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("error occured on server shutting down: %s", err.Error())
		}
		if redisQueue != nil {
			_ = redisQueue.Close()
		}
		return nil
	})

	return g.Wait()
}

func setupLogger(cfg *config.ServerConfig) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func newStore(ctx context.Context, cfg *config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case "memory":
		logrus.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	case "postgres", "":
		// Initialize database
		db, err := postgres.NewPostgresDB(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}

		// Run database migrations
		if err := postgres.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repository.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func newPaymentGateway(cfg *config.Config) (service.PaymentGateway, error) {
	gateway, err := stripe.NewGateway(cfg.Payment)
	if err == nil {
		return gateway, nil
	}
	if cfg.IsProduction() {
		return nil, err
	}

	logrus.Warnf("Payment gateway unavailable: %v. Checkout and confirmation will fail", err)
	return unavailableGateway{reason: err}, nil
}

func newIdentityVerifier(ctx context.Context, cfg *config.Config) (middleware.IdentityVerifier, error) {
	verifier, err := firebase.NewVerifier(ctx, cfg.Auth.FirebaseCredentialsFile)
	if err == nil {
		return verifier, nil
	}
	if cfg.IsProduction() {
		return nil, err
	}

	logrus.Warnf("Identity verification unavailable: %v. Protected routes will answer 401", err)
	return nil, nil
}

func newNotifier(cfg *config.TelegramConfig) queue.Notifier {
	if !cfg.Enabled || cfg.BotToken == "" {
		logrus.Warn("Telegram bot token not provided, notifications disabled")
		return nil
	}

	logrus.Info("Telegram bot initialized")
	return telegram.NewBot(cfg.BotToken)
}

type unavailableGateway struct {
	reason error
}

func (g unavailableGateway) CreateCheckoutSession(ctx context.Context, req *entity.CheckoutRequest) (*entity.CheckoutSession, error) {
	return nil, g.reason
}

func (g unavailableGateway) RetrieveSession(ctx context.Context, sessionID string) (*entity.GatewaySession, error) {
	return nil, g.reason
}

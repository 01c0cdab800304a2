// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"ticket-ledger/config"
	"ticket-ledger/handlers"
	"ticket-ledger/monitoring"
	"ticket-ledger/security"
	"ticket-ledger/services"
	"ticket-ledger/utils"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	_ "ticket-ledger/migrations"
)

func main() {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	// Initialize services
	snapshotService := services.NewSnapshotService(redisClient, cfg.SnapshotInterval)
	notifier := services.NewPubNubNotifier(pn)

	ledgerService := services.NewLedgerService(cfg.ContractOwner, snapshotService, notifier, nil)

	ledgerSnapshot := func() monitoring.LedgerSnapshot {
		stats := ledgerService.Stats()
		return monitoring.LedgerSnapshot{
			TotalEvents:  stats.TotalEvents,
			ActiveEvents: stats.ActiveEvents,
			TotalTickets: stats.TotalTickets,
			Collected:    stats.Collected.InexactFloat64(),
		}
	}
	if cfg.EnableMetrics {
		ledgerService.AttachMonitor(monitoring.NewMonitor(ledgerSnapshot))
	}

	pinningService := services.NewPinningService(cfg.PinAPIURL, cfg.PinGatewayURL, cfg.PinJWT)
	assistantService := services.NewAssistantService(cfg.AssistantAPIURL, cfg.AssistantAPIKey, cfg.AssistantModel)

	// Restore ledger state from the last snapshot
	if err := snapshotService.Restore(context.Background(), ledgerService); err != nil {
		log.Fatalf("Failed to restore ledger state: %v", err)
	}

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(app, ledgerService)
	ticketHandler := handlers.NewTicketHandler(app, ledgerService)
	pinningHandler := handlers.NewPinningHandler(app, pinningService)
	chatHandler := handlers.NewChatHandler(app, assistantService)
	adminHandler := handlers.NewAdminHandler(app, ledgerService)

	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Create context for background tasks
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start background tasks
	go snapshotService.Run(ctx, ledgerService)

	var metricsServer *monitoring.MetricsServer
	if cfg.EnableMetrics {
		metricsServer = monitoring.NewMetricsServer(cfg.MetricsPort, ledgerSnapshot)
		go metricsServer.Start()
	}

	// Setup graceful shutdown
	go handleShutdown(cancel, metricsServer)

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Event endpoints
		e.Router.GET("/api/events", eventHandler.GetActiveEvents)
		e.Router.GET("/api/events/{eventId}", eventHandler.GetEventDetails)
		e.Router.POST("/api/events", eventHandler.CreateEvent).Bind(apis.RequireAuth())
		e.Router.POST("/api/events/{eventId}/toggle", eventHandler.ToggleEventActive).Bind(apis.RequireAuth())

		// Ticket endpoints
		e.Router.POST("/api/tickets/buy", ticketHandler.BuyTicket).
			Bind(apis.RequireAuth()).
			BindFunc(
				rateLimiter.AntiBotMiddleware(),
				rateLimiter.PurchaseRateLimit(cfg.BuyRateLimit, cfg.BuyRateWindow),
			)
		e.Router.POST("/api/tickets/{ticketId}/checkin", ticketHandler.CheckInTicket).Bind(apis.RequireAuth())
		e.Router.GET("/api/tickets/{address}", ticketHandler.GetTicketsByAddress)
		e.Router.GET("/api/tickets/{address}/balance", ticketHandler.GetBalance)

		// Pinning endpoints
		e.Router.POST("/api/pin/upload", pinningHandler.Upload).Bind(apis.RequireAuth())
		e.Router.GET("/api/pin/search", pinningHandler.Search)
		e.Router.GET("/api/pin/{cid}", pinningHandler.Resolve)

		// Assistant endpoint
		e.Router.POST("/api/chat", chatHandler.Chat)

		// Admin endpoints
		e.Router.GET("/api/admin/ledger-dashboard", adminHandler.GetLedgerDashboard).Bind(apis.RequireSuperuserAuth())
		e.Router.GET("/api/admin/purchases", adminHandler.GetPurchases).Bind(apis.RequireSuperuserAuth())

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]any{
				"status":       "healthy",
				"total_events": ledgerService.Stats().TotalEvents,
			})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc, metricsServer *monitoring.MetricsServer) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()

	if metricsServer != nil {
		ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelTimeout()
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Printf("Metrics server shutdown: %v", err)
		}
	}
}

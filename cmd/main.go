package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"study_admin_service/internal/config"
	"study_admin_service/internal/database/mongo"
	"study_admin_service/internal/events"
	"study_admin_service/internal/handlers"
	"study_admin_service/internal/metrics"
	"study_admin_service/internal/repository"
	"study_admin_service/internal/service"
	"study_admin_service/internal/task"
	"study_admin_service/pkg/discovery"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/studyadmin", "log", "study_admin_service")
	err := os.MkdirAll(logDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.ServiceConfig
	repos := repository.Repositories_instance

	app := fiber.New(fiber.Config{})

	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"*"},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Study Admin Service")
	})

	app.Get("/health", func(c fiber.Ctx) error {
		if !mongo.IsConnected() {
			return c.Status(fiber.StatusServiceUnavailable).SendString("MongoDB unavailable")
		}
		return c.Status(fiber.StatusOK).SendString("Study Admin Service is healthy")
	})

	eventPublisher, err := events.NewEventPublisher(cfg.RabbitURI())
	if err != nil {
		log.Printf("Warning: Failed to initialize event publisher: %v", err)
	}

	eventConsumer, err := events.NewCatalogEventConsumer(cfg.RabbitURI(), repos.RedisRepository)
	if err != nil {
		log.Printf("Warning: Failed to initialize event consumer: %v", err)
	} else {
		if err := eventConsumer.Start(); err != nil {
			log.Printf("Warning: Failed to start event consumer: %v", err)
			eventConsumer.Close()
		} else {
			log.Println("Successfully started event consumer")
			defer eventConsumer.Close()
		}
	}

	// Initialize services
	emailService := service.NewEmailService(eventPublisher, cfg)
	auditService := service.NewAuditService(eventPublisher)
	jwtService := service.NewJWTService()
	assignmentService := service.NewAssignmentService(repos.CatalogRepository, repos.PermissionRepository)
	userService := service.NewUserService(
		repos.AdminUserRepository,
		repos.CatalogRepository,
		repos.PermissionRepository,
		assignmentService,
		emailService,
		auditService,
		repos.TxnRunner,
		cfg,
	)
	appService := service.NewAppService(
		repos.AdminUserRepository,
		repos.CatalogRepository,
		repos.PermissionRepository,
		repos.ParticipantRepository,
		repos.RedisRepository,
		auditService,
	)

	// Initialize and register handlers
	userHandler := handlers.NewUserHandler(userService, jwtService)
	userHandler.RegisterRoutes(app)
	appHandler := handlers.NewAppHandler(appService, jwtService)
	appHandler.RegisterRoutes(app)

	metrics.Serve(":" + cfg.MetricsPort)

	inviteReminder := task.NewInviteReminder(userService, cfg.InviteReminderCron)
	if err := inviteReminder.Start(); err != nil {
		log.Printf("Warning: Failed to start invite reminder: %v", err)
	}

	if err := discovery.ServiceDiscovery.Register(); err != nil {
		log.Printf("Warning: Failed to register with Consul: %v", err)
	}

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	inviteReminder.Stop()

	if eventPublisher != nil {
		if err := eventPublisher.Close(); err != nil {
			log.Printf("Error closing event publisher: %v", err)
		}
	}

	mongo.DisconnectMongo()

	if discovery.ServiceDiscovery != nil {
		if err := discovery.ServiceDiscovery.Deregister(); err != nil {
			log.Printf("Error deregistering from service discovery: %v", err)
		}
	}

	<-doneChan
	log.Println("Server shutdown complete")
}

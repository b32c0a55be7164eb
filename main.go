package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kanban/internal/handlers"
	"kanban/internal/middleware"
	"kanban/internal/models"
	"kanban/internal/repositories"
	"kanban/internal/services"
	"kanban/pkg/rabbitmq"
)

// NewApp wires the board application: database, repositories, services,
// handlers and routes. publisher may be nil, which disables board events.
// Configuration is read through Viper (DATABASE_DRIVER, DATABASE_DSN,
// JWT_SECRET).
func NewApp(publisher services.EventPublisher) (*fiber.App, *services.AuthService, error) {
	db, err := openDatabase(viper.GetString("DATABASE_DRIVER"), viper.GetString("DATABASE_DSN"))
	if err != nil {
		return nil, nil, err
	}

	if err := db.AutoMigrate(&models.User{}, &models.Post{}); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)

	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))
	boardService := services.NewBoardService(postRepo, publisher)

	authHandler := handlers.NewAuthHandler(authService)
	boardHandler := handlers.NewBoardHandler(boardService)

	app := fiber.New()
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authHandler.RegisterRoutes(app)

	// Board routes (require a resolved current user)
	boardRoutes := app.Group("", middleware.AuthRequired(authService))
	boardHandler.RegisterRoutes(boardRoutes)

	return app, authService, nil
}

// openDatabase opens the configured database. SQLite is the default;
// PostgreSQL is selected with DATABASE_DRIVER=postgres.
func openDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "kanban.db")
	viper.SetDefault("JWT_SECRET", "dev")
	viper.SetDefault("RABBITMQ_URL", "") // empty disables board events
	viper.AutomaticEnv()

	// --- Board event publisher (optional) ---
	var publisher services.EventPublisher
	if rabbitMQURL := viper.GetString("RABBITMQ_URL"); rabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient

		// Log board events as they come back off the queue. Downstream
		// consumers would replace this handler.
		if err := mqClient.ConsumeBoardEvents(func(msg amqp.Delivery) error {
			log.Printf("Board event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil
		}); err != nil {
			log.Printf("Failed to start board event consumer: %v", err)
		}
	}

	app, _, err := NewApp(publisher)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	// --- Start HTTP Server ---
	appPort := viper.GetString("APP_PORT")
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

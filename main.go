package main

import (
	"log"

	"github.com/Sspartak/football-app/config"
	"github.com/Sspartak/football-app/internal/consumer"
	"github.com/Sspartak/football-app/internal/handler"
	"github.com/Sspartak/football-app/internal/middleware"
	"github.com/Sspartak/football-app/internal/repository"
	"github.com/Sspartak/football-app/internal/service"
	"github.com/Sspartak/football-app/pkg/database"
	"github.com/Sspartak/football-app/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ consumer: sync matches from the room service
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatalf("failed to start consuming: %v", err)
	}

	matchConsumer := consumer.NewMatchConsumer(db)
	matchConsumer.Start(msgs)

	// Publisher: notify sibling services after voting changes
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to create RabbitMQ publisher: %v", err)
	}
	defer publisher.Close()

	// Repositories
	matchRepo := repository.NewMatchRepository(db)
	slotRepo := repository.NewSlotRepository(db)

	// Service
	votingSvc := service.NewVotingService(slotRepo, matchRepo, publisher)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "voting-service"})
	})

	handler.NewVotingHandler(votingSvc, matchRepo).RegisterRoutes(e)

	log.Printf("Voting Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}

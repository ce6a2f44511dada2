package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"tableside/internal/config"
	"tableside/internal/database"
	"tableside/internal/events"
	"tableside/internal/middleware"
	"tableside/internal/modules/kitchen"
	"tableside/internal/modules/menu"
	"tableside/internal/modules/notifications"
	"tableside/internal/modules/orders"
	"tableside/internal/modules/reservations"
	"tableside/internal/modules/tables"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()
	defer hub.Close()

	notificationService := notifications.NewService(db)

	fanout := events.Fanout{events.LogPublisher{}, hub, notificationService}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Printf("AMQP disabled: %v", err)
		} else {
			defer amqpPub.Close()
			fanout = append(fanout, amqpPub)
		}
	}

	tableStore := tables.NewStore(db)
	menuService := menu.NewService(db)
	kitchenAdapter := kitchen.NewAdapter(db, fanout)
	orderService := orders.NewService(db, menuService, kitchenAdapter, fanout, cfg.TaxRateBps)
	resolver := reservations.NewResolver(db)
	reservationService := reservations.NewService(db, resolver, fanout, cfg.DefaultReservationDuration)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		tables.NewHandler(tableStore).RegisterRoutes(v1)
		menu.NewHandler(menuService).RegisterRoutes(v1)
		orders.NewHandler(orderService).RegisterRoutes(v1)
		reservations.NewHandler(reservationService).RegisterRoutes(v1)
		kitchen.NewHandler(kitchenAdapter).RegisterRoutes(v1)
		notifications.NewHandler(notificationService).RegisterRoutes(v1)
	}

	events.NewWSHandler(hub).RegisterRoutes(r)

	log.Println("Listening on", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}

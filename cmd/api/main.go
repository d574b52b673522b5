package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/quizmaster/configs"
	"github.com/anjiri1684/quizmaster/database"
	"github.com/anjiri1684/quizmaster/database/mongostore"
	"github.com/anjiri1684/quizmaster/events"
	"github.com/anjiri1684/quizmaster/handlers"
	"github.com/anjiri1684/quizmaster/jobs"
	"github.com/anjiri1684/quizmaster/metrics"
	"github.com/anjiri1684/quizmaster/notifications"
	"github.com/anjiri1684/quizmaster/routes"
	"github.com/anjiri1684/quizmaster/services"
	"github.com/anjiri1684/quizmaster/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("🔥 Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("🔥 %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("🔥 %v", err)
	}
	if err := database.SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminFullName); err != nil {
		log.Fatalf("🔥 Failed to seed admin user: %v", err)
	}
	if err := database.SeedBadges(db); err != nil {
		log.Fatalf("🔥 Failed to seed badges: %v", err)
	}

	users := database.NewUserStore(db)
	var quizStore services.QuizAuthoringStore
	var attemptStore services.AttemptStore
	switch cfg.StoreDriver {
	case "mongo":
		client, mdb, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("🔥 %v", err)
		}
		defer client.Disconnect(context.Background())
		if err := mongostore.EnsureIndexes(ctx, mdb); err != nil {
			log.Fatalf("🔥 Failed to create MongoDB indexes: %v", err)
		}
		quizStore, attemptStore = mongostore.NewQuizStore(mdb), mongostore.NewAttemptStore(mdb)
	default:
		quizStore, attemptStore = database.NewQuizStore(db), database.NewAttemptStore(db)
	}

	publisher, err := events.NewPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange)
	if err != nil {
		log.Fatalf("🔥 %v", err)
	}
	defer publisher.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	mailer := notifications.NewMailer(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName)

	gamification := services.NewGamificationService(users, attemptStore, hub)
	attempts := services.NewAttemptService(quizStore, attemptStore, publisher, recorder, gamification, hub)
	quizzes := services.NewQuizService(quizStore, attemptStore)

	var uploader services.Uploader
	if cfg.CloudinaryURL != "" {
		cloudinaryUploader, err := services.NewCloudinaryUploader(cfg.CloudinaryURL, "quizmaster_certificates")
		if err != nil {
			log.Fatalf("🔥 Failed to initialize Cloudinary: %v", err)
		}
		uploader = cloudinaryUploader
	} else {
		log.Println("⚠️ CLOUDINARY_URL not set, certificates are disabled.")
	}
	certificates := services.NewCertificateService(users, quizStore, attemptStore, services.ChromeRenderer{}, uploader)

	c := cron.New()
	err = jobs.Schedule(c, cfg.SweepSchedule,
		&jobs.StaleAttemptSweeper{Attempts: attemptStore, After: cfg.StaleAttemptAfter},
		&jobs.AttemptReminder{Attempts: attemptStore, Users: users, Quizzes: quizStore, Mailer: mailer, FrontendURL: cfg.FrontendURL},
	)
	if err != nil {
		log.Fatalf("🔥 %v", err)
	}
	c.Start()
	defer c.Stop()
	log.Println("✅ Cron jobs for stale attempts and reminders scheduled successfully.")

	app := fiber.New(fiber.Config{
		AppName:       "QuizMaster Pro",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to QuizMaster Pro API",
		})
	})

	routes.Register(app, &handlers.Handler{
		Quizzes:      quizzes,
		Attempts:     attempts,
		Gamification: gamification,
		Certificates: certificates,
		Users:        users,
		Mailer:       mailer,
		Hub:          hub,
		Options: handlers.Options{
			JWTSecret:     cfg.JWTSecret,
			JWTTTL:        cfg.JWTTTL,
			FrontendURL:   cfg.FrontendURL,
			CloudinaryURL: cfg.CloudinaryURL,
			UploadFolder:  "quizmaster_covers",
		},
	}, registry)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("🔥 Server shutdown failed: %v", err)
		}
	}()

	log.Printf("✅ Server is running on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}

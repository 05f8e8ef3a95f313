package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/florentincondu/proiect-web-sub000/internal/api"
	"github.com/florentincondu/proiect-web-sub000/internal/cache"
	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/db"
	"github.com/florentincondu/proiect-web-sub000/internal/email"
	"github.com/florentincondu/proiect-web-sub000/internal/events"
	"github.com/florentincondu/proiect-web-sub000/internal/notify"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/storage"
	"github.com/florentincondu/proiect-web-sub000/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'img' (image processing), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx, mongoDb, cfg.SystemLogRetention); err != nil {
		cancelIndex()
		log.Fatalf("Failed to ensure MongoDB indexes: %v", err)
	}
	cancelIndex()

	redisClient, err := cache.ConnectRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	publisher, err := events.Connect(cfg.NatsURL, 5)
	if err != nil {
		log.Printf("WARNING: %v. Domain events will only be logged.", err)
		publisher = events.NewLogPublisher()
	}
	defer publisher.Close()

	s3StorageService, err := storage.NewS3Storage(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3 storage: %v", err)
	}

	emailSender := buildEmailSender(cfg, redisClient)

	svc := services.NewRegistry(mongoDb, cfg, redisClient)

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	if err := svc.Settings.Load(appCtx); err != nil {
		log.Printf("WARNING: Failed to load settings, using defaults: %v", err)
	}
	go func() {
		if err := svc.Settings.SubscribeToChanges(appCtx); err != nil {
			log.Printf("Settings subscription ended: %v", err)
		}
	}()

	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()

	dispatcher := notify.NewDispatcher(cfg, svc.Notifications, svc.Users, svc.Logs, publisher, taskClient)

	taskProcessor := tasks.NewTaskProcessor(cfg, emailSender, svc.Templates, s3StorageService,
		svc.Hotels, svc.Bookings, svc.Payments, svc.Approvals, dispatcher)

	var wg sync.WaitGroup

	shutdownChan := make(chan struct{}, 1)

	// The service API runs in every mode.
	serviceRouter := api.SetupServiceRouter(cfg, redisClient, shutdownChan)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: serviceRouter,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		fmt.Printf("Service API listening on :%s\n", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Service API ListenAndServe error: %v", err)
		}
		fmt.Println("Service API server stopped.")
	}()

	var mainApiSrv *http.Server
	var taskSrv *asynq.Server
	var scheduler *asynq.Scheduler

	fmt.Printf("Starting application in '%s' mode...\n", cfg.RunMode)

	startAPI := func() {
		fmt.Println("Starting main API server...")
		mainApiRouter := api.SetupRouter(cfg, mongoDb, svc, dispatcher, s3StorageService, taskClient)
		mainApiSrv = &http.Server{
			Addr:              ":" + cfg.ApiPort,
			Handler:           mainApiRouter,
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("Main API listening on :%s\n", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Main API ListenAndServe error: %v", err)
			}
			fmt.Println("Main API server stopped.")
		}()
	}

	startWorkers := func(isImageWorker, isBgWorker bool) {
		srv, mux := tasks.SetupServer(redisClient, taskProcessor, isImageWorker, isBgWorker)
		if srv == nil {
			return
		}
		if err := srv.Start(mux); err != nil {
			log.Fatalf("Task server failed to start: %v", err)
		}
		taskSrv = srv
		fmt.Println("Task server started.")

		if isBgWorker {
			scheduler, err = tasks.NewScheduler(redisClient, cfg)
			if err != nil {
				log.Fatalf("Failed to create task scheduler: %v", err)
			}
			if err := scheduler.Start(); err != nil {
				log.Fatalf("Task scheduler failed to start: %v", err)
			}
			fmt.Println("Task scheduler started.")
		}
	}

	switch cfg.RunMode {
	case "api":
		startAPI()
	case "bg":
		startWorkers(false, true)
	case "img":
		startWorkers(true, false)
	case "all":
		startAPI()
		startWorkers(true, true)
	default:
		log.Fatalf("Invalid run mode specified in config: %s.", cfg.RunMode)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)
	case <-shutdownChan:
		fmt.Println("\nShutdown requested via Service API. Shutting down gracefully...")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	fmt.Println("Shutting down Service API server...")
	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Service API server shutdown error: %v", err)
	}

	if mainApiSrv != nil {
		fmt.Println("Shutting down Main API server...")
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("Main API server shutdown error: %v", err)
		}
	}

	if scheduler != nil {
		fmt.Println("Shutting down task scheduler...")
		scheduler.Shutdown()
	}
	if taskSrv != nil {
		fmt.Println("Shutting down task server...")
		taskSrv.Shutdown()
	}

	cancelApp()

	fmt.Println("Waiting for servers to stop...")
	wg.Wait()

	fmt.Println("Server gracefully stopped")
}

// buildEmailSender assembles the delivery chain used by the e-mail worker.
// With MOCK_SERVICES=true mail is stored in Redis for the integration tests.
func buildEmailSender(cfg *config.Config, redisClient *redis.Client) email.Sender {
	var primary email.Sender
	if os.Getenv("MOCK_SERVICES") == "true" {
		log.Println("MOCK_SERVICES enabled: Using Redis email sender.")
		primary = email.NewRedisSender(redisClient)
	} else {
		var critical email.Sender
		fileSender, err := email.NewFileEmailSender(cfg.CriticalEmailLogPath)
		if err != nil {
			log.Printf("WARNING: Critical email log disabled (%s): %v", cfg.CriticalEmailLogPath, err)
		} else {
			critical = fileSender
		}
		chain := email.NewFailoverSender(
			email.NewSMTPSender(email.SMTPSettings{
				Name:     "primary",
				Host:     cfg.SmtpHost,
				Port:     cfg.SmtpPort,
				Username: cfg.SmtpUsername,
				Password: cfg.SmtpPassword,
				From:     cfg.SmtpFromAddress,
			}),
			email.NewSMTPSender(email.SMTPSettings{
				Name:     "fallback",
				Host:     cfg.FallbackSmtpHost,
				Port:     cfg.FallbackSmtpPort,
				Username: cfg.FallbackSmtpUsername,
				Password: cfg.FallbackSmtpPassword,
				From:     cfg.SmtpFromAddress,
			}),
			critical,
		)
		log.Printf("Email delivery chain has %d transport(s).", chain.Len())
		primary = chain
	}

	composite := email.NewCompositeEmailSender(primary)
	if logEmailsPath := os.Getenv("LOG_EMAILS"); logEmailsPath != "" {
		log.Printf("LOG_EMAILS set to '%s', enabling file email logger.", logEmailsPath)
		fileSender, err := email.NewFileEmailSender(logEmailsPath)
		if err != nil {
			log.Printf("WARNING: Failed to initialize file email sender (LOG_EMAILS='%s'): %v. Proceeding without file logging.", logEmailsPath, err)
		} else {
			composite.AddSender(fileSender)
		}
	}
	return composite
}

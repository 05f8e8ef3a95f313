package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/florentincondu/proiect-web-sub000/internal/config"
	"github.com/florentincondu/proiect-web-sub000/internal/email"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/storage"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

// Task types handled by the workers.
const (
	TypeEmailDelivery = "email:deliver"
	TypeImageProcess  = "image:process"

	TypeBookingAutoComplete = "bookings:auto_complete"
	TypeCalendarRoll        = "hotels:calendar:roll"
	TypeInvoiceCheckOverdue = "payments:overdue"
	TypeAdminRequestPurge   = "admin_requests:purge"
)

// Queue names and their priorities.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
	QueueImages   = "images"
)

// --- Dependencies ---

// TemplateRenderer renders a stored or built-in e-mail template.
type TemplateRenderer interface {
	Render(ctx context.Context, templateID, locale string, data map[string]interface{}) (subject, body string, err error)
}

// HotelMaintainer is the part of the hotel catalogue the workers touch.
type HotelMaintainer interface {
	AddImage(ctx context.Context, hotelID utils.SixID, imageURL string) error
	RollAllCalendars(ctx context.Context) (int, error)
}

type BookingCompleter interface {
	AutoComplete(ctx context.Context, now time.Time) ([]models.Booking, error)
}

type OverdueInvoices interface {
	FindOverdue(ctx context.Context, now time.Time) ([]models.Payment, error)
	MarkOverdueNotified(ctx context.Context, paymentID utils.SixID) (bool, error)
}

type AdminRequestPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Notifier fans a state change out to notifications, e-mails and events.
type Notifier interface {
	BookingChanged(ctx context.Context, booking *models.Booking, action models.NotificationAction)
	PaymentChanged(ctx context.Context, payment *models.Payment, action models.NotificationAction)
}

// --- Task Client (Enqueuing tasks) ---

// RedisOpt derives the asynq connection from an existing Redis client.
func RedisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(RedisOpt(rdb))
}

// EmailTaskPayload is a templated e-mail to one recipient.
type EmailTaskPayload struct {
	To         string                 `json:"to"`
	TemplateID string                 `json:"template_id"`
	Locale     string                 `json:"locale,omitempty"`
	Data       map[string]interface{} `json:"data"`
}

func NewEmailTask(p EmailTaskPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email task payload: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, payload, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

// ImageTaskPayload points at an uploaded hotel image awaiting normalisation.
type ImageTaskPayload struct {
	S3Key   string `json:"s3_key"`
	HotelID string `json:"hotel_id"`
}

func NewImageProcessTask(s3Key string, hotelID utils.SixID) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, HotelID: hotelID.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, payload, asynq.Queue(QueueImages), asynq.MaxRetry(3)), nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies of every task handler.
type TaskProcessor struct {
	cfg       *config.Config
	sender    email.Sender
	templates TemplateRenderer
	storage   storage.IS3Storage
	hotels    HotelMaintainer
	bookings  BookingCompleter
	payments  OverdueInvoices
	approvals AdminRequestPurger
	notifier  Notifier
}

func NewTaskProcessor(
	cfg *config.Config,
	sender email.Sender,
	templates TemplateRenderer,
	storageService storage.IS3Storage,
	hotels HotelMaintainer,
	bookings BookingCompleter,
	payments OverdueInvoices,
	approvals AdminRequestPurger,
	notifier Notifier,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:       cfg,
		sender:    sender,
		templates: templates,
		storage:   storageService,
		hotels:    hotels,
		bookings:  bookings,
		payments:  payments,
		approvals: approvals,
		notifier:  notifier,
	}
}

// SetupServer builds the asynq server and mux for the requested worker roles.
// It returns nil for both when neither role is enabled. The caller runs the server.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	if !isBgWorker && !isImageWorker {
		fmt.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	queues := map[string]int{}
	mux := asynq.NewServeMux()

	if isBgWorker {
		queues[QueueCritical] = 6
		queues[QueueDefault] = 3
		queues[QueueLow] = 1
		mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
		mux.HandleFunc(TypeBookingAutoComplete, processor.HandleBookingAutoCompleteTask)
		mux.HandleFunc(TypeCalendarRoll, processor.HandleCalendarRollTask)
		mux.HandleFunc(TypeInvoiceCheckOverdue, processor.HandleInvoiceCheckOverdueTask)
		mux.HandleFunc(TypeAdminRequestPurge, processor.HandleAdminRequestPurgeTask)
		fmt.Println("Registered background task handlers (email & maintenance).")
	}

	if isImageWorker {
		queues[QueueImages] = 5
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		fmt.Println("Registered image processing task handlers.")
	}

	srv := asynq.NewServer(RedisOpt(rdb), asynq.Config{
		Queues: queues,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
		}),
	})
	return srv, mux
}

// PeriodicTask is one scheduler entry.
type PeriodicTask struct {
	Spec string
	Type string
	Opts []asynq.Option
}

// PeriodicTasks lists the maintenance jobs and how often they run.
func PeriodicTasks(cfg *config.Config) []PeriodicTask {
	autoComplete := cfg.AutoCompleteInterval
	if autoComplete <= 0 {
		autoComplete = time.Hour
	}
	return []PeriodicTask{
		{Spec: "@every " + autoComplete.String(), Type: TypeBookingAutoComplete},
		{Spec: "@every 1h", Type: TypeInvoiceCheckOverdue},
		{Spec: "@every 1h", Type: TypeAdminRequestPurge, Opts: []asynq.Option{asynq.Queue(QueueLow)}},
		{Spec: "@daily", Type: TypeCalendarRoll, Opts: []asynq.Option{asynq.Queue(QueueLow)}},
	}
}

// NewScheduler registers the periodic maintenance tasks. The caller runs it.
func NewScheduler(rdb *redis.Client, cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOpt(rdb), &asynq.SchedulerOpts{Location: time.UTC})
	for _, pt := range PeriodicTasks(cfg) {
		entryID, err := scheduler.Register(pt.Spec, asynq.NewTask(pt.Type, nil), pt.Opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", pt.Type, err)
		}
		log.Printf("Scheduled %s (%s) as entry %s", pt.Type, pt.Spec, entryID)
	}
	return scheduler, nil
}

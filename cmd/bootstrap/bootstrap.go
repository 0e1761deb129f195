package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-clinic-negotiation/config"
	deliveryHttp "go-clinic-negotiation/internal/delivery/http"
	"go-clinic-negotiation/internal/delivery/http/handler"
	"go-clinic-negotiation/internal/delivery/http/middleware"
	"go-clinic-negotiation/internal/domain/entity"
	"go-clinic-negotiation/internal/infrastructure/cache"
	"go-clinic-negotiation/internal/infrastructure/database"
	"go-clinic-negotiation/internal/repository"
	"go-clinic-negotiation/internal/service"
	"go-clinic-negotiation/internal/usecase"
	"go-clinic-negotiation/pkg/clock"
	"go-clinic-negotiation/pkg/jwt"
	"go-clinic-negotiation/pkg/validator"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Interval of the sweep that turns soon-firing reminders into delayed tasks.
const reminderSweepInterval = time.Hour

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server

	scheduler *service.TaskScheduler
	reminders usecase.ReminderUsecase
	sweepStop chan struct{}
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{sweepStop: make(chan struct{})}

	// Setup logger
	setupLogger()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg
	logrus.Info("Configuration loaded successfully")

	// Apply database migrations
	if err := database.RunMigrations(cfg.DB); err != nil {
		return nil, err
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	logrus.Info("Database connected successfully")

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	logrus.Info("Redis connected successfully")

	// Make sure the role table is populated before anyone registers
	if err := seedRoles(db); err != nil {
		return nil, fmt.Errorf("failed to seed roles: %w", err)
	}

	// Initialize all layers
	app.initialize(cfg, db, redisClient)

	return app, nil
}

// seedRoles inserts any missing rows of the fixed role set.
func seedRoles(db *gorm.DB) error {
	roleRepo := repository.NewRoleRepository()
	roles := []entity.Role{
		{ID: entity.RoleIDSuperAdmin, RoleName: entity.RoleSuperAdmin},
		{ID: entity.RoleIDClinicAdmin, RoleName: entity.RoleClinicAdmin},
		{ID: entity.RoleIDDoctor, RoleName: entity.RoleDoctor},
		{ID: entity.RoleIDPatient, RoleName: entity.RolePatient},
		{ID: entity.RoleIDSupportAdmin, RoleName: entity.RoleSupportAdmin},
	}
	for _, role := range roles {
		existing, err := roleRepo.FindByName(db, role.RoleName)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		role := role
		if err := roleRepo.Create(db, &role); err != nil {
			return err
		}
	}
	return nil
}

// setupLogger configures the logrus logger
func setupLogger() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

// initialize wires repositories, services, usecases, handlers and the server.
func (app *App) initialize(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) {
	log := logrus.StandardLogger()
	clk := clock.Real{}

	// Initialize JWT service and validator
	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	clinicRepo := repository.NewClinicRepository()
	doctorRepo := repository.NewDoctorRepository()
	treatmentRepo := repository.NewTreatmentRepository()
	appointmentRepo := repository.NewAppointmentRepository()
	eventRepo := repository.NewClinicEventRepository()
	suggestionRepo := repository.NewSuggestionRepository()
	scheduleRepo := repository.NewScheduleRepository()
	notificationRepo := repository.NewNotificationRepository()
	basketRepo := repository.NewBasketRepository()
	taskRepo := repository.NewDelayedTaskRepository()
	reminderRepo := repository.NewReminderRepository()
	ratingRepo := repository.NewRatingRepository()

	// Initialize services
	notifier := service.NewRedisNotifier(redisClient, log)
	presence := service.NewRedisPresence(redisClient, log)
	window := service.NewSupportWindow(cfg.Negotiation, clk)
	matcher := service.NewClinicMatcher(log, clinicRepo, eventRepo, presence, cfg.Negotiation.SearchRadiusKm)
	recommender := service.NewSlotRecommender(log, doctorRepo, scheduleRepo, clk)
	scheduler := service.NewTaskScheduler(db, log, taskRepo, clk, cfg.Negotiation.TaskPollInterval)
	payment := service.NewPaymentService(log, basketRepo, clk, cfg.Stripe.SecretKey)
	app.scheduler = scheduler

	// Initialize usecases
	negotiationUsecase := usecase.NewNegotiationUsecase(
		db, log,
		appointmentRepo, eventRepo, suggestionRepo, scheduleRepo, notificationRepo, userRepo,
		window, notifier, payment, scheduler, clk, cfg.Negotiation,
	)
	appointmentUsecase := usecase.NewAppointmentUsecase(
		db, log,
		appointmentRepo, basketRepo, treatmentRepo, suggestionRepo,
		matcher, recommender, negotiationUsecase, clk,
	)
	ratingUsecase := usecase.NewRatingUsecase(db, log, ratingRepo, appointmentRepo, clinicRepo, notifier)
	reminderUsecase := usecase.NewReminderUsecase(db, log, reminderRepo, appointmentRepo, scheduler, notifier, clk)
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, clinicRepo, jwtService, redisClient)
	clinicUsecase := usecase.NewClinicUsecase(db, log, clinicRepo, eventRepo, doctorRepo, treatmentRepo, userRepo, presence)
	treatmentUsecase := usecase.NewTreatmentUsecase(db, log, treatmentRepo)
	notificationUsecase := usecase.NewNotificationUsecase(db, notificationRepo)
	app.reminders = reminderUsecase

	// Bind delayed-task callbacks
	scheduler.Register(entity.TaskOpenTimeout, appointmentUsecase.HandleOpenTimeout)
	scheduler.Register(entity.TaskSuggestExpiry, appointmentUsecase.HandleSuggestExpiry)
	scheduler.Register(entity.TaskReservedExpiry, appointmentUsecase.HandleReservedExpiry)
	scheduler.Register(entity.TaskReminder, reminderUsecase.HandleReminder)
	scheduler.Register(entity.TaskRatingFollowUp, ratingUsecase.HandleFollowUp)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator)
	appointmentHandler := handler.NewAppointmentHandler(appointmentUsecase, negotiationUsecase, reminderUsecase, ratingUsecase, customValidator)
	clinicHandler := handler.NewClinicHandler(clinicUsecase, negotiationUsecase, ratingUsecase, customValidator)
	treatmentHandler := handler.NewTreatmentHandler(treatmentUsecase, customValidator)
	notificationHandler := handler.NewNotificationHandler(notificationUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient)
	corsMiddleware := middleware.NewCORSMiddleware()

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler, appointmentHandler, clinicHandler, treatmentHandler, notificationHandler,
		authMiddleware, corsMiddleware,
	)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	app.Server = &http.Server{
		Addr:    serverAddr,
		Handler: httpRouter,
	}
}

// Run starts the workers and the HTTP server, then handles graceful shutdown
func (app *App) Run() {
	// Start delayed-task polling
	app.scheduler.Start()

	// Periodic reminder sweep
	go app.runReminderSweep()

	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// runReminderSweep periodically schedules tasks for reminders firing soon.
func (app *App) runReminderSweep() {
	ticker := time.NewTicker(reminderSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := app.reminders.ScheduleDueSoon(context.Background()); err != nil {
				logrus.Warnf("Reminder sweep failed: %v", err)
			}
		case <-app.sweepStop:
			return
		}
	}
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Stop background workers first so no task fires mid-shutdown
	close(app.sweepStop)
	app.scheduler.Stop()

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/swiftcare-health/swiftcare-api/internal/cache"
	"github.com/swiftcare-health/swiftcare-api/internal/config"
	v1 "github.com/swiftcare-health/swiftcare-api/internal/handler/v1"
	"github.com/swiftcare-health/swiftcare-api/internal/jobs"
	"github.com/swiftcare-health/swiftcare-api/internal/repository"
	"github.com/swiftcare-health/swiftcare-api/internal/service"
	"github.com/swiftcare-health/swiftcare-api/pkg/auth"
	"github.com/swiftcare-health/swiftcare-api/pkg/database"
	"github.com/swiftcare-health/swiftcare-api/pkg/logger"
	"github.com/swiftcare-health/swiftcare-api/pkg/mailer"
	"github.com/swiftcare-health/swiftcare-api/pkg/metrics"
	"github.com/swiftcare-health/swiftcare-api/pkg/payment"
	"github.com/swiftcare-health/swiftcare-api/pkg/tracer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("starting swiftcare api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	collector := metrics.NewCollector("swiftcare")
	jwtManager := auth.NewJWTManager(cfg.JWT)

	var slotCache cache.SlotCache = cache.NopSlotCache{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unreachable, slot caching disabled", zap.Error(err))
		} else {
			slotCache = cache.NewRedisSlotCache(rdb, cfg.Redis.SlotCacheTTL, log)
			defer rdb.Close()
		}
	}

	var sender mailer.Sender = mailer.NopSender{}
	if cfg.SMTP.Enabled {
		sender = mailer.NewSMTPSender(cfg.SMTP)
	}

	var gateway payment.Gateway = payment.DisabledGateway{}
	if cfg.Razorpay.Enabled {
		gateway = payment.NewRazorpayGateway(cfg.Razorpay)
	}

	userRepo := repository.NewUserRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, log, collector)
	notifier := service.NewNotificationService(sender, log)
	authSvc := service.NewAuthService(userRepo, patientRepo, jwtManager, log)
	doctorSvc := service.NewDoctorService(doctorRepo, userRepo, auditSvc, log)
	patientSvc := service.NewPatientService(patientRepo, log)
	bookingSvc := service.NewBookingService(doctorRepo, patientRepo, apptRepo,
		slotCache, notifier, auditSvc, collector, log)
	paymentSvc := service.NewPaymentService(apptRepo, gateway, auditSvc, log)

	router := v1.NewRouter(v1.RouterDeps{
		Config:      cfg,
		Logger:      log,
		JWTManager:  jwtManager,
		Collector:   collector,
		Auth:        v1.NewAuthHandler(authSvc),
		Doctor:      v1.NewDoctorHandler(doctorSvc, bookingSvc),
		Patient:     v1.NewPatientHandler(patientSvc),
		Appointment: v1.NewAppointmentHandler(bookingSvc, paymentSvc),
		Admin:       v1.NewAdminHandler(doctorSvc, bookingSvc),
	})

	var reminder *jobs.ReminderJob
	if cfg.Reminder.Enabled {
		reminder = jobs.NewReminderJob(apptRepo, notifier, collector, cfg.Reminder, log)
		reminder.Start()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	if reminder != nil {
		reminder.Stop()
	}
	auditSvc.Shutdown()

	log.Info("shutdown complete")
}

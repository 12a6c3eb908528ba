package v1

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/swiftcare-health/swiftcare-api/internal/config"
	"github.com/swiftcare-health/swiftcare-api/internal/domain"
	"github.com/swiftcare-health/swiftcare-api/pkg/auth"
	"github.com/swiftcare-health/swiftcare-api/pkg/metrics"
)

type RouterDeps struct {
	Config      *config.Config
	Logger      *zap.Logger
	JWTManager  *auth.JWTManager
	Collector   *metrics.Collector
	Auth        *AuthHandler
	Doctor      *DoctorHandler
	Patient     *PatientHandler
	Appointment *AppointmentHandler
	Admin       *AdminHandler
}

// NewRouter wires the HTTP surface: public auth and doctor discovery,
// token-guarded booking and profile routes, and role-guarded admin routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(deps.Logger))
	r.Use(Metrics(deps.Collector))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  deps.Config.CORS.AllowedOrigins,
		AllowMethods:  deps.Config.CORS.AllowedMethods,
		AllowHeaders:  deps.Config.CORS.AllowedHeaders,
		MaxAge:        deps.Config.CORS.MaxAge,
		AllowWildcard: true,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", deps.Auth.Register)
		authGroup.POST("/login", deps.Auth.Login)
		authGroup.POST("/refresh", deps.Auth.Refresh)
		authGroup.POST("/change-password", AuthRequired(deps.JWTManager), deps.Auth.ChangePassword)
	}

	doctors := api.Group("/doctors")
	{
		doctors.GET("", deps.Doctor.List)
		doctors.GET("/:id", deps.Doctor.Get)
		doctors.GET("/:id/slots", deps.Doctor.Slots)

		doctorAuth := doctors.Group("", AuthRequired(deps.JWTManager),
			RequireRoles(domain.RoleDoctor, domain.RoleAdmin))
		doctorAuth.PATCH("/:id/availability", deps.Doctor.ChangeAvailability)
		doctorAuth.PATCH("/:id", deps.Doctor.UpdateProfile)
	}

	patients := api.Group("/patients", AuthRequired(deps.JWTManager))
	{
		patients.GET("/:id", deps.Patient.GetProfile)
		patients.PATCH("/:id", deps.Patient.UpdateProfile)
	}

	appointments := api.Group("/appointments", AuthRequired(deps.JWTManager))
	{
		appointments.POST("", RequireRoles(domain.RolePatient), deps.Appointment.Book)
		appointments.GET("", deps.Appointment.List)
		appointments.GET("/:id", deps.Appointment.Get)
		appointments.POST("/:id/cancel", deps.Appointment.Cancel)
		appointments.POST("/:id/complete", RequireRoles(domain.RoleDoctor, domain.RoleAdmin), deps.Appointment.Complete)
		appointments.POST("/:id/payment", RequireRoles(domain.RolePatient), deps.Appointment.CreatePaymentOrder)
		appointments.POST("/:id/payment/verify", RequireRoles(domain.RolePatient), deps.Appointment.VerifyPayment)
	}

	admin := api.Group("/admin", AuthRequired(deps.JWTManager), RequireRoles(domain.RoleAdmin))
	{
		admin.POST("/doctors", deps.Admin.AddDoctor)
		admin.GET("/dashboard", deps.Admin.Dashboard)
	}

	return r
}

package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/swiftcare-health/swiftcare-api/internal/domain/appointment"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/doctor"
	"github.com/swiftcare-health/swiftcare-api/internal/service"
)

type AdminHandler struct {
	doctorSvc  *service.DoctorService
	bookingSvc *service.BookingService
}

func NewAdminHandler(doctorSvc *service.DoctorService, bookingSvc *service.BookingService) *AdminHandler {
	return &AdminHandler{doctorSvc: doctorSvc, bookingSvc: bookingSvc}
}

type addDoctorRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	Speciality string `json:"speciality" binding:"required"`
	Degree     string `json:"degree"`
	Experience string `json:"experience"`
	About      string `json:"about"`
	Fees       int64  `json:"fees" binding:"required"`
	Address    string `json:"address"`
	ImageURL   string `json:"image_url"`
}

// AddDoctor creates a doctor profile and its login account.
func (h *AdminHandler) AddDoctor(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	var req addDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.doctorSvc.AddDoctor(c.Request.Context(), &doctor.CreateDoctorCommand{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Speciality: req.Speciality,
		Degree:     req.Degree,
		Experience: req.Experience,
		About:      req.About,
		Fees:       req.Fees,
		Address:    req.Address,
		ImageURL:   req.ImageURL,
	}, claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, toDoctorResponse(d))
}

// Dashboard returns appointment counts per status.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	counts, err := h.bookingSvc.DashboardCounts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, gin.H{
		"pending":   counts[appointment.StatusPending],
		"completed": counts[appointment.StatusCompleted],
		"cancelled": counts[appointment.StatusCancelled],
	})
}

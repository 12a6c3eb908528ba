package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/swiftcare-health/swiftcare-api/internal/domain/patient"
	"github.com/swiftcare-health/swiftcare-api/internal/service"
)

type PatientHandler struct {
	patientSvc *service.PatientService
}

func NewPatientHandler(patientSvc *service.PatientService) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc}
}

func (h *PatientHandler) GetProfile(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.patientSvc.GetProfile(c.Request.Context(), id, string(claims.Role), claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

type updatePatientRequest struct {
	Name        *string    `json:"name"`
	Phone       *string    `json:"phone"`
	AddressLine *string    `json:"address_line"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender"`
	ImageURL    *string    `json:"image_url"`
}

func (h *PatientHandler) UpdateProfile(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.UpdatePatientCommand{
		Name:        req.Name,
		Phone:       req.Phone,
		AddressLine: req.AddressLine,
		DateOfBirth: req.DateOfBirth,
		ImageURL:    req.ImageURL,
	}
	if req.Gender != nil {
		g := patient.Gender(*req.Gender)
		cmd.Gender = &g
	}

	p, err := h.patientSvc.UpdateProfile(c.Request.Context(), id, cmd, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/swiftcare-health/swiftcare-api/internal/domain"
	"github.com/swiftcare-health/swiftcare-api/internal/domain/appointment"
	"github.com/swiftcare-health/swiftcare-api/internal/service"
)

type AppointmentHandler struct {
	bookingSvc *service.BookingService
	paymentSvc *service.PaymentService
}

func NewAppointmentHandler(bookingSvc *service.BookingService, paymentSvc *service.PaymentService) *AppointmentHandler {
	return &AppointmentHandler{bookingSvc: bookingSvc, paymentSvc: paymentSvc}
}

type appointmentResponse struct {
	ID          string    `json:"id"`
	DoctorID    string    `json:"doctor_id"`
	PatientID   string    `json:"patient_id"`
	DateKey     string    `json:"date_key"`
	TimeSlot    string    `json:"time_slot"`
	DoctorName  string    `json:"doctor_name"`
	Speciality  string    `json:"speciality"`
	PatientName string    `json:"patient_name"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Paid        bool      `json:"paid"`
	ScheduledAt time.Time `json:"scheduled_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAppointmentResponse(a *appointment.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:          a.ID.String(),
		DoctorID:    a.DoctorID.String(),
		PatientID:   a.PatientID.String(),
		DateKey:     a.DateKey,
		TimeSlot:    a.TimeSlot,
		DoctorName:  a.Doctor.Name,
		Speciality:  a.Doctor.Speciality,
		PatientName: a.Patient.Name,
		Amount:      a.Amount,
		Status:      string(a.Status),
		Paid:        a.Paid,
		ScheduledAt: a.ScheduledAt,
		CreatedAt:   a.CreatedAt,
	}
}

type bookRequest struct {
	DoctorID string `json:"doctor_id" binding:"required"`
	DateKey  string `json:"date_key" binding:"required"`
	TimeSlot string `json:"time_slot" binding:"required"`
}

// Book reserves a slot for the calling patient.
func (h *AppointmentHandler) Book(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}
	if claims.PatientID == nil {
		respondError(c, http.StatusForbidden, "only patients can book appointments")
		return
	}

	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid doctor_id: must be a valid UUID")
		return
	}

	a, err := h.bookingSvc.Book(c.Request.Context(), &service.BookSlotCommand{
		DoctorID:  doctorID,
		PatientID: *claims.PatientID,
		DateKey:   req.DateKey,
		TimeSlot:  req.TimeSlot,
	}, claims.UserID, string(claims.Role), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, toAppointmentResponse(a))
}

// List returns the caller's appointments. Doctors and admins can filter by
// doctor, patient, and status; patients always see only their own.
func (h *AppointmentHandler) List(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid doctor_id: must be a valid UUID")
			return
		}
		q.DoctorID = &id
	}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid patient_id: must be a valid UUID")
			return
		}
		q.PatientID = &id
	}
	if raw := c.Query("status"); raw != "" {
		st := appointment.Status(raw)
		if !st.IsValid() {
			respondError(c, http.StatusBadRequest, "invalid status")
			return
		}
		q.Status = &st
	}
	// A doctor listing without an explicit filter sees their own schedule.
	if claims.Role == domain.RoleDoctor && q.DoctorID == nil {
		q.DoctorID = claims.DoctorID
	}

	page, err := h.bookingSvc.List(c.Request.Context(), q, string(claims.Role), claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]appointmentResponse, 0, len(page.Appointments))
	for _, a := range page.Appointments {
		out = append(out, toAppointmentResponse(a))
	}
	respondOK(c, gin.H{
		"appointments": out,
		"total_count":  page.TotalCount,
		"page":         page.Page,
		"page_size":    page.PageSize,
		"total_pages":  page.TotalPages,
	})
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.bookingSvc.Get(c.Request.Context(), id, string(claims.Role), claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

// Cancel frees the appointment's slot and marks it cancelled.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.bookingSvc.Cancel(c.Request.Context(), id, claims.UserID,
		string(claims.Role), claims.PatientID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

// Complete marks the appointment done. The slot stays consumed.
func (h *AppointmentHandler) Complete(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.bookingSvc.Complete(c.Request.Context(), id, claims.UserID,
		string(claims.Role), claims.DoctorID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

// CreatePaymentOrder starts an online payment for the caller's appointment.
func (h *AppointmentHandler) CreatePaymentOrder(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	orderID, err := h.paymentSvc.CreateOrder(c.Request.Context(), id, claims.PatientID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, gin.H{"order_id": orderID})
}

type verifyPaymentRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// VerifyPayment confirms the gateway order and marks the appointment paid.
func (h *AppointmentHandler) VerifyPayment(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req verifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.paymentSvc.VerifyOrder(c.Request.Context(), id, req.OrderID, claims.UserID, claims.PatientID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "payment verified"})
}

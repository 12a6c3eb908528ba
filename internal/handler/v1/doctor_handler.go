package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/swiftcare-health/swiftcare-api/internal/domain/doctor"
	"github.com/swiftcare-health/swiftcare-api/internal/schedule"
	"github.com/swiftcare-health/swiftcare-api/internal/service"
)

type DoctorHandler struct {
	doctorSvc  *service.DoctorService
	bookingSvc *service.BookingService
}

func NewDoctorHandler(doctorSvc *service.DoctorService, bookingSvc *service.BookingService) *DoctorHandler {
	return &DoctorHandler{doctorSvc: doctorSvc, bookingSvc: bookingSvc}
}

type doctorResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Speciality string `json:"speciality"`
	Degree     string `json:"degree"`
	Experience string `json:"experience"`
	About      string `json:"about"`
	Fees       int64  `json:"fees"`
	Address    string `json:"address"`
	ImageURL   string `json:"image_url"`
	Available  bool   `json:"available"`
}

func toDoctorResponse(d *doctor.Doctor) doctorResponse {
	return doctorResponse{
		ID:         d.ID.String(),
		Name:       d.Name,
		Speciality: d.Speciality,
		Degree:     d.Degree,
		Experience: d.Experience,
		About:      d.About,
		Fees:       d.Fees,
		Address:    d.Address,
		ImageURL:   d.ImageURL,
		Available:  d.Available,
	}
}

func (h *DoctorHandler) List(c *gin.Context) {
	q := &doctor.ListDoctorsQuery{
		Speciality:    c.Query("speciality"),
		OnlyAvailable: c.Query("available") == "true",
	}

	doctors, err := h.doctorSvc.ListDoctors(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]doctorResponse, 0, len(doctors))
	for _, d := range doctors {
		out = append(out, toDoctorResponse(d))
	}
	respondOK(c, out)
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.doctorSvc.GetDoctor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toDoctorResponse(d))
}

type daySlots struct {
	DateKey string   `json:"date_key"`
	Slots   []string `json:"slots"`
}

// Slots returns the doctor's open slots for the next seven days, today first.
func (h *DoctorHandler) Slots(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	now := time.Now()
	days, err := h.bookingSvc.AvailableSlots(c.Request.Context(), id, now)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	out := make([]daySlots, 0, len(days))
	for i, slots := range days {
		day := daySlots{
			DateKey: schedule.NewDateKey(now.AddDate(0, 0, i)).String(),
			Slots:   make([]string, 0, len(slots)),
		}
		for _, s := range slots {
			day.Slots = append(day.Slots, s.Display)
		}
		out = append(out, day)
	}
	respondOK(c, out)
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

func (h *DoctorHandler) ChangeAvailability(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req availabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.doctorSvc.ChangeAvailability(c.Request.Context(), id, *req.Available,
		string(claims.Role), claims.DoctorID, claims.UserID, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "availability updated"})
}

type updateDoctorRequest struct {
	Fees      *int64  `json:"fees"`
	Address   *string `json:"address"`
	About     *string `json:"about"`
	Available *bool   `json:"available"`
}

func (h *DoctorHandler) UpdateProfile(c *gin.Context) {
	claims := mustClaims(c)
	if claims == nil {
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.doctorSvc.UpdateProfile(c.Request.Context(), id, &doctor.UpdateDoctorCommand{
		Fees:      req.Fees,
		Address:   req.Address,
		About:     req.About,
		Available: req.Available,
		UpdatedBy: claims.UserID,
	}, string(claims.Role), claims.DoctorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toDoctorResponse(d))
}

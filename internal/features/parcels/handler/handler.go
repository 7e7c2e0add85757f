package handler

import (
	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/auth"
	"parcel-tracker/internal/features/parcels/domain"
	"parcel-tracker/internal/features/parcels/ports"

	"github.com/gofiber/fiber/v2"
)

// ParcelHandler handles HTTP requests for parcels.
type ParcelHandler struct {
	service ports.Service
}

// NewParcelHandler creates a new ParcelHandler.
func NewParcelHandler(service ports.Service) *ParcelHandler {
	return &ParcelHandler{
		service: service,
	}
}

// ParcelResponse wraps a single parcel.
type ParcelResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Parcel   *domain.Parcel `json:"parcel"`
	Warnings []string       `json:"warnings,omitempty"`
}

// ListResponse wraps one page of parcels.
type ListResponse struct {
	Success     bool            `json:"success"`
	Count       int             `json:"count"`
	Total       int64           `json:"total"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	Parcels     []domain.Parcel `json:"parcels"`
}

// MetricsResponse wraps the dashboard counters.
type MetricsResponse struct {
	Success     bool             `json:"success"`
	Metrics     *domain.Metrics  `json:"metrics"`
	WeeklyStats []domain.DayStat `json:"weeklyStats"`
}

// Create handles POST /api/parcels.
// @Summary Book a parcel
// @Description Creates a parcel for the caller, or for `customer` when the caller is an admin.
// @Tags Parcels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param parcel body domain.BookingRequest true "Booking details"
// @Success 201 {object} ParcelResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Router /api/parcels [post]
func (h *ParcelHandler) Create(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	var req domain.BookingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Invalid("Invalid request body")
	}

	res, err := h.service.Create(c.UserContext(), p, &req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(ParcelResponse{
		Success:  true,
		Message:  "Parcel created successfully",
		Parcel:   res.Parcel,
		Warnings: res.Warnings,
	})
}

// UpdateStatus handles PUT /api/parcels/:id/status.
// @Summary Update parcel status
// @Description Moves a parcel to a new delivery status and appends a tracking entry.
// @Tags Parcels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parcel ID"
// @Param status body domain.TransitionRequest true "New status"
// @Success 200 {object} ParcelResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /api/parcels/{id}/status [put]
func (h *ParcelHandler) UpdateStatus(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	var req domain.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Invalid("Invalid request body")
	}

	res, err := h.service.Transition(c.UserContext(), p, c.Params("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(ParcelResponse{
		Success:  true,
		Message:  "Parcel status updated successfully",
		Parcel:   res.Parcel,
		Warnings: res.Warnings,
	})
}

// Track handles GET /api/parcels/track/:trackingNumber.
// @Summary Track a parcel
// @Description Looks a parcel up by tracking number. History is newest first.
// @Tags Parcels
// @Produce json
// @Security BearerAuth
// @Param trackingNumber path string true "Tracking number"
// @Success 200 {object} ParcelResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /api/parcels/track/{trackingNumber} [get]
func (h *ParcelHandler) Track(c *fiber.Ctx) error {
	parcel, err := h.service.TrackByCode(c.UserContext(), c.Params("trackingNumber"))
	if err != nil {
		return err
	}
	return c.JSON(ParcelResponse{Success: true, Parcel: parcel})
}

// Get handles GET /api/parcels/:id.
// @Summary Get a parcel
// @Tags Parcels
// @Produce json
// @Security BearerAuth
// @Param id path string true "Parcel ID"
// @Success 200 {object} ParcelResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /api/parcels/{id} [get]
func (h *ParcelHandler) Get(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	parcel, err := h.service.Get(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ParcelResponse{Success: true, Parcel: parcel})
}

// List handles GET /api/parcels.
// @Summary List parcels
// @Description Lists the parcels visible to the caller, newest first.
// @Tags Parcels
// @Produce json
// @Security BearerAuth
// @Param status query string false "Delivery status or all"
// @Param search query string false "Tracking number, name or phone"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(10)
// @Success 200 {object} ListResponse
// @Failure 400 {object} server.ErrorResponse
// @Router /api/parcels [get]
func (h *ParcelHandler) List(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	page, err := h.service.List(c.UserContext(), p, listParams(c))
	if err != nil {
		return err
	}
	return c.JSON(newListResponse(page))
}

// MyParcels handles GET /api/parcels/my-parcels.
// @Summary List my parcels
// @Tags Parcels
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ListResponse
// @Failure 403 {object} server.ErrorResponse
// @Router /api/parcels/my-parcels [get]
func (h *ParcelHandler) MyParcels(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	params := listParams(c)
	if c.Query("limit") == "" {
		params.Limit = domain.MaxPageLimit
	}
	page, err := h.service.MyParcels(c.UserContext(), p, params)
	if err != nil {
		return err
	}
	return c.JSON(newListResponse(page))
}

// Metrics handles GET /api/parcels/metrics.
// @Summary Dashboard metrics
// @Description Counters and a 7 day booking series over the caller's parcels.
// @Tags Parcels
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MetricsResponse
// @Router /api/parcels/metrics [get]
func (h *ParcelHandler) Metrics(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	m, err := h.service.ComputeMetrics(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(MetricsResponse{Success: true, Metrics: m, WeeklyStats: m.Weekly})
}

func listParams(c *fiber.Ctx) domain.ListParams {
	return domain.ListParams{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", domain.DefaultPageLimit),
	}
}

func newListResponse(page domain.Page) ListResponse {
	parcels := page.Parcels
	if parcels == nil {
		parcels = []domain.Parcel{}
	}
	return ListResponse{
		Success:     true,
		Count:       len(parcels),
		Total:       page.Total,
		TotalPages:  page.TotalPages,
		CurrentPage: page.Page,
		Parcels:     parcels,
	}
}

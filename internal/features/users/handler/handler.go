package handler

import (
	"io"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/auth"
	"parcel-tracker/internal/features/users/domain"
	"parcel-tracker/internal/features/users/ports"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for authentication and accounts.
type UserHandler struct {
	service ports.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service ports.Service) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// AuthResponse carries a token and its account.
type AuthResponse struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message,omitempty"`
	Token    string       `json:"token"`
	User     *domain.User `json:"user"`
	Warnings []string     `json:"warnings,omitempty"`
}

// UserResponse wraps a single account.
type UserResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *domain.User `json:"user"`
}

// ProfileResponse wraps an account with its statistics.
type ProfileResponse struct {
	Success bool            `json:"success"`
	User    *domain.Profile `json:"user"`
}

// ListResponse wraps one page of accounts.
type ListResponse struct {
	Success     bool          `json:"success"`
	Count       int           `json:"count"`
	Total       int64         `json:"total"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	Users       []domain.User `json:"users"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ImageResponse carries the stored profile image path.
type ImageResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ProfileImage string `json:"profileImage"`
}

// Register handles POST /api/auth/register.
// @Summary Register
// @Description Creates a customer or agent account and returns a bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body domain.RegisterRequest true "Account details"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} server.ErrorResponse
// @Router /api/auth/register [post]
func (h *UserHandler) Register(c *fiber.Ctx) error {
	var req domain.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Invalid("Invalid request body")
	}

	res, err := h.service.Register(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Success:  true,
		Message:  "User registered successfully",
		Token:    res.Token,
		User:     res.User,
		Warnings: res.Warnings,
	})
}

// Login handles POST /api/auth/login.
// @Summary Log in
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body domain.LoginRequest true "Email and password"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} server.ErrorResponse
// @Router /api/auth/login [post]
func (h *UserHandler) Login(c *fiber.Ctx) error {
	var req domain.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Invalid("Invalid request body")
	}

	res, err := h.service.Login(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.JSON(AuthResponse{Success: true, Message: "Login successful", Token: res.Token, User: res.User})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so the client
// just discards its copy.
// @Summary Log out
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Router /api/auth/logout [post]
func (h *UserHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(MessageResponse{Success: true, Message: "Logged out successfully"})
}

// Profile handles GET /api/auth/profile and GET /api/users/me.
// @Summary Current account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} server.ErrorResponse
// @Router /api/users/me [get]
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	u, err := h.service.Profile(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(UserResponse{Success: true, User: u})
}

// UpdateProfile handles PUT /api/auth/profile and PUT /api/users/me.
// @Summary Update current account
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body domain.UpdateRequest true "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 400 {object} server.ErrorResponse
// @Router /api/users/me [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	var req domain.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Invalid("Invalid request body")
	}

	u, err := h.service.UpdateProfile(c.UserContext(), p, &req)
	if err != nil {
		return err
	}
	return c.JSON(UserResponse{Success: true, Message: "Profile updated successfully", User: u})
}

// ChangePassword handles PUT /api/users/me/password.
// @Summary Change password
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param passwords body domain.PasswordRequest true "Current and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} server.ErrorResponse
// @Router /api/users/me/password [put]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	var req domain.PasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Invalid("Invalid request body")
	}

	if err := h.service.ChangePassword(c.UserContext(), p, &req); err != nil {
		return err
	}
	return c.JSON(MessageResponse{Success: true, Message: "Password updated successfully"})
}

// Deactivate handles DELETE /api/users/me.
// @Summary Deactivate current account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 400 {object} server.ErrorResponse
// @Router /api/users/me [delete]
func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	if err := h.service.Deactivate(c.UserContext(), p); err != nil {
		return err
	}
	return c.JSON(MessageResponse{Success: true, Message: "Account deactivated successfully"})
}

// UploadProfileImage handles POST /api/users/me/profile-image.
// @Summary Upload profile image
// @Description Accepts a jpeg, png or gif file up to 5MB in the `profileImage` form field.
// @Tags Users
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param profileImage formData file true "Image"
// @Success 200 {object} ImageResponse
// @Failure 400 {object} server.ErrorResponse
// @Router /api/users/me/profile-image [post]
func (h *UserHandler) UploadProfileImage(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)

	fh, err := c.FormFile("profileImage")
	if err != nil {
		return apperr.Invalid("Please upload an image file")
	}
	if fh.Size > domain.MaxProfileImageBytes {
		return apperr.Invalid("Image must be 5MB or smaller")
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, domain.MaxProfileImageBytes+1))
	if err != nil {
		return err
	}

	url, err := h.service.UploadProfileImage(c.UserContext(), p, fh.Filename, data)
	if err != nil {
		return err
	}
	return c.JSON(ImageResponse{Success: true, Message: "Profile image uploaded successfully", ProfileImage: url})
}

// List handles GET /api/users.
// @Summary List accounts
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param role query string false "customer, agent, admin or all"
// @Param search query string false "Name, email or phone"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} ListResponse
// @Failure 403 {object} server.ErrorResponse
// @Router /api/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	q, err := domain.NewQuery(c.Query("role"), c.Query("search"), c.QueryInt("page", 1), c.QueryInt("limit", domain.DefaultPageLimit))
	if err != nil {
		return err
	}

	page, err := h.service.List(c.UserContext(), q)
	if err != nil {
		return err
	}
	users := page.Users
	if users == nil {
		users = []domain.User{}
	}
	return c.JSON(ListResponse{
		Success:     true,
		Count:       len(users),
		Total:       page.Total,
		TotalPages:  page.TotalPages,
		CurrentPage: page.Page,
		Users:       users,
	})
}

// Get handles GET /api/users/:id.
// @Summary Get an account with statistics
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /api/users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	prof, err := h.service.GetWithStats(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ProfileResponse{Success: true, User: prof})
}

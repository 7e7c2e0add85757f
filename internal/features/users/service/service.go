package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/features/users/domain"
	"parcel-tracker/internal/features/users/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// TaskSendWelcome greets a newly registered account.
const TaskSendWelcome = "users.send_welcome"

const (
	msgInvalidCredentials = "Invalid credentials"
	msgDeactivated        = "Account is deactivated. Please contact admin."
)

// Options tunes the service.
type Options struct {
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Now        func() time.Time
	NewID      func() string
}

// Deps are the collaborators of the service. Images, Queue and Welcomer are optional.
type Deps struct {
	Repo     ports.Repository
	Stats    ports.ParcelStats
	Tokens   ports.TokenIssuer
	Images   ports.ImageStore
	Queue    ports.TaskQueue
	Welcomer ports.Welcomer
}

var _ ports.Service = (*Service)(nil)

// Service manages accounts, credentials and profiles. It also serves as the
// contact directory of the parcel engine.
type Service struct {
	repo     ports.Repository
	stats    ports.ParcelStats
	tokens   ports.TokenIssuer
	images   ports.ImageStore
	queue    ports.TaskQueue
	welcomer ports.Welcomer
	opts     Options
}

// New creates a Service and registers the welcome task when a queue and welcomer are given.
func New(deps Deps, opts Options) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	s := &Service{
		repo:     deps.Repo,
		stats:    deps.Stats,
		tokens:   deps.Tokens,
		images:   deps.Images,
		queue:    deps.Queue,
		welcomer: deps.Welcomer,
		opts:     opts,
	}
	if s.queue != nil && s.welcomer != nil {
		s.queue.Handle(TaskSendWelcome, s.handleSendWelcome)
	}
	return s
}

// Register creates a customer or agent account and signs a token for it.
func (s *Service) Register(ctx context.Context, req *domain.RegisterRequest) (*ports.AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(req.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Duplicate("User already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("service: register: %w", err)
	}

	role := req.Role
	if role == "" {
		role = identity.RoleCustomer
	}
	u := &domain.User{
		Name:     req.Name,
		Email:    email,
		Phone:    req.Phone,
		Role:     role,
		IsActive: true,
	}
	if req.Address != nil {
		u.Address = *req.Address
	}
	if role == identity.RoleAgent {
		u.Agent = req.Agent
	}
	if err := s.create(ctx, u, req.Password); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(identity.Principal{ID: u.ID, Role: u.Role})
	if err != nil {
		return nil, fmt.Errorf("service: issue token: %w", err)
	}
	res := &ports.AuthResult{Token: token, User: u}
	if s.queue != nil && s.welcomer != nil {
		if err := s.queue.Enqueue(context.WithoutCancel(ctx), TaskSendWelcome, u.Contact()); err != nil {
			logger.Get().Warn("schedule welcome email", zap.String("user_id", u.ID), zap.Error(err))
			res.Warnings = append(res.Warnings, "welcome email was not scheduled")
		}
	}
	logger.Get().Info("user registered", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return res, nil
}

func (s *Service) create(ctx context.Context, u *domain.User, password string) error {
	if err := u.Validate(); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("service: hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.ID = s.opts.NewID()
	u.CreatedAt = s.opts.Now()
	u.UpdatedAt = u.CreatedAt
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrDuplicateKey) {
			return apperr.Duplicate("User already exists")
		}
		return fmt.Errorf("service: create user: %w", err)
	}
	return nil
}

// Login verifies credentials and records the login time.
func (s *Service) Login(ctx context.Context, req *domain.LoginRequest) (*ports.AuthResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperr.NewValidation("email is required", "password is required")
	}
	u, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(req.Email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("service: login: %w", err)
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized(msgDeactivated)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	at := s.opts.Now()
	if err := s.repo.TouchLogin(ctx, u.ID, at); err != nil {
		logger.Get().Warn("record login time", zap.String("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLogin = &at
	}

	token, err := s.tokens.Issue(identity.Principal{ID: u.ID, Role: u.Role})
	if err != nil {
		return nil, fmt.Errorf("service: issue token: %w", err)
	}
	return &ports.AuthResult{Token: token, User: u}, nil
}

// Profile returns the caller's account.
func (s *Service) Profile(ctx context.Context, p identity.Principal) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("service: profile: %w", err)
	}
	return u, nil
}

// UpdateProfile applies the set fields of req to the caller's account.
func (s *Service) UpdateProfile(ctx context.Context, p identity.Principal, req *domain.UpdateRequest) (*domain.User, error) {
	u, err := s.Profile(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := req.Apply(u); err != nil {
		return nil, err
	}
	u.UpdatedAt = s.opts.Now()
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("service: update profile: %w", err)
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, p identity.Principal, req *domain.PasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	u, err := s.Profile(ctx, p)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return apperr.Invalid("Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("service: hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = s.opts.Now()
	if err := s.repo.Save(ctx, u); err != nil {
		return fmt.Errorf("service: change password: %w", err)
	}
	return nil
}

// Deactivate disables the caller's account unless they still have parcels in motion.
func (s *Service) Deactivate(ctx context.Context, p identity.Principal) error {
	u, err := s.Profile(ctx, p)
	if err != nil {
		return err
	}
	active, err := s.stats.HasActiveParcels(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("service: deactivate: %w", err)
	}
	if active {
		return apperr.Invalid("Cannot delete account with active parcels")
	}

	if u.ProfileImage != "" && s.images != nil {
		if err := s.images.Remove(ctx, u.ProfileImage); err != nil {
			logger.Get().Warn("remove profile image", zap.String("user_id", u.ID), zap.Error(err))
		}
		u.ProfileImage = ""
	}
	u.IsActive = false
	u.UpdatedAt = s.opts.Now()
	if err := s.repo.Save(ctx, u); err != nil {
		return fmt.Errorf("service: deactivate: %w", err)
	}
	logger.Get().Info("user deactivated", zap.String("user_id", u.ID))
	return nil
}

// UploadProfileImage stores a new image and removes the previous one.
func (s *Service) UploadProfileImage(ctx context.Context, p identity.Principal, filename string, data []byte) (string, error) {
	if s.images == nil {
		return "", apperr.Invalid("Profile images are not enabled")
	}
	ext, err := domain.CheckProfileImage(filename, data)
	if err != nil {
		return "", err
	}
	u, err := s.Profile(ctx, p)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("profileImage-%d-%s%s", s.opts.Now().UnixMilli(), uuid.NewString()[:8], ext)
	url, err := s.images.Save(ctx, name, data)
	if err != nil {
		return "", fmt.Errorf("service: save profile image: %w", err)
	}
	old := u.ProfileImage
	u.ProfileImage = url
	u.UpdatedAt = s.opts.Now()
	if err := s.repo.Save(ctx, u); err != nil {
		_ = s.images.Remove(ctx, url)
		return "", fmt.Errorf("service: set profile image: %w", err)
	}
	if old != "" {
		if err := s.images.Remove(ctx, old); err != nil {
			logger.Get().Warn("remove old profile image", zap.String("user_id", u.ID), zap.Error(err))
		}
	}
	return url, nil
}

// List returns one page of accounts for administrators.
func (s *Service) List(ctx context.Context, q domain.Query) (domain.Page, error) {
	users, total, err := s.repo.List(ctx, q)
	if err != nil {
		return domain.Page{}, fmt.Errorf("service: list users: %w", err)
	}
	pages := 0
	if q.Limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(q.Limit)))
	}
	return domain.Page{Users: users, Total: total, Page: q.Page, TotalPages: pages}, nil
}

// GetWithStats returns an account with statistics matching its role.
func (s *Service) GetWithStats(ctx context.Context, id string) (*domain.Profile, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("User not found")
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: get user: %w", err)
	}

	prof := &domain.Profile{User: u, Stats: struct{}{}}
	switch u.Role {
	case identity.RoleCustomer:
		rows, err := s.stats.CustomerStats(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("service: customer stats: %w", err)
		}
		prof.Stats = domain.NewCustomerStats(rows)
	case identity.RoleAgent:
		rows, err := s.stats.AgentStats(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("service: agent stats: %w", err)
		}
		prof.Stats = domain.NewAgentStats(rows)
	}
	return prof, nil
}

// EnsureAdmin creates the bootstrap administrator if no account uses email.
// An existing account is left untouched.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("service: ensure admin: %w", err)
	}
	if name == "" {
		name = "Administrator"
	}
	u := &domain.User{Name: name, Email: email, Role: identity.RoleAdmin, IsActive: true}
	if err := s.create(ctx, u, password); err != nil && !errors.Is(err, apperr.ErrDuplicateKey) {
		return err
	}
	logger.Get().Info("bootstrap admin created", zap.String("email", email))
	return nil
}

// Contact returns the contact details of any account.
func (s *Service) Contact(ctx context.Context, userID string) (identity.Contact, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return identity.Contact{}, apperr.NotFound("User not found")
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return identity.Contact{}, err
	}
	return u.Contact(), nil
}

// IsActiveAgent reports whether userID is an active agent account.
func (s *Service) IsActiveAgent(ctx context.Context, userID string) (bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return false, nil
	}
	u, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Role == identity.RoleAgent && u.IsActive, nil
}

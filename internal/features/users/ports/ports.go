package ports

import (
	"context"
	"time"

	"parcel-tracker/internal/core/identity"
	"parcel-tracker/internal/core/tasks"
	"parcel-tracker/internal/features/users/domain"
)

// Repository persists user accounts.
type Repository interface {
	// Create inserts u. An email clash yields an error wrapping apperr.ErrDuplicateKey.
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail looks up a normalized address.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Save writes every mutable column of u.
	Save(ctx context.Context, u *domain.User) error
	// TouchLogin records a successful login.
	TouchLogin(ctx context.Context, id string, at time.Time) error
	// List returns one page of users, newest first, and the total match count.
	List(ctx context.Context, q domain.Query) ([]domain.User, int64, error)
}

// ParcelStats reads the parcel store on behalf of user operations.
type ParcelStats interface {
	// CustomerStats groups the customer's bookings by status with amounts.
	CustomerStats(ctx context.Context, customerID string) ([]domain.StatusCount, error)
	// AgentStats groups the agent's assignments by status.
	AgentStats(ctx context.Context, agentID string) ([]domain.StatusCount, error)
	// HasActiveParcels reports whether the customer has non-terminal parcels.
	HasActiveParcels(ctx context.Context, customerID string) (bool, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(p identity.Principal) (string, error)
}

// ImageStore keeps uploaded profile images.
type ImageStore interface {
	// Save writes data under name and returns its public path.
	Save(ctx context.Context, name string, data []byte) (string, error)
	// Remove deletes a file previously returned by Save. Missing files are ignored.
	Remove(ctx context.Context, publicPath string) error
}

// Welcomer sends the greeting to a new account.
type Welcomer interface {
	Welcome(ctx context.Context, to identity.Contact) error
}

// TaskQueue is the background-worker boundary.
type TaskQueue interface {
	Enqueue(ctx context.Context, kind string, payload any) error
	Handle(kind string, h tasks.Handler)
}

// AuthResult is a signed token and its account.
type AuthResult struct {
	Token    string
	User     *domain.User
	Warnings []string
}

// Service is the account API as seen by the HTTP layer.
type Service interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*AuthResult, error)
	Profile(ctx context.Context, p identity.Principal) (*domain.User, error)
	UpdateProfile(ctx context.Context, p identity.Principal, req *domain.UpdateRequest) (*domain.User, error)
	ChangePassword(ctx context.Context, p identity.Principal, req *domain.PasswordRequest) error
	Deactivate(ctx context.Context, p identity.Principal) error
	UploadProfileImage(ctx context.Context, p identity.Principal, filename string, data []byte) (string, error)
	List(ctx context.Context, q domain.Query) (domain.Page, error)
	GetWithStats(ctx context.Context, id string) (*domain.Profile, error)
}

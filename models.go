package moments

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole string

const (
	// RoleGuest is an guest role (ie. view)
	RoleGuest UserRole = "guest"
	// RoleMember us a member (i.e. view, upload)
	RoleMember UserRole = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin UserRole = "admin"
	// RoleOwner is an admin role (i.e. view, edit, create, delete)
	RoleOwner UserRole = "owner"
)

// UserStatus tracks where an account is in the sign up lifecycle
type UserStatus string

const (
	// UserStatusPending accounts registered but did not verify their email
	UserStatusPending UserStatus = "pending"
	// UserStatusActive accounts can sign in
	UserStatusActive UserStatus = "active"
	// UserStatusDisabled accounts are blocked
	UserStatusDisabled UserStatus = "disabled"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole       `bun:"user_role,notnull" json:"user_role,omitempty"`
	Status         UserStatus     `bun:"status,notnull" json:"status,omitempty"`
	Username       string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"-"`
	EmailValidated bool           `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoginAttempts  int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	VerifiedAt     *time.Time     `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	Metadata       map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// EnsureStatus defaults an empty status to pending
func (u *User) EnsureStatus() {
	if u != nil && u.Status == "" {
		u.Status = UserStatusPending
	}
}

// VerificationStrategy is how the code reaches the user
type VerificationStrategy = string

// StrategyEmailCode sends a numeric code to the email address
const StrategyEmailCode VerificationStrategy = "email_code"

// VerificationStatus is the state of a single verification attempt
type VerificationStatus = string

const (
	// VerificationUnverified code was sent, waiting for the user
	VerificationUnverified VerificationStatus = "unverified"
	// VerificationVerified code matched
	VerificationVerified VerificationStatus = "verified"
	// VerificationFailed too many wrong codes
	VerificationFailed VerificationStatus = "failed"
	// VerificationExpired code outlived its window
	VerificationExpired VerificationStatus = "expired"
)

// SignUpStatus mirrors the state reported back to the sign up flow
type SignUpStatus = string

const (
	// SignUpMissingRequirements the account still needs verification
	SignUpMissingRequirements SignUpStatus = "missing_requirements"
	// SignUpComplete the account is active and a session can be issued
	SignUpComplete SignUpStatus = "complete"
	// SignUpAbandoned the verification can no longer complete
	SignUpAbandoned SignUpStatus = "abandoned"
)

// EmailVerification is a pending email code for a user
type EmailVerification struct {
	bun.BaseModel `bun:"table:email_verifications,alias:evr"`
	ID            uuid.UUID            `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID            `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User                `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Email         string               `bun:"email,notnull" json:"email,omitempty"`
	Strategy      VerificationStrategy `bun:"strategy,notnull" json:"strategy,omitempty"`
	CodeHash      string               `bun:"code_hash,notnull" json:"-"`
	Status        VerificationStatus   `bun:"status,notnull" json:"status,omitempty"`
	Attempts      int                  `bun:"attempts,notnull" json:"attempts"`
	ExpiresAt     time.Time            `bun:"expires_at,notnull" json:"expires_at"`
	VerifiedAt    *time.Time           `bun:"verified_at,nullzero" json:"verified_at,omitempty"`
	CreatedAt     *time.Time           `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time           `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsExpired reports whether the code can no longer be used at now
func (v *EmailVerification) IsExpired(now time.Time) bool {
	return !v.ExpiresAt.After(now)
}

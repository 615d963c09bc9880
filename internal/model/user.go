package model

import "time"

// Role values stored in users.role.  EMPLOYEE accounts additionally carry a
// showroom assignment; USER and ADMIN accounts never do.
const (
	RoleUser     = "USER"
	RoleEmployee = "EMPLOYEE"
	RoleAdmin    = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  The json tags are omitted
// because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate JSON tags and
// strip credential material before serializing.
//
// Fields:
//  ID                       – primary key identifier of the user.
//  Username                 – unique lowercase login name.
//  Name                     – display name.
//  Email                    – unique email address.
//  Phone                    – 10-digit phone number.
//  PasswordHash             – bcrypt hashed password.
//  Role                     – USER, EMPLOYEE or ADMIN.
//  ShowroomID               – assigned showroom (employees only, nullable).
//  Address                  – optional free-text postal address.
//  IsActive                 – soft-delete flag; accounts are never hard-deleted.
//  EmailVerified            – whether the verification link was consumed.
//  EmailVerificationToken   – SHA-256 hash of the pending verification token.
//  EmailVerificationExpires – verification token expiry.
//  PasswordResetToken       – SHA-256 hash of the pending reset token.
//  PasswordResetExpires     – reset token expiry.
//  CreatedAt                – timestamp of creation.
//  UpdatedAt                – timestamp of last update.
type User struct {
	ID                       uint64     // users.id
	Username                 string     // users.username
	Name                     string     // users.name
	Email                    string     // users.email
	Phone                    string     // users.phone
	PasswordHash             string     // users.password_hash
	Role                     string     // users.role
	ShowroomID               *uint64    // users.showroom_id (nullable)
	Address                  *string    // users.address (nullable)
	IsActive                 bool       // users.is_active
	EmailVerified            bool       // users.email_verified
	EmailVerificationToken   *string    // users.email_verification_token (nullable)
	EmailVerificationExpires *time.Time // users.email_verification_expires (nullable)
	PasswordResetToken       *string    // users.password_reset_token (nullable)
	PasswordResetExpires     *time.Time // users.password_reset_expires (nullable)
	CreatedAt                time.Time  // users.created_at
	UpdatedAt                time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user.  The plain token is never stored; only its
// SHA-256 hash.  On rotation the old row is revoked and points at the hash
// of its replacement, which is what makes reuse detectable.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – owner of the token.
//  TokenHash      – SHA-256 hex digest of the token value.
//  ExpiresAt      – expiration timestamp.
//  RevokedAt      – when the token was revoked (null if still active).
//  ReplacedByHash – hash of the token issued in its place (null unless rotated).
//  CreatedAt      – timestamp of creation.
type RefreshToken struct {
	ID             uint64     // refresh_tokens.id
	UserID         uint64     // refresh_tokens.user_id
	TokenHash      string     // refresh_tokens.token_hash
	ExpiresAt      time.Time  // refresh_tokens.expires_at
	RevokedAt      *time.Time // refresh_tokens.revoked_at (nullable)
	ReplacedByHash *string    // refresh_tokens.replaced_by_hash (nullable)
	CreatedAt      time.Time  // refresh_tokens.created_at
}

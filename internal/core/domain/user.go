package domain

import (
	"slices"
	"time"
)

// UserType discriminates the three account variants.
type UserType string

const (
	UserTypeClient  UserType = "client"
	UserTypeCrafter UserType = "crafter"
	UserTypeAdmin   UserType = "admin"
)

// UserStatus is the moderation state of an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusBlocked   UserStatus = "blocked"
	UserStatusSuspended UserStatus = "suspended"
)

// Valid reports whether s is a known account status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusBlocked, UserStatusSuspended:
		return true
	}
	return false
}

// MembershipType is the crafter's tier.
type MembershipType string

const (
	MembershipFree    MembershipType = "free"
	MembershipPremium MembershipType = "premium"
)

// NotificationPreferences are the channels a client opted into.
type NotificationPreferences struct {
	Email bool `json:"email" bson:"email"`
	SMS   bool `json:"sms" bson:"sms"`
	Push  bool `json:"push" bson:"push"`
}

// ClientProfile holds client-only fields.
type ClientProfile struct {
	Notifications NotificationPreferences `json:"notifications" bson:"notifications"`
	SavedCrafters []string                `json:"saved_crafters" bson:"saved_crafters"`
}

// PriceRange is the indicative price band a crafter advertises.
type PriceRange struct {
	Min float64 `json:"min" bson:"min"`
	Max float64 `json:"max" bson:"max"`
}

// CrafterProfile holds crafter-only fields.
type CrafterProfile struct {
	Specialty           string         `json:"specialty" bson:"specialty"`
	Experience          string         `json:"experience" bson:"experience"`
	Rating              float64        `json:"rating" bson:"rating"`
	CompletedOrders     int            `json:"completed_orders" bson:"completed_orders"`
	MembershipType      MembershipType `json:"membership_type" bson:"membership_type"`
	MembershipExpiresAt *time.Time     `json:"membership_expires_at,omitempty" bson:"membership_expires_at,omitempty"`
	ServiceArea         []string       `json:"service_area" bson:"service_area"`
	PriceRange          *PriceRange    `json:"price_range,omitempty" bson:"price_range,omitempty"`
}

// AdminProfile holds back-office fields. Permissions are derived from Role.
type AdminProfile struct {
	Role        AdminRole    `json:"role" bson:"role"`
	Permissions []Permission `json:"permissions" bson:"permissions"`
	Department  string       `json:"department,omitempty" bson:"department,omitempty"`
	EmployeeID  string       `json:"employee_id,omitempty" bson:"employee_id,omitempty"`
	CreatedBy   string       `json:"created_by,omitempty" bson:"created_by,omitempty"`
}

// User is a marketplace account. Exactly one of Client, Crafter or Admin is
// set, matching Type.
type User struct {
	ID           string          `json:"id" bson:"_id"`
	Email        string          `json:"email" bson:"email"`
	PasswordHash string          `json:"-" bson:"password_hash"`
	Name         string          `json:"name" bson:"name"`
	Phone        string          `json:"phone" bson:"phone"`
	Location     string          `json:"location" bson:"location"`
	Type         UserType        `json:"user_type" bson:"user_type"`
	Status       UserStatus      `json:"status" bson:"status"`
	Verified     bool            `json:"verified" bson:"verified"`
	Avatar       string          `json:"avatar,omitempty" bson:"avatar,omitempty"`
	LastLogin    *time.Time      `json:"last_login,omitempty" bson:"last_login,omitempty"`
	Client       *ClientProfile  `json:"client,omitempty" bson:"client,omitempty"`
	Crafter      *CrafterProfile `json:"crafter,omitempty" bson:"crafter,omitempty"`
	Admin        *AdminProfile   `json:"admin,omitempty" bson:"admin,omitempty"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" bson:"updated_at"`
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == "" || u.Status == UserStatusActive
}

// IsPremium reports whether a crafter currently holds a premium membership.
func (u *User) IsPremium(now time.Time) bool {
	if u.Crafter == nil || u.Crafter.MembershipType != MembershipPremium {
		return false
	}
	return u.Crafter.MembershipExpiresAt == nil || u.Crafter.MembershipExpiresAt.After(now)
}

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID    string
	Type      UserType
	AdminRole AdminRole
}

// SystemActor is used by maintenance tooling that runs outside an HTTP request.
func SystemActor() Actor {
	return Actor{UserID: "system", Type: UserTypeAdmin, AdminRole: AdminRoleSuperAdmin}
}

func (a Actor) IsAdmin() bool   { return a.Type == UserTypeAdmin }
func (a Actor) IsClient() bool  { return a.Type == UserTypeClient }
func (a Actor) IsCrafter() bool { return a.Type == UserTypeCrafter }

// Can reports whether the actor is an admin whose role grants p.
func (a Actor) Can(p Permission) bool {
	return a.IsAdmin() && a.AdminRole.Has(p)
}

// AdminRole is the back-office role of an admin account.
type AdminRole string

const (
	AdminRoleSuperAdmin AdminRole = "super_admin"
	AdminRoleModerator  AdminRole = "moderator"
	AdminRoleSupport    AdminRole = "support"
)

// Permission names a back-office capability.
type Permission string

const (
	PermManageUsers          Permission = "manage_users"
	PermManageRequests       Permission = "manage_requests"
	PermManageOrders         Permission = "manage_orders"
	PermViewAnalytics        Permission = "view_analytics"
	PermManagePayments       Permission = "manage_payments"
	PermSendNotifications    Permission = "send_notifications"
	PermManageSystemSettings Permission = "manage_system_settings"
)

var rolePermissions = map[AdminRole][]Permission{
	AdminRoleSuperAdmin: {
		PermManageUsers, PermManageRequests, PermManageOrders, PermViewAnalytics,
		PermManagePayments, PermSendNotifications, PermManageSystemSettings,
	},
	AdminRoleModerator: {
		PermManageUsers, PermManageRequests, PermManageOrders, PermViewAnalytics,
		PermSendNotifications,
	},
	AdminRoleSupport: {PermManageRequests, PermViewAnalytics},
}

// Valid reports whether r is a known admin role.
func (r AdminRole) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns a copy of the permission set granted to r.
func (r AdminRole) Permissions() []Permission {
	return slices.Clone(rolePermissions[r])
}

// Has reports whether r grants p.
func (r AdminRole) Has(p Permission) bool {
	return slices.Contains(rolePermissions[r], p)
}

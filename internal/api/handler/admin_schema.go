package handler

type registerAdminRequest struct {
	Email      string `json:"email"       validate:"required,email"`
	Password   string `json:"password"    validate:"required,min=8"`
	Name       string `json:"name"        validate:"required,max=120"`
	Phone      string `json:"phone"`
	Role       string `json:"role"        validate:"required,oneof=super_admin moderator support"`
	Department string `json:"department"`
	EmployeeID string `json:"employee_id"`
}

type updateUserRequest struct {
	Status   *string `json:"status"   validate:"omitempty,oneof=active blocked suspended"`
	Verified *bool   `json:"verified"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type broadcastRequest struct {
	UserID   string `json:"user_id"`
	Audience string `json:"audience" validate:"omitempty,oneof=client crafter admin"`
	Title    string `json:"title"    validate:"required,max=200"`
	Message  string `json:"message"  validate:"required,max=2000"`
}

type broadcastResponse struct {
	Sent int `json:"sent"`
}

type planRequest struct {
	Title        string   `json:"title"         validate:"required"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"         validate:"gt=0"`
	Currency     string   `json:"currency"      validate:"omitempty,len=3"`
	DurationDays int      `json:"duration_days" validate:"gt=0"`
	Features     []string `json:"features"`
	IsActive     *bool    `json:"is_active"`
}

type transactionRequest struct {
	Type            string  `json:"type"             validate:"required,oneof=membership_payment commission_payment advertising_payment featured_payment other_payment"`
	UserID          string  `json:"user_id"`
	UserName        string  `json:"user_name"`
	PlanID          string  `json:"plan_id"`
	OrderRef        string  `json:"order_ref"`
	Amount          float64 `json:"amount"           validate:"gt=0"`
	PlatformShare   float64 `json:"platform_share"   validate:"gte=0"`
	Currency        string  `json:"currency"         validate:"omitempty,len=3"`
	PaymentProvider string  `json:"payment_provider"`
	Details         string  `json:"details"`
	Notes           string  `json:"notes"`
}

type revenueRulesRequest struct {
	DefaultCurrency           *string  `json:"default_currency"            validate:"omitempty,len=3"`
	TaxPercent                *float64 `json:"tax_percent"                 validate:"omitempty,gte=0,lte=100"`
	PlatformCommissionPercent *float64 `json:"platform_commission_percent" validate:"omitempty,gte=0,lte=100"`
}

type reviewFeaturedRequest struct {
	Approve    *bool  `json:"approve"     validate:"required"`
	AdminNotes string `json:"admin_notes" validate:"max=1000"`
}

type addFeaturedRequest struct {
	CrafterID string `json:"crafter_id" validate:"required"`
	Notes     string `json:"notes"      validate:"max=1000"`
}

package models

import "time"

// Billing statuses for a transport entry.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

// EntryStatuses lists every valid billing status in a fixed order.
var EntryStatuses = []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// IsValidStatus reports whether s is one of the four billing statuses.
func IsValidStatus(s string) bool {
	for _, v := range EntryStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// AdvancePayment is a single advance tranche paid against an entry.
type AdvancePayment struct {
	Amount        float64   `json:"amount" bson:"amount" validate:"gte=0"`
	Date          time.Time `json:"date" bson:"date"`
	TransactionID string    `json:"transaction_id" bson:"transaction_id" validate:"omitempty,max=50"`
}

// BillData is the nested billing sub-record of a transport entry.
type BillData struct {
	InvoiceNo        string  `json:"invoice_no" bson:"invoice_no" validate:"omitempty,max=50"`
	BillAmount       float64 `json:"bill_amount" bson:"bill_amount" validate:"gte=0"`
	HandlingCharges  float64 `json:"handling_charges" bson:"handling_charges" validate:"gte=0"`
	DetentionCharges float64 `json:"detention_charges" bson:"detention_charges" validate:"gte=0"`
	Freight          float64 `json:"freight" bson:"freight" validate:"gte=0"`
	Total            float64 `json:"total" bson:"total" validate:"gte=0"`
	Status           string  `json:"status" bson:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
}

// OwnerData is the nested owner/vehicle sub-record of a transport entry.
type OwnerData struct {
	DriverName       string           `json:"driver_name" bson:"driver_name" validate:"omitempty,max=100"`
	LicenseNo        string           `json:"license_no" bson:"license_no" validate:"omitempty,max=50"`
	ChassisNo        string           `json:"chassis_no" bson:"chassis_no" validate:"omitempty,max=50"`
	EngineNo         string           `json:"engine_no" bson:"engine_no" validate:"omitempty,max=50"`
	InsuranceDetails string           `json:"insurance_details" bson:"insurance_details" validate:"omitempty,max=200"`
	AdvancePayments  []AdvancePayment `json:"advance_payments,omitempty" bson:"advance_payments,omitempty" validate:"max=3,dive"`
	BalanceAmount    float64          `json:"balance_amount" bson:"balance_amount" validate:"gte=0"`
	DeliveryDate     time.Time        `json:"delivery_date,omitempty" bson:"delivery_date,omitempty"`
}

// TransportEntry is a single logistics/billing record. BusinessID is the
// human-readable identifier (TE-FY<year>-<seq>) assigned once at creation;
// UserID is the owning user and scopes every query and access check.
type TransportEntry struct {
	ID           string    `json:"id" bson:"_id" validate:"omitempty,uuid"`
	BusinessID   string    `json:"business_id" bson:"business_id"`
	Date         time.Time `json:"date" bson:"date"`
	VehicleNo    string    `json:"vehicle_no" bson:"vehicle_no" validate:"required,max=20"`
	FromLocation string    `json:"from_location" bson:"from_location" validate:"required,max=100"`
	ToLocation   string    `json:"to_location" bson:"to_location" validate:"required,max=100"`
	Bill         BillData  `json:"bill" bson:"bill"`
	Owner        OwnerData `json:"owner" bson:"owner"`
	UserID       string    `json:"user_id" bson:"user_id"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Pagination is the envelope returned alongside every entry page.
type Pagination struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// EntryStats is the per-user summary produced by the statistics aggregator.
// ByStatus always contains all four statuses, zero-filled when absent.
type EntryStats struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"by_status"`
	TotalAmount float64          `json:"total_amount"`
	RecentCount int64            `json:"recent_count"` // created within the trailing 7 days
}

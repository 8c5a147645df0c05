package billing

import "time"

// MaxAmount is the largest value the amount column can hold.
const MaxAmount = 9999999999.99

// Bill maps to the billing table. BillDate is a calendar date at UTC midnight.
type Bill struct {
	ID        int64      `json:"bill_id"`
	PatientID int64      `json:"patient_id"`
	BillDate  time.Time  `json:"bill_date"`
	Amount    float64    `json:"amount"`
	Paid      bool       `json:"paid"`
	PaidAt    *time.Time `json:"paid_at"`
	CreatedAt time.Time  `json:"created_at"`
}

type Details struct {
	Bill
	PatientFirstName string `json:"first_name"`
	PatientLastName  string `json:"last_name"`
}

type CreateInput struct {
	PatientID int64
	Amount    float64
	// BillDate defaults to today.
	BillDate *time.Time
}

type ListFilter struct {
	PatientID *int64
	Paid      *bool
	From      *time.Time
	To        *time.Time
}

type Statistics struct {
	TotalBills              int            `json:"total_bills"`
	TotalBilled             float64        `json:"total_billed"`
	TotalPaid               float64        `json:"total_paid"`
	TotalOutstanding        float64        `json:"total_outstanding"`
	PaidCount               int            `json:"paid_bills"`
	UnpaidCount             int            `json:"unpaid_bills"`
	AverageAmount           float64        `json:"average_bill_amount"`
	MinAmount               float64        `json:"min_bill_amount"`
	MaxAmount               float64        `json:"max_bill_amount"`
	PatientsWithBills       int            `json:"patients_with_bills"`
	PatientsWithOutstanding int            `json:"patients_with_outstanding"`
	Monthly                 []*MonthlyStat `json:"monthly_breakdown"`
}

type MonthlyStat struct {
	Month     time.Time `json:"month" db:"month"`
	Bills     int       `json:"bills_count" db:"bills_count"`
	Billed    float64   `json:"billed" db:"billed"`
	Collected float64   `json:"collected" db:"collected"`
}

package ward

import (
	"math"
	"time"
)

// Ward maps to the wards table.
type Ward struct {
	ID       int64  `json:"ward_id"`
	Name     string `json:"ward_name"`
	Type     string `json:"ward_type"`
	Capacity int    `json:"capacity"`
}

// Occupancy is a ward with its count of current admissions.
type Occupancy struct {
	Ward
	CurrentOccupancy int     `json:"current_occupancy"`
	AvailableBeds    int     `json:"available_beds"`
	OccupancyRate    float64 `json:"occupancy_rate"`
}

func newOccupancy(w Ward, current int) *Occupancy {
	o := &Occupancy{Ward: w, CurrentOccupancy: current, AvailableBeds: w.Capacity - current}
	if o.AvailableBeds < 0 {
		o.AvailableBeds = 0
	}
	if w.Capacity > 0 {
		o.OccupancyRate = math.Round(float64(current)*10000/float64(w.Capacity)) / 100
	}
	return o
}

// Occupant is one admission into the ward, current or past.
type Occupant struct {
	AdmissionID   int64      `json:"admission_id"`
	PatientID     int64      `json:"patient_id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Gender        string     `json:"gender"`
	AdmissionDate time.Time  `json:"admission_date"`
	DischargeDate *time.Time `json:"discharge_date,omitempty"`
	LengthOfStay  int        `json:"length_of_stay"`
}

type Detail struct {
	*Occupancy
	CurrentPatients  []*Occupant `json:"current_patients"`
	RecentDischarges []*Occupant `json:"recent_discharges"`
}

type ListFilter struct {
	Search    string
	Type      string
	Available *bool
}

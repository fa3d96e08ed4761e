package model

import "errors"

type Status string

// The system only ever writes these two values. Anything else in a
// job_status patch is rejected at the service boundary.
const (
	StatusReceived  Status = "JOB RECEIVED"
	StatusCompleted Status = "COMPLETED"
)

func (s Status) Valid() bool {
	return s == StatusReceived || s == StatusCompleted
}

var (
	ErrNotFound      = errors.New("job not found")
	ErrNoFields      = errors.New("no valid technician fields")
	ErrInvalidStatus = errors.New("invalid job status")
)

// Job is the single persisted entity: one repair ticket end-to-end.
// Intake fields are set at creation, technician fields during repair,
// report fields exactly once at report generation. All text columns
// default to "" rather than NULL.
type Job struct {
	ID int64 `json:"id"`

	// Intake
	EntryDate  string `json:"entry_date"`
	JobNo      string `json:"job_no"`
	Make       string `json:"make"`
	ModelNo    string `json:"model_no"`
	SerialNo   string `json:"serial_no"`
	Fault      string `json:"fault"`
	ClientName string `json:"client_name"`

	// Technician
	InputChoke        string `json:"input_choke"`
	OutputChoke       string `json:"output_choke"`
	Choke             string `json:"choke"`
	ControlCard       string `json:"control_card"`
	ControlCardSupply string `json:"control_card_supply"`
	Fan               string `json:"fan"`
	PowerCard         string `json:"power_card"`
	CheckedBy         string `json:"checked_by"`
	RepairedBy        string `json:"repaired_by"`
	RepairDate        string `json:"repair_date"`
	FinalRemarks      string `json:"final_remarks"`
	WarrantyStart     string `json:"warranty_start"`
	WarrantyEnd       string `json:"warranty_end"`

	// Report
	InspectionReport string `json:"inspection_report"`
	ServiceReport    string `json:"service_report"`
	TestingReport    string `json:"testing_report"`
	WarrantyReport   string `json:"warranty_report"`
	DispatchDate     string `json:"dispatch_date"`

	Status    Status `json:"job_status"`
	CreatedAt string `json:"created_at"`
}

// Intake carries the client-supplied fields for a new job. Absent
// fields land as empty strings.
type Intake struct {
	EntryDate  string `json:"entry_date"`
	JobNo      string `json:"job_no"`
	Make       string `json:"make"`
	ModelNo    string `json:"model_no"`
	SerialNo   string `json:"serial_no"`
	Fault      string `json:"fault"`
	ClientName string `json:"client_name"`
}

// Sections holds the operator-supplied free text merged into the four
// boilerplate report sections. Empty values mean "boilerplate only".
type Sections struct {
	Inspection string `json:"inspection_report"`
	Service    string `json:"service_report"`
	Testing    string `json:"testing_report"`
	Warranty   string `json:"warranty_report"`
}

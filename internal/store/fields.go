package store

// TechFields is the allow-list for technician updates: external (API)
// field names and the columns they map to. A patch key outside this
// table is ignored. The table is a fixed slice, not a map, so the
// generated UPDATE statement has a deterministic column order.
var TechFields = []struct {
	External string
	Column   string
}{
	{"input_status", "input_choke"},
	{"output_status", "output_choke"},
	{"choke", "choke"},
	{"control_card", "control_card"},
	{"control_card_supply", "control_card_supply"},
	{"fan", "fan"},
	{"power_card_condition", "power_card"},
	{"remarks", "final_remarks"},
	{"checked_by", "checked_by"},
	{"repaired_by", "repaired_by"},
	{"repairing_date", "repair_date"},
	{"warranty_start", "warranty_start"},
	{"warranty_end", "warranty_end"},
	{"job_status", "job_status"},
}

package equipment

// Equipment is both the stored row and the wire representation.
// Value is in the smallest currency unit. Status is stored, not derived: the
// loan lifecycle keeps it in sync ("loaned" while an open loan references the
// unit, "available" after return), and maintenance/retired are set manually.
type Equipment struct {
	ID          string `json:"id"`
	Serial      string `json:"serial"`
	Type        string `json:"type"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Value       int64  `json:"value"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

type UpsertEquipmentRequest struct {
	ID          string  `json:"id"`
	Serial      string  `json:"serial"`
	Type        string  `json:"type"`
	Brand       string  `json:"brand"`
	Model       string  `json:"model"`
	Value       int64   `json:"value"`
	Status      *string `json:"status,omitempty"`
	Description string  `json:"description"`
}

const (
	StatusAvailable   = "available"
	StatusLoaned      = "loaned"
	StatusMaintenance = "maintenance"
	StatusRetired     = "retired"
)

var validStatuses = map[string]struct{}{
	StatusAvailable:   {},
	StatusLoaned:      {},
	StatusMaintenance: {},
	StatusRetired:     {},
}

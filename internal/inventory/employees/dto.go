package employees

// Employee is both the stored row and the wire representation; the table has
// no server-generated fields.
type Employee struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Rut   string `json:"rut"`
	Area  string `json:"area"`
	Shift string `json:"shift"`
}

// UpsertEmployeeRequest carries optional area/shift so defaults can be
// distinguished from explicit empty values.
type UpsertEmployeeRequest struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Rut   string  `json:"rut"`
	Area  *string `json:"area,omitempty"`
	Shift *string `json:"shift,omitempty"`
}

var validShifts = map[string]struct{}{
	"A":              {},
	"B":              {},
	"C":              {},
	"Administrative": {},
}

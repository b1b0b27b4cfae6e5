package loans

// EmployeeSnapshot is the employee as captured at loan creation. Later edits
// to the live employee row never rewrite it.
type EmployeeSnapshot struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Rut   string `json:"rut"`
	Area  string `json:"area"`
	Shift string `json:"shift"`
}

// EquipmentSnapshot is the equipment row as it stood when the unit was
// claimed for the loan, before its status flipped to loaned.
type EquipmentSnapshot struct {
	ID          string `json:"id"`
	Serial      string `json:"serial"`
	Type        string `json:"type"`
	Brand       string `json:"brand"`
	Model       string `json:"model"`
	Value       int64  `json:"value"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

type LoanItem struct {
	EquipmentID       string            `json:"equipmentId"`
	Quantity          int               `json:"quantity"`
	EquipmentSnapshot EquipmentSnapshot `json:"equipmentSnapshot"`
}

type LoanResponse struct {
	ID                 string           `json:"id"`
	Date               string           `json:"date"`
	EmployeeID         string           `json:"employeeId"`
	EmployeeSnapshot   EmployeeSnapshot `json:"employeeSnapshot"`
	Items              []LoanItem       `json:"items"`
	Observations       string           `json:"observations"`
	TotalValue         int64            `json:"totalValue"`
	Status             string           `json:"status"`
	Signature          *string          `json:"signature"`
	GeneratedBy        string           `json:"generatedBy"`
	ReturnDate         *string          `json:"returnDate"`
	ReceivedBy         *string          `json:"receivedBy"`
	ReturnObservations *string          `json:"returnObservations"`
	ReturnSignature    *string          `json:"returnSignature"`
}

type CreateLoanItem struct {
	EquipmentID string `json:"equipmentId" binding:"required"`
}

type CreateLoanRequest struct {
	ID           string           `json:"id"`
	Date         string           `json:"date"`
	EmployeeID   string           `json:"employeeId" binding:"required"`
	Items        []CreateLoanItem `json:"items" binding:"required"`
	Observations string           `json:"observations"`
	// TotalValue is checked against the server-side sum, never trusted.
	TotalValue  int64   `json:"totalValue"`
	Signature   *string `json:"signature,omitempty"`
	GeneratedBy string  `json:"generatedBy"`
}

type ReturnLoanRequest struct {
	ID                 string  `json:"id" binding:"required"`
	ReturnDate         string  `json:"returnDate" binding:"required"`
	ReceivedBy         string  `json:"receivedBy" binding:"required"`
	ReturnObservations string  `json:"returnObservations"`
	ReturnSignature    *string `json:"returnSignature,omitempty"`
}

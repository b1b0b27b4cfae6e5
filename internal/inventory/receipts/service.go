package receipts

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"equiploan-backend/internal/inventory/loans"
)

type Mode string

const (
	ModeDelivery Mode = "delivery"
	ModeReturn   Mode = "return"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDelivery, ModeReturn:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("mode must be delivery or return")
	}
}

// Generator renders a loan or return record to a printable PDF. Pure function
// of its input; no network or persistence effects.
type Generator struct {
	orgName    string
	department string
}

func NewGenerator(orgName, department string) *Generator {
	return &Generator{orgName: orgName, department: department}
}

// Filename derives the download name from the mode and a loan id prefix.
func Filename(loanID string, mode Mode) string {
	prefix := loanID
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}
	return strings.ToUpper(string(mode)) + "_" + prefix + ".pdf"
}

// Build renders the receipt: organization header, legal paragraphs with the
// employee snapshot interpolated, the line-item table, an observations box,
// the signature image when captured, and the staff footer.
func (g *Generator) Build(loan loans.LoanResponse, mode Mode) ([]byte, error) {
	delivery := mode == ModeDelivery

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// header: green disc stands in for the logo, as on the printed original
	pdf.SetFillColor(22, 163, 74)
	pdf.Circle(25, 20, 10, "F")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(22, 163, 74)
	pdf.Text(40, 18, latin1(g.orgName))
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.Text(40, 24, latin1(g.department))

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	title := "PRÉSTAMO DE EQUIPOS DE INFORMÁTICA"
	if !delivery {
		title = "DEVOLUCIÓN DE EQUIPOS DE INFORMÁTICA"
	}
	pdf.CellFormat(0, 45, latin1(title), "", 1, "C", false, 0, "")

	const marginX = 14.0
	cursorY := 60.0

	emp := loan.EmployeeSnapshot
	var body string
	if delivery {
		body = fmt.Sprintf(
			"El departamento de informática con fecha %s, entrega a %s RUT: %s. "+
				"Labora en el turno %s, perteneciente al área de %s. El detalle del equipamiento a continuación.\n\n"+
				"En caso de pérdida o reposición de equipo(s) el valor total es: $%s\n\n"+
				"Si el trabajador tiene terminada su relación laboral con %s debe hacer entrega del equipamiento entregado.",
			formatDate(loan.Date), strings.ToUpper(emp.Name), emp.Rut,
			emp.Shift, strings.ToUpper(emp.Area), formatMoney(loan.TotalValue), g.orgName)
	} else {
		returnDate := time.Now().Format("2006-01-02")
		if loan.ReturnDate != nil && *loan.ReturnDate != "" {
			returnDate = *loan.ReturnDate
		}
		body = fmt.Sprintf(
			"El departamento de informática con fecha %s, recibe de %s RUT: %s. "+
				"Labora en el turno %s, perteneciente al área de %s. El detalle del equipamiento devuelto a continuación.\n\n"+
				"El equipo ha sido recibido y verificado por el departamento de informática. "+
				"La devolución del equipamiento queda registrada en el sistema.",
			formatDate(returnDate), strings.ToUpper(emp.Name), emp.Rut,
			emp.Shift, strings.ToUpper(emp.Area))
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginX, cursorY)
	pdf.MultiCell(182, 5, latin1(body), "", "L", false)
	cursorY = pdf.GetY() + 10

	// line-item table
	headers := []string{"Serie", "Equipo", "Descripción", "Marca", "Modelo", "Cantidad"}
	widths := []float64{25, 30, 52, 30, 25, 20}
	pdf.SetXY(marginX, cursorY)
	pdf.SetFont("Helvetica", "B", 9)
	for i, hd := range headers {
		pdf.CellFormat(widths[i], 7, latin1(hd), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	for _, it := range loan.Items {
		snap := it.EquipmentSnapshot
		desc := snap.Description
		if desc == "" {
			desc = snap.Type
		}
		pdf.SetX(marginX)
		cols := []string{snap.Serial, snap.Type, desc, snap.Brand, snap.Model, fmt.Sprintf("%d", it.Quantity)}
		for i, col := range cols {
			align := "L"
			if i == 5 {
				align = "C"
			}
			pdf.CellFormat(widths[i], 7, latin1(col), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	cursorY = pdf.GetY() + 15

	// observations box
	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(marginX, cursorY, latin1("Observación:"))
	cursorY += 5
	pdf.SetLineWidth(0.5)
	pdf.Rect(marginX, cursorY, 180, 25, "D")
	obs := "EL EQUIPO SE ENCUENTRA EN BUEN ESTADO"
	if delivery {
		obs = "SE HACE ENTREGA DE EQUIPOS"
		if loan.Observations != "" {
			obs = loan.Observations
		}
	} else if loan.ReturnObservations != nil && *loan.ReturnObservations != "" {
		obs = *loan.ReturnObservations
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(marginX+2, cursorY+6, latin1(obs))
	cursorY += 45

	// signature box
	pdf.SetFont("Helvetica", "B", 9)
	signLabel := "Firma del Receptor"
	signature := loan.Signature
	if !delivery {
		signLabel = "Firma del Empleado (Devuelve)"
		signature = loan.ReturnSignature
	}
	pdf.SetXY(marginX, cursorY-5)
	pdf.CellFormat(182, 5, latin1(signLabel), "", 1, "C", false, 0, "")
	cursorY += 5
	pdf.SetLineWidth(0.1)
	pdf.Rect(65, cursorY, 80, 35, "D")
	if signature != nil && *signature != "" {
		if img, imgType, err := decodeDataURL(*signature); err == nil {
			name := "signature-" + string(mode)
			pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imgType}, bytes.NewReader(img))
			pdf.ImageOptions(name, 70, cursorY+2, 70, 30, false, fpdf.ImageOptions{ImageType: imgType}, 0, "")
		}
	}
	pdf.SetLineWidth(0.5)
	pdf.Line(75, cursorY+28, 135, cursorY+28)
	cursorY += 45

	// footer
	pdf.SetFont("Helvetica", "B", 8)
	footer := "Cargo Generado Por: " + strings.ToUpper(loan.GeneratedBy)
	if !delivery {
		receivedBy := ""
		if loan.ReceivedBy != nil {
			receivedBy = *loan.ReceivedBy
		}
		footer = "Recibido Por: " + strings.ToUpper(receivedBy)
	}
	pdf.Text(marginX, cursorY, latin1(footer))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var latin1Encoder = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

// latin1 re-encodes UTF-8 text for the core PDF fonts, replacing anything
// outside cp1252.
func latin1(s string) string {
	out, err := latin1Encoder.String(s)
	if err != nil {
		return s
	}
	return out
}

// decodeDataURL extracts the raw image bytes from a canvas data URL like
// "data:image/png;base64,...".
func decodeDataURL(s string) ([]byte, string, error) {
	imgType := "PNG"
	if strings.HasPrefix(s, "data:image/jpeg") || strings.HasPrefix(s, "data:image/jpg") {
		imgType = "JPG"
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", err
	}
	return raw, imgType, nil
}

// formatDate flips YYYY-MM-DD to DD-MM-YYYY for the printed text.
func formatDate(s string) string {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return s
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

// formatMoney renders an integer peso amount with dot thousand separators.
func formatMoney(v int64) string {
	s := fmt.Sprintf("%d", v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

package extract

// Align is the horizontal alignment of a rendered cell.
type Align string

const (
	AlignLeft  Align = "left"
	AlignRight Align = "right"
)

// NullFieldText is how a null summary field is displayed.
const NullFieldText = "null"

// Formatted is a cell value ready for display.
type Formatted struct {
	Text  string `json:"text"`
	Align Align  `json:"align"`
}

// FormatCell renders a table cell. Numbers are right-aligned with their
// literal text, other present values are left-aligned, and absent values
// render as empty text.
func FormatCell(v Value) Formatted {
	switch v.Kind {
	case KindNumber:
		return Formatted{Text: v.Raw, Align: AlignRight}
	case KindText:
		return Formatted{Text: v.Raw, Align: AlignLeft}
	default:
		return Formatted{Text: "", Align: AlignLeft}
	}
}

// FormatField renders a FieldSet entry. Unlike table cells, a null field
// is shown as the literal text "null".
func FormatField(v *string) string {
	if v == nil {
		return NullFieldText
	}
	return *v
}

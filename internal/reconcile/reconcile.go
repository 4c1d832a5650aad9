package reconcile

// Field identifies one compared attribute.
type Field string

const (
	FieldName        Field = "name"
	FieldDateOfBirth Field = "dateOfBirth"
	FieldGender      Field = "gender"
)

// Order is the fixed comparison and reporting order.
var Order = []Field{FieldName, FieldDateOfBirth, FieldGender}

// Label is the human-readable name used in messages.
func (f Field) Label() string {
	switch f {
	case FieldName:
		return "Name"
	case FieldDateOfBirth:
		return "Date of Birth"
	case FieldGender:
		return "Gender"
	default:
		return string(f)
	}
}

// Fields holds the compared values. An empty string means absent.
type Fields struct {
	Name        string
	DateOfBirth string
	Gender      string
}

func (f Fields) value(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldDateOfBirth:
		return f.DateOfBirth
	case FieldGender:
		return f.Gender
	}
	return ""
}

// Mismatch keeps the original, unnormalized values for display.
type Mismatch struct {
	Field          Field  `json:"field"`
	ReferenceValue string `json:"referenceValue"`
	ExtractedValue string `json:"extractedValue"`
}

// Reconcile compares extracted against reference field by field. Only the
// extracted date of birth goes through NormalizeDOB; the reference date is
// stored as YYYY-MM-DD already. Output follows Order and is nil when every
// field agrees.
func Reconcile(extracted, reference Fields) []Mismatch {
	var out []Mismatch
	for _, field := range Order {
		ext := extracted.value(field)
		ref := reference.value(field)

		extNorm := ext
		if field == FieldDateOfBirth {
			extNorm = NormalizeDOB(extNorm)
		}
		if NormalizeText(extNorm) == NormalizeText(ref) {
			continue
		}
		out = append(out, Mismatch{
			Field:          field,
			ReferenceValue: ref,
			ExtractedValue: ext,
		})
	}
	return out
}

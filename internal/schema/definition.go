package schema

// FieldType determines how emptiness and numeric rules are interpreted
// for a field.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldTextarea    FieldType = "textarea"
	FieldNumber      FieldType = "number"
	FieldCurrency    FieldType = "currency"
	FieldPercent     FieldType = "percent"
	FieldSelect      FieldType = "select"
	FieldMultiselect FieldType = "multiselect"
	FieldBoolean     FieldType = "boolean"
)

// IsNumeric reports whether values of this type must parse as numbers.
func (t FieldType) IsNumeric() bool {
	return t == FieldNumber || t == FieldCurrency || t == FieldPercent
}

// FieldEquals is one (field, expected value) pair in an any-of condition.
type FieldEquals struct {
	Field  string `json:"field"`
	Equals string `json:"equals"`
}

// Condition gates a field's visibility on other answers. Exactly one of
// the three forms is used: AnyOf (OR over pairs), NonEmpty, or the
// Field/Equals pair. List-valued answers match Equals by containment.
type Condition struct {
	Field    string        `json:"field,omitempty"`
	Equals   string        `json:"equals,omitempty"`
	NonEmpty bool          `json:"nonEmpty,omitempty"`
	AnyOf    []FieldEquals `json:"anyOf,omitempty"`
}

// Validation carries the optional per-field rules, applied in order:
// regex, max word count, numeric bounds. SumGroup names a cohort of
// numeric fields whose values must total 100 once all are answered.
type Validation struct {
	Regex    string   `json:"regex,omitempty"`
	MaxWords int      `json:"maxWords,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	SumGroup string   `json:"sumGroup,omitempty"`
}

// FieldDefinition describes one question.
type FieldDefinition struct {
	Name       string      `json:"name"`
	Label      string      `json:"label"`
	Type       FieldType   `json:"type"`
	Required   bool        `json:"required,omitempty"`
	Options    []string    `json:"options,omitempty"`
	Validation *Validation `json:"validation,omitempty"`
	Condition  *Condition  `json:"condition,omitempty"`
}

// StepDefinition is one page of the questionnaire.
type StepDefinition struct {
	Key         string            `json:"key"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	HelpText    string            `json:"helpText"`
	Fields      []FieldDefinition `json:"fields"`
}

func fptr(f float64) *float64 { return &f }

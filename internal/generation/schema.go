package generation

// Type is a JSON schema primitive understood by every backend.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Schema is a backend-neutral response shape descriptor.
type Schema struct {
	Type        Type
	Description string
	Properties  map[string]*Schema
	// Order lists property names in prompt order. Backends that preserve
	// ordering use it; the rest ignore it.
	Order    []string
	Items    *Schema
	Required []string
	MinItems *int64
	MaxItems *int64
	Minimum  *float64
	Maximum  *float64
}

// Object returns an object schema whose properties are all required.
func Object(description string, props ...Property) *Schema {
	s := &Schema{Type: TypeObject, Description: description, Properties: map[string]*Schema{}}
	for _, p := range props {
		s.Properties[p.Name] = p.Schema
		s.Order = append(s.Order, p.Name)
		if !p.Optional {
			s.Required = append(s.Required, p.Name)
		}
	}
	return s
}

// ArrayOf returns an array schema of items.
func ArrayOf(description string, items *Schema) *Schema {
	return &Schema{Type: TypeArray, Description: description, Items: items}
}

// String returns a string schema.
func String(description string) *Schema {
	return &Schema{Type: TypeString, Description: description}
}

// Number returns a number schema.
func Number(description string) *Schema {
	return &Schema{Type: TypeNumber, Description: description}
}

// Integer returns an integer schema.
func Integer(description string) *Schema {
	return &Schema{Type: TypeInteger, Description: description}
}

// Property names one object field.
type Property struct {
	Name     string
	Schema   *Schema
	Optional bool
}

// Field returns a required property.
func Field(name string, schema *Schema) Property {
	return Property{Name: name, Schema: schema}
}

// OptionalField returns a property left out of Required.
func OptionalField(name string, schema *Schema) Property {
	return Property{Name: name, Schema: schema, Optional: true}
}

// WithItemCount pins the array length bounds.
func (s *Schema) WithItemCount(minItems, maxItems int64) *Schema {
	s.MinItems = &minItems
	s.MaxItems = &maxItems
	return s
}

// WithRange pins numeric bounds.
func (s *Schema) WithRange(minimum, maximum float64) *Schema {
	s.Minimum = &minimum
	s.Maximum = &maximum
	return s
}

package shared

// FieldChange captures a single field's before/after values for the
// audit trail.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Changes maps field names to their before/after values.
type Changes map[string]FieldChange

// NewChanges builds a change set from alternating field/old/new triples
// collected by the caller.
func NewChanges() Changes {
	return make(Changes)
}

// Set records a change for the given field and returns the set for
// chaining.
func (c Changes) Set(field string, oldValue, newValue any) Changes {
	c[field] = FieldChange{Old: oldValue, New: newValue}
	return c
}

package dao

// Parameter narrows a List call, for example by job state.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a parameter matching one value or any of several.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

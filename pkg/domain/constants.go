package domain

const (
	// DefaultTrigger is the action used to capture values when none is configured.
	DefaultTrigger = "onChange"

	// DefaultValuePropName is the prop that carries the field value to the input.
	DefaultValuePropName = "value"

	// InputCheckbox is the input type whose checked state is the captured value.
	InputCheckbox = "checkbox"
)

package elements

import "github.com/clickgo/swrouter/element"

// Value is a handler-only element with no ports, used to exercise handler
// invocation in isolation (S5): its "value" read handler always answers
// "7".
type Value struct{ element.BaseElement }

// NewValue returns an unconfigured Value.
func NewValue() *Value {
	v := &Value{}
	v.SetSelf(v)
	return v
}

func (v *Value) InputPorts() int  { return 0 }
func (v *Value) OutputPorts() int { return 0 }

func (v *Value) AddHandlers(reg *element.HandlerRegistry) {
	reg.AddReadHandler("value", element.ReadVisible, func() (string, error) {
		return "7", nil
	})
}

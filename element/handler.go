package element

import "fmt"

// Flags describe a handler's visibility and execution contract (§4.7).
type Flags uint8

const (
	ReadVisible Flags = 1 << iota
	WriteVisible
	Raw        // suppresses the trailing newline call_read_handler would add
	Exclusive  // recorded on the handler only; invocation does not pause the element's home thread
	OneShot    // handler is removed from the table after its first invocation
)

// Has reports whether f includes all of want.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// ReadFunc is a handler's read body; it returns the value text (without
// the trailing newline, which the caller adds unless Raw is set).
type ReadFunc func() (string, error)

// WriteFunc is a handler's write body, given the caller-supplied value text.
type WriteFunc func(value string) error

// Handler is one named, element-scoped (or router-scoped, for the root)
// entry point.
type Handler struct {
	Name   string
	Flags  Flags
	Cookie interface{}
	Read   ReadFunc
	Write  WriteFunc
}

// CallRead invokes the handler's read function, returning the body with a
// trailing newline appended unless Raw is set.
func (h *Handler) CallRead() (string, error) {
	if h.Read == nil {
		return "", fmt.Errorf("handler %q has no read function", h.Name)
	}
	s, err := h.Read()
	if err != nil {
		return "", err
	}
	if !h.Flags.Has(Raw) && (len(s) == 0 || s[len(s)-1] != '\n') {
		s += "\n"
	}
	return s, nil
}

// CallWrite invokes the handler's write function with value.
func (h *Handler) CallWrite(value string) error {
	if h.Write == nil {
		return fmt.Errorf("handler %q has no write function", h.Name)
	}
	return h.Write(value)
}

// HandlerRegistry collects the handlers one element (or the router root)
// exposes; elements populate it from AddHandlers.
type HandlerRegistry struct {
	handlers map[string]*Handler
	order    []string
}

// NewHandlerRegistry returns an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]*Handler)}
}

// AddReadHandler registers a read-only handler.
func (r *HandlerRegistry) AddReadHandler(name string, flags Flags, read ReadFunc) {
	r.add(&Handler{Name: name, Flags: flags | ReadVisible, Read: read})
}

// AddWriteHandler registers a write-only handler.
func (r *HandlerRegistry) AddWriteHandler(name string, flags Flags, write WriteFunc) {
	r.add(&Handler{Name: name, Flags: flags | WriteVisible, Write: write})
}

// AddReadWriteHandler registers a handler exposing both read and write.
func (r *HandlerRegistry) AddReadWriteHandler(name string, flags Flags, read ReadFunc, write WriteFunc) {
	r.add(&Handler{Name: name, Flags: flags | ReadVisible | WriteVisible, Read: read, Write: write})
}

func (r *HandlerRegistry) add(h *Handler) {
	if _, exists := r.handlers[h.Name]; !exists {
		r.order = append(r.order, h.Name)
	}
	r.handlers[h.Name] = h
}

// Lookup returns the named handler, if any.
func (r *HandlerRegistry) Lookup(name string) (*Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Remove drops a OneShot handler after its invocation.
func (r *HandlerRegistry) Remove(name string) {
	delete(r.handlers, name)
}

// Names returns handler names in registration order (element-index order
// for the router-wide wildcard expansion in §6).
func (r *HandlerRegistry) Names() []string {
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if _, ok := r.handlers[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

package router

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/clickgo/swrouter/element"
	"github.com/clickgo/swrouter/errors"
)

// installRootHandlers wires the router-scoped handlers every Router
// exposes: flatconfig (read), hotconfig (write, raw, nonexclusive), and
// health (read) (§4.7).
func (r *Router) installRootHandlers() {
	r.rootHandlers.AddReadHandler("flatconfig", element.ReadVisible, func() (string, error) {
		return r.Flatconfig(), nil
	})
	r.rootHandlers.AddWriteHandler("hotconfig", element.WriteVisible|element.Raw, func(value string) error {
		return ErrHotconfigNeedsMaster
	})
	r.rootHandlers.AddReadHandler("health", element.ReadVisible, func() (string, error) {
		h := r.Health()
		return fmt.Sprintf("%s: %s (%s)", h.Component, h.Status, h.Message), nil
	})
	r.rootHandlers.AddReadHandler("generation", element.ReadVisible, func() (string, error) {
		return r.Generation.String(), nil
	})
}

// ErrHotconfigNeedsMaster is returned by the default hotconfig handler;
// master.Master overrides it with one that actually stages and swaps a
// replacement router.
var ErrHotconfigNeedsMaster = fmt.Errorf("hotconfig: router is not installed under a master")

// SetHotconfigHandler replaces the default hotconfig write handler, used
// by master.Master once it owns this router so a hotconfig write actually
// triggers a hot-swap.
func (r *Router) SetHotconfigHandler(write element.WriteFunc) {
	r.rootHandlers.AddWriteHandler("hotconfig", element.WriteVisible|element.Raw, write)
}

// CallReadHandler resolves and invokes a read handler named either
// "handler" (router-scoped) or "element.handler" (§4.7's per-element
// built-ins name/class/ports/config/handlers plus whatever the element
// itself registered). The element part may be a wildcard pattern or a bare
// class name (§6); a single match behaves exactly as a plain instance
// lookup, while more than one match has each result prefixed with its
// "name.handler:" line, matching multi-element read output.
func (r *Router) CallReadHandler(full string) (string, error) {
	elementName, handlerName, scoped := splitHandlerName(full)
	if !scoped {
		h, ok := r.rootHandlers.Lookup(handlerName)
		if !ok {
			return "", errors.WrapHandlerNotFound(fmt.Errorf("no %q handler", full), "Router", "CallReadHandler", full)
		}
		return r.invokeRead(h, full)
	}

	matches := r.resolveElements(elementName)
	if len(matches) == 0 {
		return "", errors.WrapHandlerNotFound(fmt.Errorf("no %q handler", full), "Router", "CallReadHandler", full)
	}
	if len(matches) == 1 {
		return r.readOne(matches[0], handlerName, full)
	}

	var b strings.Builder
	for _, inst := range matches {
		name := inst.Name + "." + handlerName
		s, err := r.readOne(inst, handlerName, name)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s:\n%s\n", name, s)
	}
	return b.String(), nil
}

// readOne invokes handlerName on a single resolved instance, checking the
// element's built-ins before its own registered handlers.
func (r *Router) readOne(inst *element.Instance, handlerName, full string) (string, error) {
	if s, ok := r.builtinRead(inst, handlerName); ok {
		return s, nil
	}
	h, ok := inst.Handlers.Lookup(handlerName)
	if !ok {
		return "", errors.WrapHandlerNotFound(fmt.Errorf("no %q handler", full), "Router", "CallReadHandler", full)
	}
	return r.invokeRead(h, full)
}

// CallWriteHandler resolves and invokes a write handler the same way
// CallReadHandler resolves reads, applying the write to every matched
// element; errors.Combine folds per-element failures into one error.
func (r *Router) CallWriteHandler(full, value string) error {
	elementName, handlerName, scoped := splitHandlerName(full)
	if !scoped {
		h, ok := r.rootHandlers.Lookup(handlerName)
		if !ok {
			return errors.WrapHandlerNotFound(fmt.Errorf("no %q handler", full), "Router", "CallWriteHandler", full)
		}
		return r.invokeWrite(h, full, value)
	}

	matches := r.resolveElements(elementName)
	if len(matches) == 0 {
		return errors.WrapHandlerNotFound(fmt.Errorf("no %q handler", full), "Router", "CallWriteHandler", full)
	}

	var errs []error
	for _, inst := range matches {
		name := inst.Name + "." + handlerName
		h, ok := inst.Handlers.Lookup(handlerName)
		if !ok {
			errs = append(errs, errors.WrapHandlerNotFound(fmt.Errorf("no %q handler", name), "Router", "CallWriteHandler", name))
			continue
		}
		if err := r.invokeWrite(h, name, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Combine("CallWriteHandler "+full, errs)
}

// resolveElements expands the element part of a handler name into the
// ordered instances it addresses (§6): an exact instance name always wins;
// failing that, a name containing ?, *, or [ glob-matches instance names by
// filepath.Match, and a plain identifier matching no instance falls back
// to matching by class name. Iteration order is element-index order.
func (r *Router) resolveElements(pattern string) []*element.Instance {
	if inst, ok := r.Lookup(pattern); ok {
		return []*element.Instance{inst}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	isGlob := strings.ContainsAny(pattern, "?*[")
	var matches []*element.Instance
	for _, inst := range r.elements {
		if isGlob {
			if ok, _ := filepath.Match(pattern, inst.Name); ok {
				matches = append(matches, inst)
			}
		} else if inst.Class == pattern {
			matches = append(matches, inst)
		}
	}
	return matches
}

func (r *Router) invokeRead(h *element.Handler, full string) (string, error) {
	if !h.Flags.Has(element.ReadVisible) {
		return "", errors.WrapHandlerKindMismatch(fmt.Errorf("%q is not readable", full), "Router", "CallReadHandler", full)
	}
	s, err := h.CallRead()
	if h.Flags.Has(element.OneShot) {
		r.forgetOneShot(full, h)
	}
	return s, err
}

func (r *Router) invokeWrite(h *element.Handler, full, value string) error {
	if !h.Flags.Has(element.WriteVisible) {
		return errors.WrapHandlerKindMismatch(fmt.Errorf("%q is not writable", full), "Router", "CallWriteHandler", full)
	}
	err := h.CallWrite(value)
	if h.Flags.Has(element.OneShot) {
		r.forgetOneShot(full, h)
	}
	return err
}

func (r *Router) forgetOneShot(full string, h *element.Handler) {
	_, handlerName, scoped := splitHandlerName(full)
	if !scoped {
		r.rootHandlers.Remove(handlerName)
		return
	}
	elementName, _, _ := splitHandlerName(full)
	for _, inst := range r.resolveElements(elementName) {
		inst.Handlers.Remove(handlerName)
	}
}

// builtinRead answers the per-element built-ins that every element exposes
// regardless of what AddHandlers registered.
func (r *Router) builtinRead(inst *element.Instance, handlerName string) (string, bool) {
	switch handlerName {
	case "name":
		return inst.Name + "\n", true
	case "class":
		return inst.Class + "\n", true
	case "config":
		return strings.Join(inst.ConfigArgs, ", ") + "\n", true
	case "id":
		return inst.ID.String() + "\n", true
	case "ports":
		return r.renderPorts(inst.Name), true
	case "handlers":
		names := append([]string{"name", "class", "config", "id", "ports", "handlers"}, inst.Handlers.Names()...)
		return strings.Join(names, "\n") + "\n", true
	default:
		return "", false
	}
}

func (r *Router) renderPorts(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var b strings.Builder
	for _, p := range r.ports {
		if p.Element != name {
			continue
		}
		fmt.Fprintf(&b, "%s[%d] %s\n", p.Dir, p.Index, p.Discipline)
	}
	return b.String()
}

// splitHandlerName splits "element.handler" into its two parts; a name
// with no dot is a router-scoped handler.
func splitHandlerName(full string) (elementName, handlerName string, scoped bool) {
	i := strings.IndexByte(full, '.')
	if i < 0 {
		return "", full, false
	}
	return full[:i], full[i+1:], true
}

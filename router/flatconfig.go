package router

import (
	"fmt"
	"strings"
)

// Flatconfig renders the router's current graph as round-trippable text
// (§4.7, §6): one "name :: class(config);" per element in construction
// order, followed by one "from[port] -> [port]to;" per connection,
// matching exactly what config.Parse accepts.
func (r *Router) Flatconfig() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder
	for _, inst := range r.elements {
		fmt.Fprintf(&b, "%s :: %s(%s);\n", inst.Name, inst.Class, strings.Join(inst.ConfigArgs, ", "))
	}
	for _, conn := range r.connections {
		fmt.Fprintf(&b, "%s[%d] -> [%d]%s;\n", conn.FromElement, conn.FromPort, conn.ToPort, conn.ToElement)
	}
	return b.String()
}

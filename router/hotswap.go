package router

import "github.com/clickgo/swrouter/element"

// TransferStateFrom invokes TakeStateFrom on every element of r that
// implements element.StateReceiver and has a same-named predecessor in
// old (§4.6's hot-swap state-transfer hook). It is called once old is
// stopped but before it is torn down, so TakeStateFrom can still read
// whatever the predecessor's last state was.
//
// r must already be Initialize()d (TakeStateFrom runs after the new
// element's own Initialize, so it can override defaults the predecessor
// had customized) but not yet Activate()d.
func (r *Router) TransferStateFrom(old *Router) {
	r.mu.RLock()
	elements := append([]*element.Instance(nil), r.elements...)
	r.mu.RUnlock()

	for _, inst := range elements {
		receiver, ok := inst.Impl.(element.StateReceiver)
		if !ok {
			continue
		}
		prev, ok := old.Lookup(inst.Name)
		if !ok {
			continue
		}
		receiver.TakeStateFrom(prev.Impl)
	}
}

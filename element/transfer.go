package element

import (
	"github.com/clickgo/swrouter/packet"
	"github.com/clickgo/swrouter/port"
)

// Forward delivers pkt to every peer connected to ctx's local output
// outPort, killing it if there is nowhere to send it. A single output
// fanning out to several inputs (§3) hands the original packet to the last
// peer and a Clone to every earlier one, so each peer owns exactly one
// reference and the shared payload is freed only once all of them Kill
// their copy. Elements that override Push/Pull directly (instead of
// relying on BaseElement's SimpleAction wrapping) use this to hand a
// packet downstream.
func Forward(ctx Context, outPort int, pkt *packet.Packet) {
	if ctx == nil {
		pkt.Kill()
		return
	}
	peers := ctx.Peers(port.Output, outPort)
	if len(peers) == 0 {
		pkt.Kill()
		return
	}
	for i, peer := range peers {
		if i == len(peers)-1 {
			peer.Element.Push(peer.Port, pkt)
			continue
		}
		peer.Element.Push(peer.Port, pkt.Clone())
	}
}

// PullFrom requests a packet from the peer connected to ctx's local input
// inPort, returning nil if there is no peer or the peer has nothing now. It
// pulls only from the first peer: port.Resolve does not reject several
// outputs connected to one pull input, and any peer after the first is
// never pulled.
func PullFrom(ctx Context, inPort int) *packet.Packet {
	if ctx == nil {
		return nil
	}
	peers := ctx.Peers(port.Input, inPort)
	if len(peers) == 0 {
		return nil
	}
	return peers[0].Element.Pull(peers[0].Port)
}

// Package netif wires the process-lifetime components that otherwise
// form a reference cycle — Forwarder, Resolver, Network Data Leader,
// and MLE — into a single Node value, per spec.md §9's "netif context
// value passed by reference" design note. Each component holds its
// peers as borrowed references; Node is their only owner.
package netif

import (
	"encoding/hex"

	"github.com/hwipl/thread-core/internal/buffer"
	"github.com/hwipl/thread-core/internal/coap"
	"github.com/hwipl/thread-core/internal/config"
	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/forwarder"
	"github.com/hwipl/thread-core/internal/neighbor"
	"github.com/hwipl/thread-core/internal/netdata"
	"github.com/hwipl/thread-core/internal/resolver"
)

// Node owns one instance of every cyclically-referencing component for
// a single Thread node/simulation endpoint.
type Node struct {
	Pool      *buffer.Pool
	Server    *coap.Server
	Neighbors *neighbor.Table
	Resolver  *resolver.Resolver
	Leader    *netdata.Leader
	Forwarder *forwarder.Forwarder
	MLE       *StaticMLE
}

// ParseExtAddr decodes a hex-encoded extended address as carried in
// config.MacConfig.ExtendedAddress.
func ParseExtAddr(s string) ([8]byte, corerr.Kind) {
	var addr [8]byte
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 8 {
		return addr, corerr.Parse
	}
	copy(addr[:], raw)
	return addr, corerr.None
}

// New builds a Node from cfg, using send to transmit CoAP datagrams and
// onResolved as the Address Resolver's resolution callback. mle is the
// StaticMLE stand-in that supplies the node's attach-state/routing view;
// New also installs it as the Leader's address configurator.
func New(cfg config.Config, mle *StaticMLE, idSeed uint16, send resolver.Sender, onResolved func(target [16]byte)) (*Node, corerr.Kind) {
	extAddr, kind := ParseExtAddr(cfg.Mac.ExtendedAddress)
	if kind.Fail() {
		return nil, kind
	}

	pool := buffer.NewPool(cfg.Pool.NumBuffers, cfg.Pool.BufferSize)
	neighbors := neighbor.NewTable(int(maxChildren))
	server := coap.NewServer()

	res := resolver.New(extAddr, neighbors, idSeed, send, onResolved, server)
	leader := netdata.New(mle, idSeed+1, server)
	leader.SetAddressConfigurator(mle)
	fwd := forwarder.New(pool, cfg.Mac.ShortAddress, mle.IsFFD(), idSeed+2, mle, res, leader, neighbors)

	return &Node{
		Pool:      pool,
		Server:    server,
		Neighbors: neighbors,
		Resolver:  res,
		Leader:    leader,
		Forwarder: fwd,
		MLE:       mle,
	}, corerr.None
}

// maxChildren bounds the neighbor table capacity (spec.md §3's
// kMaxChildren-sized bit-vector, also used for ChildMask width).
const maxChildren = 64

// Tick advances every 1Hz timer the wired components own: the Address
// Resolver's cache reap and the Leader's context-reuse delay.
func (n *Node) Tick() {
	n.Resolver.Cache.Tick()
	n.Leader.Tick()
}

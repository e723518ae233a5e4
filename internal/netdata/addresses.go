package netdata

// AddressConfigurator is the narrow collaborator Leader walks its
// on-mesh prefixes against to add or remove local unicast addresses,
// mirroring original_source/src/core/thread/network_data_leader.cpp's
// ConfigureAddresses/ConfigureAddress (spec.md §4.7 "Address
// configuration"). A Leader built without one (most tests) simply
// skips the walk.
type AddressConfigurator interface {
	AddUnicastAddress(addr [16]byte, prefixLen int)
	RemoveUnicastAddress(addr [16]byte, prefixLen int)
}

// localAddress is one address Leader has configured for an on-mesh
// prefix, tracked so a later withdrawal can be told to remove exactly
// what was added.
type localAddress struct {
	addr      [16]byte
	prefixLen int
}

// SetAddressConfigurator installs the collaborator configureAddresses
// drives. Called once at node wiring time (internal/netif), never by
// tests that don't care about address side effects.
func (l *Leader) SetAddressConfigurator(addrs AddressConfigurator) {
	l.addrs = addrs
}

// configureAddresses implements spec.md §4.7's "Address configuration":
// walk Store.Prefixes and drop any previously-configured local address
// whose prefix is no longer on-mesh, then ensure every on-mesh prefix
// with a Valid border-router entry has one.
func (l *Leader) configureAddresses() {
	if l.addrs == nil {
		return
	}

	kept := l.localAddresses[:0]
	for _, a := range l.localAddresses {
		if l.Store.IsOnMesh(a.addr) {
			kept = append(kept, a)
			continue
		}
		l.addrs.RemoveUnicastAddress(a.addr, a.prefixLen)
	}
	l.localAddresses = kept

	for _, p := range l.Store.Prefixes {
		if !hasValidBorderRouter(p) {
			continue
		}
		if l.hasLocalAddress(p.PrefixLen, p.Prefix) {
			continue
		}
		addr := p.Prefix
		l.addrs.AddUnicastAddress(addr, p.PrefixLen)
		l.localAddresses = append(l.localAddresses, localAddress{addr: addr, prefixLen: p.PrefixLen})
	}
}

func hasValidBorderRouter(p PrefixEntry) bool {
	for _, br := range p.BorderRouter {
		if br.Valid {
			return true
		}
	}
	return false
}

func (l *Leader) hasLocalAddress(prefixLen int, prefix [16]byte) bool {
	for _, a := range l.localAddresses {
		if a.prefixLen == prefixLen && a.addr == prefix {
			return true
		}
	}
	return false
}

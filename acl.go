package cubewire

import (
	"net"
	"sync"
)

// AccessList is an ordered set of address rules. It is safe for
// concurrent use.
type AccessList struct {
	mu    sync.RWMutex
	rules []IPMask
}

// NewAccessList returns an AccessList holding rules.
func NewAccessList(rules ...IPMask) *AccessList {
	l := &AccessList{}
	for _, r := range rules {
		l.Add(r)
	}
	return l
}

// ParseAccessList parses each entry with ParseIPMask.
func ParseAccessList(entries []string) *AccessList {
	l := &AccessList{}
	for _, e := range entries {
		l.Add(ParseIPMask(e))
	}
	return l
}

// Add appends rule unless an identical rule is already present.
// It reports whether the list changed.
func (l *AccessList) Add(rule IPMask) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, r := range l.rules {
		if r == rule {
			return false
		}
	}
	l.rules = append(l.rules, rule)
	return true
}

// Remove deletes rule and reports whether it was present.
func (l *AccessList) Remove(rule IPMask) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, r := range l.rules {
		if r == rule {
			l.rules = append(l.rules[:i], l.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Rules returns a copy of the rules in insertion order.
func (l *AccessList) Rules() []IPMask {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]IPMask(nil), l.rules...)
}

// Len returns the number of rules.
func (l *AccessList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.rules)
}

// Check returns the first rule matching host.
func (l *AccessList) Check(host uint32) (IPMask, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, r := range l.rules {
		if r.Check(host) {
			return r, true
		}
	}
	return IPMask{}, false
}

// CheckAddr is Check for the host part of a TCP or UDP address.
// Addresses without an IPv4 host never match.
func (l *AccessList) CheckAddr(addr net.Addr) (IPMask, bool) {
	var ip net.IP
	switch a := addr.(type) {
	case *net.TCPAddr:
		ip = a.IP
	case *net.UDPAddr:
		ip = a.IP
	case *net.IPAddr:
		ip = a.IP
	default:
		return IPMask{}, false
	}

	host, ok := ipv4Uint32(ip)
	if !ok {
		return IPMask{}, false
	}
	return l.Check(host)
}

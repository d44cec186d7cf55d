package store

import (
	"log/slog"
	"strings"
)

// AddressBook is the immutable watch-list: per-chain sets of monitored
// addresses with optional human labels. Built once at startup and only
// read afterwards, so no locking is needed.
type AddressBook struct {
	entries map[Chain]map[string]string // address -> label ("" if unlabeled)
	order   map[Chain][]string          // load order, for stable listings
}

// NewAddressBook builds an AddressBook from per-chain address lists and
// label maps. Malformed addresses are dropped with a warning; duplicate
// (chain, address) pairs keep the first occurrence.
func NewAddressBook(addresses map[Chain][]string, labels map[Chain]map[string]string) *AddressBook {
	book := &AddressBook{
		entries: make(map[Chain]map[string]string),
		order:   make(map[Chain][]string),
	}

	for _, chain := range Chains {
		book.entries[chain] = make(map[string]string)

		chainLabels := make(map[string]string, len(labels[chain]))
		for addr, label := range labels[chain] {
			chainLabels[NormalizeAddress(chain, addr)] = label
		}

		for _, addr := range addresses[chain] {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			if !ValidAddress(chain, addr) {
				slog.Warn("address_dropped", "chain", chain, "address", addr, "reason", "invalid format")
				continue
			}
			addr = NormalizeAddress(chain, addr)
			if _, dup := book.entries[chain][addr]; dup {
				slog.Warn("address_dropped", "chain", chain, "address", addr, "reason", "duplicate")
				continue
			}
			book.entries[chain][addr] = chainLabels[addr]
			book.order[chain] = append(book.order[chain], addr)
		}
	}

	return book
}

// NormalizeAddress canonicalizes an address for matching. ETH addresses
// are case-insensitive hex and the feeds deliver them lowercased, so
// the book stores and looks them up in lowercase. BTC addresses are
// case-sensitive and kept verbatim.
func NormalizeAddress(chain Chain, addr string) string {
	if chain == ChainETH {
		return strings.ToLower(addr)
	}
	return addr
}

// ValidAddress reports whether addr looks like a well-formed address
// for the chain. Format checks only, no checksum verification.
func ValidAddress(chain Chain, addr string) bool {
	switch chain {
	case ChainBTC:
		switch {
		case strings.HasPrefix(addr, "bc1"):
			return len(addr) >= 42 && len(addr) <= 62
		case strings.HasPrefix(addr, "1"), strings.HasPrefix(addr, "3"):
			return len(addr) >= 26 && len(addr) <= 35
		}
		return false
	case ChainETH:
		if !strings.HasPrefix(addr, "0x") || len(addr) != 42 {
			return false
		}
		for _, c := range addr[2:] {
			if !isHexDigit(c) {
				return false
			}
		}
		return true
	}
	return false
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Contains reports whether the address is watched on the chain.
func (b *AddressBook) Contains(chain Chain, addr string) bool {
	_, ok := b.entries[chain][NormalizeAddress(chain, addr)]
	return ok
}

// Label returns the human label for a watched address, falling back to
// a truncated display form when unlabeled.
func (b *AddressBook) Label(chain Chain, addr string) string {
	if label := b.entries[chain][NormalizeAddress(chain, addr)]; label != "" {
		return label
	}
	return TruncateAddress(addr)
}

// Addresses returns the watched addresses for a chain in load order.
func (b *AddressBook) Addresses(chain Chain) []string {
	out := make([]string, len(b.order[chain]))
	copy(out, b.order[chain])
	return out
}

// Count returns the number of watched addresses on a chain.
func (b *AddressBook) Count(chain Chain) int {
	return len(b.entries[chain])
}

// Total returns the number of watched addresses across all chains.
func (b *AddressBook) Total() int {
	n := 0
	for _, chain := range Chains {
		n += len(b.entries[chain])
	}
	return n
}

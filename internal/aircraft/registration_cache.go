package aircraft

import "go1090/internal/registry"

// regKind tags which variant of registration storage a record holds,
// per Design Notes §9: the original stores either a pointer into a CSV
// array or a heap-allocated SQL row; here that is a typed tagged
// variant instead of an untyped union, so the table never owns a
// registration row it did not itself allocate.
type regKind int

const (
	regNone regKind = iota
	regBorrowed
	regOwned
)

type regRef struct {
	kind regKind
	ptr  *registry.Registration
	val  registry.Registration
}

// Get returns the registration this record caches, if any.
func (r regRef) Get() (registry.Registration, bool) {
	switch r.kind {
	case regBorrowed:
		return *r.ptr, true
	case regOwned:
		return r.val, true
	default:
		return registry.Registration{}, false
	}
}

// lookupRegistration consults p once and tags the result: a
// registry.RefProvider (e.g. the CSV provider, whose rows live for the
// process lifetime) is borrowed by pointer; any other Provider (e.g.
// the sqlite provider, which allocates a fresh row per query) is
// copied and owned.
func lookupRegistration(p registry.Provider, icao24 string) regRef {
	if p == nil {
		return regRef{kind: regNone}
	}
	if rp, ok := p.(registry.RefProvider); ok {
		if ptr, ok := rp.LookupRef(icao24); ok {
			return regRef{kind: regBorrowed, ptr: ptr}
		}
		return regRef{kind: regNone}
	}
	if reg, ok := p.Lookup(icao24); ok {
		return regRef{kind: regOwned, val: reg}
	}
	return regRef{kind: regNone}
}

package geocoding

import "fmt"

// ErrProvider is returned when a backend fails for transport or protocol
// reasons. The query itself may be fine; retrying or falling back to another
// tier can still succeed.
type ErrProvider struct {
	Provider string
	Address  string
	Reason   string
}

func (e *ErrProvider) Error() string {
	return fmt.Sprintf("geocoding failed on %s for address: %s - %s", e.Provider, e.Address, e.Reason)
}

// ErrNotFound is returned when a backend answered normally but had no match
// for the query
type ErrNotFound struct {
	Provider string
	Address  string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("no geocoding results on %s for address: %s", e.Provider, e.Address)
}

// ErrConfiguration is returned when a provider cannot be used as configured,
// e.g. a malformed base URL or a missing User-Agent. It says nothing about
// the address, so the resolver never caches it.
type ErrConfiguration struct {
	Provider string
	Reason   string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("geocoding provider %s misconfigured: %s", e.Provider, e.Reason)
}

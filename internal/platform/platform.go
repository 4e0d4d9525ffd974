// Package platform describes what the hosting environment can do for the
// client: how it reaches coordinators, where it keeps small values and how it
// hands the robot token to the user.
package platform

// Capabilities is resolved once at startup and passed explicitly to the
// components that need to branch on the host.
type Capabilities struct {
	// Native is true when running inside a specialized host (desktop/mobile
	// wrapper, CLI with its own networking) rather than behind a web origin.
	Native bool
	// Onion is true when the host can route .onion addresses.
	Onion bool
	// Origin is the scheme-less host of the serving context, used when not Native.
	Origin string
}

// Store is a host provided key/value store.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

type Clipboard interface {
	Copy(value string) error
}

type Host struct {
	Capabilities Capabilities
	Store        Store
	Clipboard    Clipboard
}

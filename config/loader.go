package config

// Loader loads configuration into a target and reports changes.
type Loader interface {
	// Load fills target, which must be a pointer to a struct.
	Load(target any) error

	// Watch invokes callback whenever the underlying source changes.
	Watch(callback func()) error
}

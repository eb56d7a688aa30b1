package ocppskema

// SetMaterializeHook installs fn as the conversion observer and returns a
// function restoring the previous one.
func SetMaterializeHook(fn func(*Cell)) func() {
	prev := materializeHook
	materializeHook = fn
	return func() { materializeHook = prev }
}

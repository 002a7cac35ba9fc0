package platform

// Provider bundles the host-application backends handed to the bridge at
// construction. Fields may be nil when the integrator does not use the
// corresponding feature: explicit tap reporting needs neither a HitTester
// nor a PointerSource, and a read-only bridge needs no Injector.
type Provider struct {
	HitTester HitTester
	Injector  Injector
	Pointer   PointerSource
}

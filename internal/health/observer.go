package health

// Observer is notified of registry events. Implementations must be safe for
// concurrent use and must not call back into the Registry: callbacks run while
// gateway locks are held.
type Observer interface {
	GatewaySelected(name string)
	SelectionFailed()
	OutcomeRecorded(name string, success bool)
	GatewayStateChanged(name string, healthy bool)
	ConfigInstalled(names []string)
}

type nopObserver struct{}

func (nopObserver) GatewaySelected(string)           {}
func (nopObserver) SelectionFailed()                 {}
func (nopObserver) OutcomeRecorded(string, bool)     {}
func (nopObserver) GatewayStateChanged(string, bool) {}
func (nopObserver) ConfigInstalled([]string)         {}

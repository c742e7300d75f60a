package bulkops

import (
	"fmt"

	"github.com/deploymenttheory/go-jamfpro-fleetops/jamfpro"
)

// OperationKind selects the primary action of a run.
type OperationKind int

const (
	KindRedeploy OperationKind = iota
	KindSetManagedState
)

// Operation is the action applied to every item of a run.
type Operation struct {
	Kind OperationKind
	// TargetManaged is the desired managed state for KindSetManagedState.
	TargetManaged bool
	// LockIfUnmanaging locks the device with PIN before unmanaging it.
	LockIfUnmanaging bool
	PIN              string
}

// Redeploy reinstalls the Jamf management framework on each device.
func Redeploy() Operation {
	return Operation{Kind: KindRedeploy}
}

// SetManagedState sets each device's managed flag. When unmanaging with lock, the device is
// locked with pin first and left untouched if the lock fails.
func SetManagedState(target, lockIfUnmanaging bool, pin string) Operation {
	return Operation{Kind: KindSetManagedState, TargetManaged: target, LockIfUnmanaging: lockIfUnmanaging, PIN: pin}
}

func (o Operation) locksBeforeUnmanage() bool {
	return o.Kind == KindSetManagedState && !o.TargetManaged && o.LockIfUnmanaging
}

// Validate rejects operations that cannot succeed for any item.
func (o Operation) Validate() error {
	switch o.Kind {
	case KindRedeploy:
		return nil
	case KindSetManagedState:
		if o.locksBeforeUnmanage() {
			return jamfpro.ValidatePIN(o.PIN)
		}
		return nil
	default:
		return fmt.Errorf("unknown operation kind %d", o.Kind)
	}
}

func (o Operation) String() string {
	switch {
	case o.Kind == KindRedeploy:
		return "redeploy"
	case o.locksBeforeUnmanage():
		return "lock and unmanage"
	case o.TargetManaged:
		return "set managed"
	default:
		return "set unmanaged"
	}
}

package signaling

// Observer receives room lifecycle notifications from the Router. Calls are
// made while the room lock is held, so implementations must not block.
type Observer interface {
	// Joined reports an accepted join. Role Caller means the room was created.
	Joined(room string, id ConnID, role Role)
	Rejected(room string, id ConnID)
	// Left reports a member removal; empty means the room was deleted.
	Left(room string, id ConnID, empty bool)
	Violation(event string)
}

type nopObserver struct{}

func (nopObserver) Joined(string, ConnID, Role) {}
func (nopObserver) Rejected(string, ConnID) {}
func (nopObserver) Left(string, ConnID, bool) {}
func (nopObserver) Violation(string) {}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (o Observers) Joined(room string, id ConnID, role Role) {
	for _, ob := range o {
		ob.Joined(room, id, role)
	}
}

func (o Observers) Rejected(room string, id ConnID) {
	for _, ob := range o {
		ob.Rejected(room, id)
	}
}

func (o Observers) Left(room string, id ConnID, empty bool) {
	for _, ob := range o {
		ob.Left(room, id, empty)
	}
}

func (o Observers) Violation(event string) {
	for _, ob := range o {
		ob.Violation(event)
	}
}

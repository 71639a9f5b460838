package clock

import "fmt"

// Local is (replica, counter): a clock that is monotonic per replica and
// never observed by peers. It is used solely to mint FileID.New values, so
// that two replicas can never generate the same identifier for two
// different files without coordinating.
type Local struct {
	Replica ReplicaID
	Counter uint64
}

// NewLocal starts a local clock for replica at counter 1: counter 0 is
// reserved so the zero value of Local is never handed out as a real
// identifier.
func NewLocal(replica ReplicaID) Local {
	return Local{Replica: replica, Counter: 1}
}

// Tick returns the current value and advances the counter, mirroring
// Lamport.Tick: the returned value is what gets stamped on the operation
// being minted.
func (l *Local) Tick() Local {
	t := *l
	l.Counter++
	return t
}

func (l Local) Less(other Local) bool {
	if l.Counter != other.Counter {
		return l.Counter < other.Counter
	}
	return l.Replica.Less(other.Replica)
}

func (l Local) Equal(other Local) bool {
	return l.Counter == other.Counter && l.Replica == other.Replica
}

func (l Local) String() string {
	return fmt.Sprintf("%s/%d", l.Replica, l.Counter)
}

// Lamport is (value, replica): the logical timestamp operations are
// ordered by. Ordering is lexicographic on (value, replica), so that any
// two distinct operations compare unequal even if minted at the same
// logical value by different replicas.
type Lamport struct {
	Value   uint64
	Replica ReplicaID
}

// NewLamport starts a Lamport clock for replica at value 1.
func NewLamport(replica ReplicaID) Lamport {
	return Lamport{Value: 1, Replica: replica}
}

// Min is the smallest possible Lamport value for a given replica. Baseline
// entries are stamped with Min so that any real operation, minted via Tick,
// outranks them; see epoch.AppendBaseEntries.
func Min(replica ReplicaID) Lamport {
	return Lamport{Value: 0, Replica: replica}
}

// Max is the sentinel used to seek "the current value" in a
// timestamp-descending tree: it compares greater than every Lamport value
// that can legitimately be minted.
var Max = Lamport{Value: ^uint64(0), Replica: ReplicaID{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}}

// Tick advances the clock and returns the pre-tick value, to be stamped on
// a freshly minted local operation.
func (c *Lamport) Tick() Lamport {
	t := *c
	c.Value++
	return t
}

// Observe merges in a timestamp seen on a remote operation: value becomes
// max(self.value, other.value) + 1. Never called on a pure read.
func (c *Lamport) Observe(other Lamport) {
	if other.Value > c.Value {
		c.Value = other.Value
	}
	c.Value++
}

// Less implements the (value, replica) lexicographic order.
func (c Lamport) Less(other Lamport) bool {
	if c.Value != other.Value {
		return c.Value < other.Value
	}
	return c.Replica.Less(other.Replica)
}

func (c Lamport) Equal(other Lamport) bool {
	return c.Value == other.Value && c.Replica == other.Replica
}

func (c Lamport) String() string {
	return fmt.Sprintf("%d@%s", c.Value, c.Replica)
}

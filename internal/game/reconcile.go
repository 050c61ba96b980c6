package game

// Peer is the remote side of a multiplayer session.
//
// SendEliminated must not block: it is called from inside a tick.
// TakeReceivedEliminated returns everything reported since the previous call
// and resets the count. An unavailable peer simply returns zero.
type Peer interface {
	SendEliminated(n uint32)
	TakeReceivedEliminated() uint32
}

// PeerFuncs adapts a pair of functions to the Peer interface.
// Nil functions behave like a disconnected peer.
type PeerFuncs struct {
	Send func(n uint32)
	Take func() uint32
}

func (p PeerFuncs) SendEliminated(n uint32) {
	if p.Send != nil {
		p.Send(n)
	}
}

func (p PeerFuncs) TakeReceivedEliminated() uint32 {
	if p.Take == nil {
		return 0
	}
	return p.Take()
}

// Reconciliation is the outcome of one exchange.
type Reconciliation struct {
	Local    int // Enemies removed locally this tick
	Sent     int // Net new kills reported to the peer
	Received int // Kills the peer reported since the last tick
	Net      int // Respawn pressure for this tick
}

// Reconciler merges local removals with the peer's reported kills so both
// sides respawn against the same pressure without double counting.
type Reconciler struct {
	peer     Peer
	credited int // Removals this tick that must not be reported (breaches)
}

// NewReconciler creates a reconciler. A nil peer means single player.
func NewReconciler(peer Peer) *Reconciler {
	return &Reconciler{peer: peer}
}

// Multiplayer reports whether a peer is attached.
func (r *Reconciler) Multiplayer() bool { return r.peer != nil }

// Credit marks n of this tick's removals as already accounted for.
func (r *Reconciler) Credit(n int) {
	if n > 0 {
		r.credited += n
	}
}

// Reset drops pending credit and discards whatever the peer reported since
// the last exchange. It returns the number of discarded kills.
func (r *Reconciler) Reset() int {
	r.credited = 0
	if r.peer == nil {
		return 0
	}
	return int(r.peer.TakeReceivedEliminated())
}

// Reconcile runs the per-tick exchange for localRemoved enemies and returns
// the net eliminated count. The credit tracker is reset afterwards.
func (r *Reconciler) Reconcile(localRemoved int) Reconciliation {
	res := Reconciliation{Local: localRemoved}
	defer func() { r.credited = 0 }()

	if r.peer == nil {
		res.Net = localRemoved
		return res
	}

	if localRemoved > r.credited {
		res.Sent = localRemoved - r.credited
		r.peer.SendEliminated(uint32(res.Sent))
	}

	res.Received = int(r.peer.TakeReceivedEliminated())
	res.Net = localRemoved + res.Received
	return res
}

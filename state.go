package striped

import "sync/atomic"

// rehashState packs the two rehash flags into one word so that the
// "can rehash" check and the "begin rehash" transition are a single CAS.
type rehashState uint32

const (
	rehashEnabled    rehashState = 1 << 0
	rehashInProgress rehashState = 1 << 1
)

func (s rehashState) enabled() bool {
	return s&rehashEnabled != 0
}

func (s rehashState) inProgress() bool {
	return s&rehashInProgress != 0
}

func (s rehashState) canRehash() bool {
	return s == rehashEnabled
}

func (s rehashState) String() string {
	str := "disabled"
	if s.enabled() {
		str = "enabled"
	}
	if s.inProgress() {
		str += ",rehashing"
	}
	return str
}

// atomicRehashState is only ever mutated through compare-and-swap.
type atomicRehashState struct {
	v atomic.Uint32
}

func (a *atomicRehashState) init(s rehashState) {
	a.v.Store(uint32(s))
}

func (a *atomicRehashState) load() rehashState {
	return rehashState(a.v.Load())
}

func (a *atomicRehashState) update(fn func(rehashState) rehashState) {
	for {
		old := a.v.Load()
		if a.v.CompareAndSwap(old, uint32(fn(rehashState(old)))) {
			return
		}
	}
}

func (a *atomicRehashState) enable() {
	a.update(func(s rehashState) rehashState { return s | rehashEnabled })
}

func (a *atomicRehashState) disable() {
	a.update(func(s rehashState) rehashState { return s &^ rehashEnabled })
}

// tryBegin moves enabled+idle to enabled+rehashing. It fails if rehash is
// disabled or another goroutine already owns the rehash.
func (a *atomicRehashState) tryBegin() bool {
	return a.v.CompareAndSwap(uint32(rehashEnabled), uint32(rehashEnabled|rehashInProgress))
}

// finish clears the in-progress flag, keeping whatever enabled flag a
// concurrent EnableRehash/DisableRehash left behind.
func (a *atomicRehashState) finish() {
	a.update(func(s rehashState) rehashState { return s &^ rehashInProgress })
}

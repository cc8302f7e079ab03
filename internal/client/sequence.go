package client

import "sync/atomic"

// SeqGuard drops responses that arrive after a newer request was started.
// Begin is called when a request is issued; a result is applied only when
// Current still reports its token.
type SeqGuard struct {
	seq atomic.Uint64
}

func (g *SeqGuard) Begin() uint64 {
	return g.seq.Add(1)
}

func (g *SeqGuard) Current(token uint64) bool {
	return g.seq.Load() == token
}

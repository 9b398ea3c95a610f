package deprule

// FindPeers links each rule of the before build to its counterpart in
// the after build. The first pass pairs rules that match structurally;
// the second pass pairs still-unlinked rules of the same kind and
// subject, so a rule whose version changed still finds its peer. Rules
// with no counterpart keep a nil Peer.
//
// Links are computed once per verification run; the verifiers only read
// them.
func FindPeers(before, after []*Rule) {
	for _, b := range before {
		if b.Peer != nil {
			continue
		}
		for _, a := range after {
			if a.Peer != nil {
				continue
			}
			if Match(b, a) {
				link(b, a)
				break
			}
		}
	}

	for _, b := range before {
		if b.Peer != nil {
			continue
		}
		for _, a := range after {
			if a.Peer != nil {
				continue
			}
			if b.Kind == a.Kind && b.Name == a.Name {
				link(b, a)
				break
			}
		}
	}
}

func link(b, a *Rule) {
	b.Peer = a
	a.Peer = b
}

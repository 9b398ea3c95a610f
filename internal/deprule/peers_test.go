package deprule

import "testing"

func TestFindPeersExactMatch(t *testing.T) {
	before := []*Rule{
		{Kind: KindRequires, Name: "foo", Operator: OpEqual, Version: "1.0-1"},
		{Kind: KindProvides, Name: "libfoo.so.1"},
	}
	after := []*Rule{
		{Kind: KindProvides, Name: "libfoo.so.1"},
		{Kind: KindRequires, Name: "foo", Operator: OpEqual, Version: "1.0-1"},
	}

	FindPeers(before, after)

	if before[0].Peer != after[1] || after[1].Peer != before[0] {
		t.Fatalf("requires rules not linked")
	}
	if before[1].Peer != after[0] || after[0].Peer != before[1] {
		t.Fatalf("provides rules not linked")
	}
}

func TestFindPeersChangedVersion(t *testing.T) {
	before := []*Rule{
		{Kind: KindRequires, Name: "foo", Operator: OpEqual, Version: "1.0-1"},
	}
	after := []*Rule{
		{Kind: KindRequires, Name: "foo", Operator: OpEqual, Version: "2.0-1"},
	}

	FindPeers(before, after)

	if before[0].Peer != after[0] {
		t.Fatalf("changed rule should still link by kind+name")
	}
}

func TestFindPeersUnmatched(t *testing.T) {
	before := []*Rule{
		{Kind: KindRequires, Name: "gone"},
	}
	after := []*Rule{
		{Kind: KindRequires, Name: "new"},
		{Kind: KindProvides, Name: "gone"},
	}

	FindPeers(before, after)

	if before[0].Peer != nil {
		t.Fatalf("lost rule must keep nil peer (kind differs on the provides)")
	}
	if after[0].Peer != nil {
		t.Fatalf("gained rule must keep nil peer")
	}
}

func TestFindPeersPrefersExactOverNameMatch(t *testing.T) {
	before := []*Rule{
		{Kind: KindRequires, Name: "foo", Operator: OpEqual, Version: "1.0-1"},
		{Kind: KindRequires, Name: "foo", Operator: OpGreaterEqual, Version: "0.5"},
	}
	after := []*Rule{
		{Kind: KindRequires, Name: "foo", Operator: OpGreaterEqual, Version: "0.5"},
		{Kind: KindRequires, Name: "foo", Operator: OpEqual, Version: "2.0-1"},
	}

	FindPeers(before, after)

	if before[1].Peer != after[0] {
		t.Fatalf("exact match must win the first pass")
	}
	if before[0].Peer != after[1] {
		t.Fatalf("remaining rule should link by kind+name in the second pass")
	}
}

package solvers

import "testing"

func TestLitEncoding(t *testing.T) {
	p := NewLit(3, false) // x4
	if p.Var() != 3 || p.Sign() {
		t.Fatalf("positive literal broken: %d", p)
	}
	n := NewLit(3, true) // !x4
	if n.Var() != 3 || !n.Sign() {
		t.Fatalf("negative literal broken: %d", n)
	}
	if p.Flip() != n || n.Flip() != p {
		t.Fatalf("flip is not an involution: %d %d", p.Flip(), n.Flip())
	}
	if p.Index() != 6 || n.Index() != 7 {
		t.Fatalf("wrong dense indices: %d %d", p.Index(), n.Index())
	}
}

func TestValueLit(t *testing.T) {
	s := NewSolver(DefaultConfig())
	v := s.NewVar(true, true)
	p := NewLit(v, false)

	if s.ValueLit(p) != LitBoolUndef {
		t.Fatalf("fresh variable is not undef")
	}
	s.uncheckedEnqueue(p, ClaRefUndef)
	if s.ValueLit(p) != LitBoolTrue {
		t.Fatalf("enqueued literal is not true")
	}
	if s.ValueLit(p.Flip()) != LitBoolFalse {
		t.Fatalf("negation of an enqueued literal is not false")
	}
	if s.ValueVar(v) != LitBoolTrue {
		t.Fatalf("variable value does not follow the literal")
	}
}

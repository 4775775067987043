package model

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestFieldDefaultsToZero(t *testing.T) {
	r := NewFieldRegistry()
	r.Register(FieldDef{Name: "Pressure", Location: Vertex, Type: RealDouble, Arity: 1})

	out := make([]float64, 1)
	if err := r.Get(5, "Pressure", out); err != nil {
		t.Fatal(err)
	}
	if out[0] != 0 {
		t.Errorf("unset field = %v, want 0 (registered default)", out[0])
	}
}

func TestFieldSetGetRoundtrip(t *testing.T) {
	r := NewFieldRegistry()
	r.Register(FieldDef{Name: "Velocity", Location: Vertex, Type: RealDouble, Arity: 3})

	if err := r.Set(2, "Velocity", []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	out := make([]float64, 3)
	if err := r.Get(2, "Velocity", out); err != nil {
		t.Fatal(err)
	}
	chk.Vector(t, "Velocity", 1e-15, out, []float64{1, 2, 3})
}

func TestUnknownSolutionErrors(t *testing.T) {
	r := NewFieldRegistry()
	if err := r.Set(1, "Bogus", []float64{1}); err == nil {
		t.Fatal("expected unknown-solution error without AutoRegister")
	}
	out := make([]float64, 1)
	if err := r.Get(1, "Bogus", out); err == nil {
		t.Fatal("expected unknown-solution error on read of unregistered name")
	}
}

func TestAutoRegisterOnWrite(t *testing.T) {
	r := NewFieldRegistry()
	r.AutoRegister = true
	if err := r.Set(1, "NewField", []float64{42}); err != nil {
		t.Fatal(err)
	}
	if r.Def("NewField") == nil {
		t.Fatal("expected auto-registered definition")
	}
}

func TestConstantFieldRejectsSecondWrite(t *testing.T) {
	r := NewFieldRegistry()
	r.Register(FieldDef{Name: "Origin", Location: Vertex, Type: RealDouble, Arity: 1, Constant: true})

	if err := r.Set(3, "Origin", []float64{7}); err != nil {
		t.Fatal(err)
	}
	if err := r.Set(3, "Origin", []float64{8}); err == nil {
		t.Fatal("expected constant-field-rewrite error on second write")
	}
	out := make([]float64, 1)
	if err := r.Get(3, "Origin", out); err != nil {
		t.Fatal(err)
	}
	chk.Scalar(t, "Origin after rejected rewrite", 1e-15, out[0], 7)

	// a different entity's slot is untouched and may still take its first write.
	if err := r.Set(4, "Origin", []float64{9}); err != nil {
		t.Fatal(err)
	}
}

func TestArityMismatch(t *testing.T) {
	r := NewFieldRegistry()
	r.Register(FieldDef{Name: "Vec", Location: Vertex, Type: RealDouble, Arity: 3})
	if err := r.Set(1, "Vec", []float64{1, 2}); err == nil {
		t.Fatal("expected arity-mismatch error")
	}
}

func TestValuesSetValuesRoundtripInOrderedNameOrder(t *testing.T) {
	r := NewFieldRegistry()
	r.Register(FieldDef{Name: "Zeta", Location: Vertex, Type: RealDouble, Arity: 1})
	r.Register(FieldDef{Name: "Alpha", Location: Vertex, Type: RealDouble, Arity: 2})
	r.Register(FieldDef{Name: "CellOnly", Location: CellCenter, Type: RealDouble, Arity: 1})

	if err := r.Set(1, "Zeta", []float64{9}); err != nil {
		t.Fatal(err)
	}
	if err := r.Set(1, "Alpha", []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if got := r.TotalArity(Vertex); got != 3 {
		t.Fatalf("TotalArity(Vertex) = %d, want 3", got)
	}
	flat := r.Values(Vertex, 1)
	chk.Vector(t, "Values", 1e-15, flat, []float64{1, 2, 9}) // Alpha before Zeta: OrderedNames sorts alphabetically

	r2 := NewFieldRegistry()
	r2.Register(FieldDef{Name: "Zeta", Location: Vertex, Type: RealDouble, Arity: 1})
	r2.Register(FieldDef{Name: "Alpha", Location: Vertex, Type: RealDouble, Arity: 2})
	if err := r2.SetValues(Vertex, 5, flat); err != nil {
		t.Fatal(err)
	}
	out := make([]float64, 2)
	if err := r2.Get(5, "Alpha", out); err != nil {
		t.Fatal(err)
	}
	chk.Vector(t, "Alpha after SetValues", 1e-15, out, []float64{1, 2})
}

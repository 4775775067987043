package cgnsio

import (
	"testing"

	"github.com/udmlib-go/udmlib/model"
)

func TestNamingConventions(t *testing.T) {
	if got := ZoneName(3); got != "UdmZone#3" {
		t.Errorf("ZoneName(3) = %q", got)
	}
	if got := ElementsName("HEXA8"); got != "UdmElements_HEXA8" {
		t.Errorf("ElementsName = %q", got)
	}
	if got := GridCoordinatesName(7); got != "GridCoordinates_0000000007" {
		t.Errorf("GridCoordinatesName = %q", got)
	}
	if got := NodeSolutionName(1); got != "UdmSol_Node_0000000001" {
		t.Errorf("NodeSolutionName = %q", got)
	}
	if got := CellSolutionName(1); got != "UdmSol_Cell_0000000001" {
		t.Errorf("CellSolutionName = %q", got)
	}
	if got := ConstNodeSolutionName(1); got != "UdmSol_Node_0000000001_Const" {
		t.Errorf("ConstNodeSolutionName = %q", got)
	}
}

func TestBuildUdmInfoReflectsModel(t *testing.T) {
	m := model.NewModel(1, 4)
	m.RecordSlice(10, 1.5)
	info := BuildUdmInfo(m)
	if info.Rank.RankNumber != 1 || info.Rank.ProcessCount != 4 {
		t.Errorf("RankInfo = %+v", info.Rank)
	}
	if info.Slice.Step != 10 || info.Slice.Time != 1.5 {
		t.Errorf("Slice = %+v", info.Slice)
	}
	if info.Version != model.LibraryVersion {
		t.Errorf("Version = %+v, want %+v", info.Version, model.LibraryVersion)
	}
}

func buildSimpleZone(t *testing.T) *model.Zone {
	t.Helper()
	z := model.NewZone(0)
	a, err := z.InsertNode(0, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := z.InsertNode(1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	c, err := z.InsertNode(1, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := z.InsertCell(model.TRI3, []int{a, b, c}); err != nil {
		t.Fatal(err)
	}
	z.Fields.Register(model.FieldDef{Name: "Pressure", Location: model.CellCenter, Type: model.RealDouble, Arity: 1})
	if err := z.Fields.Set(1, "Pressure", []float64{42}); err != nil {
		t.Fatal(err)
	}
	return z
}

func TestMemoryWriterSnapshotsRealEntitiesAndFields(t *testing.T) {
	z := buildSimpleZone(t)
	w := NewMemoryWriter()
	if err := w.WriteZone(z, 3); err != nil {
		t.Fatal(err)
	}
	snap, ok := w.Zones[z.Name]
	if !ok {
		t.Fatalf("expected a snapshot under key %q", z.Name)
	}
	if len(snap.NodeCoords) != 3 {
		t.Errorf("NodeCoords len = %d, want 3", len(snap.NodeCoords))
	}
	if len(snap.CellKinds) != 1 || snap.CellKinds[0] != model.TRI3 {
		t.Errorf("CellKinds = %v", snap.CellKinds)
	}
	if got := snap.CellValues["Pressure"]; len(got) != 1 || got[0] != 42 {
		t.Errorf("CellValues[Pressure] = %v, want [42]", got)
	}
}

func TestMemoryWriterRejectsNilZone(t *testing.T) {
	w := NewMemoryWriter()
	if err := w.WriteZone(nil, 0); err == nil {
		t.Fatal("expected an error for a nil zone")
	}
}

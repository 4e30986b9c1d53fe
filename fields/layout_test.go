package fields

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prathamesonar/signature-engine/coords"
)

func newTestLayout() *Layout {
	l := NewLayout(coords.PageDims{Width: 595, Height: 842}, 1)
	n := 0
	l.newID = func() string {
		n++
		return fmt.Sprintf("f%d", n)
	}
	return l
}

func TestLayout_Drop(t *testing.T) {
	l := newTestLayout()

	f, err := l.Drop(TypeSignature, 100, 200)
	if err != nil {
		t.Fatalf("Drop() error = %v", err)
	}

	want := Field{
		ID:    "f1",
		Type:  TypeSignature,
		Rect:  coords.ScreenRect{X: 100, Y: 200, Width: DefaultWidth, Height: DefaultHeight},
		Label: "Signature",
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("Drop() mismatch (-want +got):\n%s", diff)
	}
	if l.Selected() != "f1" {
		t.Errorf("Selected() = %q, want f1", l.Selected())
	}
}

func TestLayout_DropOutsidePage(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
	}{
		{"left of page", -1, 10},
		{"above page", 10, -0.5},
		{"right of page", 596, 10},
		{"below page", 10, 843},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLayout()
			if _, err := l.Drop(TypeText, tt.x, tt.y); !errors.Is(err, ErrOutsidePage) {
				t.Errorf("Drop(%v, %v) error = %v, want ErrOutsidePage", tt.x, tt.y, err)
			}
			if len(l.Fields()) != 0 {
				t.Errorf("rejected drop created a field")
			}
		})
	}
}

func TestLayout_EditsAreNotRevalidated(t *testing.T) {
	l := newTestLayout()
	f, _ := l.Drop(TypeText, 10, 10)

	if err := l.Move(f.ID, -50, 5000); err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if err := l.Resize(f.ID, 900, 2); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}

	got, _ := l.Field(f.ID)
	want := coords.ScreenRect{X: -50, Y: 5000, Width: 900, Height: 2}
	if got.Rect != want {
		t.Errorf("Rect = %+v, want %+v", got.Rect, want)
	}
}

func TestLayout_Update(t *testing.T) {
	l := newTestLayout()
	f, _ := l.Drop(TypeText, 10, 10)

	label := "Approved"
	x := 42.0
	if err := l.Update(f.ID, Patch{Label: &label, X: &x}); err != nil {
		t.Fatal(err)
	}
	got, _ := l.Field(f.ID)
	if got.Label != "Approved" || got.Rect.X != 42 || got.Rect.Y != 10 {
		t.Errorf("Update() produced %+v", got)
	}

	if err := l.Update("missing", Patch{Label: &label}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLayout_Delete(t *testing.T) {
	l := newTestLayout()
	a, _ := l.Drop(TypeText, 10, 10)
	b, _ := l.Drop(TypeDate, 20, 20)

	// Deleting with an empty id removes the selection (b).
	if err := l.Delete(""); err != nil {
		t.Fatal(err)
	}
	if _, ok := l.Field(b.ID); ok {
		t.Errorf("selected field was not deleted")
	}
	if l.Selected() != "" {
		t.Errorf("selection not cleared after delete")
	}

	// Nothing selected: no-op.
	if err := l.Delete(""); err != nil {
		t.Fatal(err)
	}
	if len(l.Fields()) != 1 {
		t.Fatalf("Fields() = %d, want 1", len(l.Fields()))
	}

	if err := l.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := l.Delete(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestLayout_Submit(t *testing.T) {
	l := NewLayout(coords.PageDims{Width: 1190, Height: 1684}, 2)
	if _, err := l.Submit("data:image/png;base64,AAAA"); !errors.Is(err, ErrNoFields) {
		t.Errorf("Submit(empty) error = %v, want ErrNoFields", err)
	}

	f, _ := l.Drop(TypeText, 0, 0)
	if _, err := l.Submit(""); !errors.Is(err, ErrNoSignature) {
		t.Errorf("Submit(no signature) error = %v, want ErrNoSignature", err)
	}

	got, err := l.Submit("sig")
	if err != nil {
		t.Fatal(err)
	}
	want := []Placement{{
		Type:     TypeText,
		Label:    f.Label,
		PdfCoord: coords.PdfCoord{X: 0, Y: 822, Width: 60, Height: 20},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Submit() mismatch (-want +got):\n%s", diff)
	}
}

func TestLayout_SubmitWithoutPage(t *testing.T) {
	l := newTestLayout()
	_, _ = l.Drop(TypeText, 1, 1)
	l.SetPage(coords.PageDims{}, 1)

	if _, err := l.Submit("sig"); !errors.Is(err, coords.ErrInvalidPage) {
		t.Errorf("Submit() error = %v, want ErrInvalidPage", err)
	}
}

func TestType(t *testing.T) {
	for _, typ := range Palette {
		if got := ParseType(typ.String()); got != typ {
			t.Errorf("ParseType(%q) = %v, want %v", typ.String(), got, typ)
		}
	}

	if ParseType("Signature") != TypeSignature {
		t.Errorf("ParseType should be case-insensitive")
	}
	if ParseType("stamp") != TypeUnknown {
		t.Errorf("ParseType(stamp) should be TypeUnknown")
	}
	if TypeDate.DefaultLabel() != "Date" {
		t.Errorf("DefaultLabel() = %q", TypeDate.DefaultLabel())
	}

	stampable := map[Type]bool{TypeSignature: true, TypeText: true, TypeDate: true}
	for _, typ := range append(Palette, TypeUnknown) {
		if typ.Stampable() != stampable[typ] {
			t.Errorf("%v.Stampable() = %v", typ, typ.Stampable())
		}
	}
}

func TestPlacement_JSON(t *testing.T) {
	const body = `{"id":1718000000,"type":"radio","label":"R","x":4,"pdfCoord":{"x":1,"y":2,"width":3,"height":4}}`

	var p Placement
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatal(err)
	}
	want := Placement{Type: TypeRadio, Label: "R", PdfCoord: coords.PdfCoord{X: 1, Y: 2, Width: 3, Height: 4}}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("decoded placement mismatch (-want +got):\n%s", diff)
	}

	var unknown Placement
	if err := json.Unmarshal([]byte(`{"type":"hologram"}`), &unknown); err != nil {
		t.Fatal(err)
	}
	if unknown.Type != TypeUnknown {
		t.Errorf("unknown type decoded as %v", unknown.Type)
	}
}

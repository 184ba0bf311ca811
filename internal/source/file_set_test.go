package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("item.rs", []byte("fn a() {}"), 0)
	if id1 != 0 {
		t.Errorf("Expected first FileID to be 0, got %d", id1)
	}

	id2 := fs.Add("item.rs", []byte("fn b() {}"), 0)
	if id2 != 1 {
		t.Errorf("Expected second FileID to be 1, got %d", id2)
	}

	latestID, exists := fs.GetLatest("item.rs")
	if !exists {
		t.Fatal("Expected file to exist after Add")
	}
	if latestID != id2 {
		t.Errorf("Expected latest ID to be %d, got %d", id2, latestID)
	}

	// старая версия остаётся доступной
	if got := string(fs.Get(id1).Content); got != "fn a() {}" {
		t.Errorf("Expected first file content to be preserved, got %q", got)
	}
	if fs.Len() != 2 {
		t.Errorf("Expected 2 files, got %d", fs.Len())
	}
}

func TestAddVirtualKeepsContent(t *testing.T) {
	fs := NewFileSet()

	raw := []byte("fn x() {\r\n}\r\n")
	id := fs.AddVirtual("<input>", raw)
	file := fs.Get(id)

	if string(file.Content) != string(raw) {
		t.Errorf("virtual content must not be normalized, got %q", file.Content)
	}
	if file.Flags&FileVirtual == 0 {
		t.Error("Expected FileVirtual flag to be set")
	}
}

func TestAddVirtualLineIdx(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.rs", []byte("a\nb\n"))
	file := fs.Get(id)

	expected := []uint32{1, 3}
	if len(file.LineIdx) != len(expected) {
		t.Fatalf("Expected LineIdx length %d, got %d", len(expected), len(file.LineIdx))
	}
	for i, val := range expected {
		if file.LineIdx[i] != val {
			t.Errorf("Expected LineIdx[%d] = %d, got %d", i, val, file.LineIdx[i])
		}
	}
}

func TestResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("item.rs", []byte("struct A;\nenum B {}\n"))

	tests := []struct {
		name string
		off  uint32
		want LineCol
	}{
		{"start", 0, LineCol{Line: 1, Col: 1}},
		{"newline belongs to first line", 9, LineCol{Line: 1, Col: 10}},
		{"second line start", 10, LineCol{Line: 2, Col: 1}},
		{"second line ident", 15, LineCol{Line: 2, Col: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
			if start != tt.want {
				t.Errorf("Resolve(%d) = %+v, want %+v", tt.off, start, tt.want)
			}
		})
	}
}

func TestResolveUTF8(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.rs", []byte("α\n"))

	start, end := fs.Resolve(Span{File: id, Start: 0, End: 1})
	if start != (LineCol{Line: 1, Col: 1}) {
		t.Errorf("unexpected start %+v", start)
	}
	if end != (LineCol{Line: 1, Col: 2}) {
		t.Errorf("unexpected end %+v", end)
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("x.rs", []byte("first\nsecond\nthird")))

	cases := map[uint32]string{
		0: "",
		1: "first",
		2: "second",
		3: "third",
		4: "",
	}
	for line, want := range cases {
		if got := file.GetLine(line); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", line, got, want)
		}
	}
}

func TestSliceClamps(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("x.rs", []byte("hello"))
	file := fs.Get(id)

	if got := file.Slice(Span{File: id, Start: 1, End: 3}); got != "el" {
		t.Errorf("Slice = %q, want %q", got, "el")
	}
	if got := file.Slice(Span{File: id, Start: 3, End: 99}); got != "lo" {
		t.Errorf("Slice past end = %q, want %q", got, "lo")
	}
	if got := fs.Text(file.FullSpan()); got != "hello" {
		t.Errorf("Text(FullSpan) = %q", got)
	}
}

func TestLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "item.rs")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("fn a() {\r\n}\r\n")...)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	file := fs.Get(id)
	if string(file.Content) != "fn a() {\n}\n" {
		t.Errorf("unexpected content %q", file.Content)
	}
	if file.Flags&FileHadBOM == 0 || file.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("expected BOM and CRLF flags, got %b", file.Flags)
	}
}

func TestLoadMissing(t *testing.T) {
	fs := NewFileSet()
	if _, err := fs.Load(filepath.Join(t.TempDir(), "nope.rs")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

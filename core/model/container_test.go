package model

import (
	"errors"
	"reflect"
	"testing"

	xerrors "github.com/FocuswithJustin/xmldoc/core/errors"
)

func TestContainerInsertAndRemove(t *testing.T) {
	d := newTestDocument(t)
	root, err := d.Container("root")
	if err != nil {
		t.Fatal(err)
	}

	a := mustCreate(t, d, "paragraph", Props{"id": "a"})
	b := mustCreate(t, d, "paragraph", Props{"id": "b"})
	c := mustCreate(t, d, "paragraph", Props{"id": "c"})

	if err := root.Append(a); err != nil {
		t.Fatal(err)
	}
	if err := root.Append(c); err != nil {
		t.Fatal(err)
	}
	if err := root.InsertAt(1, b); err != nil {
		t.Fatal(err)
	}
	equalIDs(t, "Content", root.Content(), []string{a, b, c})

	before := root.Content()
	if err := root.InsertAt(0, c); err != nil {
		t.Fatal(err)
	}
	removed, err := root.RemoveAt(0)
	if err != nil || removed != c {
		t.Fatalf("RemoveAt(0) = %q, %v", removed, err)
	}
	if !reflect.DeepEqual(root.Content(), before) {
		t.Errorf("insert then remove = %v, want %v", root.Content(), before)
	}

	if err := root.Remove(b); err != nil {
		t.Fatal(err)
	}
	equalIDs(t, "Content after Remove", root.Content(), []string{a, c})
	if got := root.IndexOf(c); got != 1 {
		t.Errorf("IndexOf(c) = %d, want 1", got)
	}
	if got, ok := d.Parent(a); !ok || got != "root" {
		t.Errorf("Parent(a) = %q, %v", got, ok)
	}
	if _, ok := d.Parent(b); ok {
		t.Error("removed child still has a parent")
	}
	mustCheck(t, d)
}

func TestContainerErrors(t *testing.T) {
	d := newTestDocument(t)
	root, _ := d.Container("root")
	a := mustCreate(t, d, "paragraph", nil)
	if err := root.Append(a); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"insert past end", func() error { return root.InsertAt(2, a) }, xerrors.ErrIndexOutOfRange},
		{"insert negative", func() error { return root.InsertAt(-1, a) }, xerrors.ErrIndexOutOfRange},
		{"insert dead node", func() error { return root.InsertAt(0, "ghost") }, xerrors.ErrNotFound},
		{"remove at len", func() error { _, err := root.RemoveAt(1); return err }, xerrors.ErrIndexOutOfRange},
		{"remove missing child", func() error { return root.Remove("ghost") }, xerrors.ErrNotFound},
		{"show dead node", func() error { return root.Show("ghost") }, xerrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			equalIDs(t, "Content", root.Content(), []string{a})
		})
	}

	var rangeErr *xerrors.RangeError
	err := root.InsertAt(5, a)
	if !errors.As(err, &rangeErr) || rangeErr.Index != 5 || rangeErr.Length != 1 {
		t.Errorf("InsertAt(5) error = %#v", err)
	}

	if _, err := d.Container(a + "-missing"); !errors.Is(err, xerrors.ErrNotFound) {
		t.Errorf("Container(missing) error = %v", err)
	}
	img := mustCreate(t, d, "image", Props{"src": "x"})
	if _, err := d.Container(img); !errors.Is(err, xerrors.ErrSchemaViolation) {
		t.Errorf("Container(image) error = %v, want ErrSchemaViolation", err)
	}
}

func TestShowIsIdempotent(t *testing.T) {
	d := newTestDocument(t)
	root, _ := d.Container("root")
	a := mustCreate(t, d, "paragraph", nil)

	for i := 0; i < 3; i++ {
		if err := root.Show(a); err != nil {
			t.Fatal(err)
		}
	}
	equalIDs(t, "Content", root.Content(), []string{a})
}

func TestDeleteListedNodeFails(t *testing.T) {
	d := newTestDocument(t)
	root, _ := d.Container("root")
	sec := mustCreate(t, d, "section", Props{"id": "sec"})
	if err := root.AppendChild(sec); err != nil {
		t.Fatal(err)
	}

	err := d.Delete(sec)
	if !errors.Is(err, xerrors.ErrReferencedByContainer) {
		t.Fatalf("Delete() error = %v, want ErrReferencedByContainer", err)
	}
	var refErr *xerrors.ReferencedError
	if !errors.As(err, &refErr) || !reflect.DeepEqual(refErr.Containers, []string{"root"}) {
		t.Errorf("ReferencedError = %#v", err)
	}
	if !d.Contains(sec) {
		t.Fatal("refused Delete() removed the node")
	}

	if err := root.Remove(sec); err != nil {
		t.Fatal(err)
	}
	if err := d.Delete(sec); err != nil {
		t.Errorf("Delete() after detach error = %v", err)
	}
	mustCheck(t, d)
}

func TestContainerChangeRecords(t *testing.T) {
	d := newTestDocument(t)
	root, _ := d.Container("root")
	a := mustCreate(t, d, "paragraph", nil)

	var ops []Operation
	d.Subscribe(func(batch []Operation) { ops = append(ops, batch...) })

	if err := root.Append(a); err != nil {
		t.Fatal(err)
	}
	if len(ops) != 1 {
		t.Fatalf("got %d change records, want 1", len(ops))
	}
	op := ops[0]
	if op.Type != OpSet || op.ID != "root" || op.Property != "childNodes" {
		t.Errorf("change record = %+v", op)
	}
	if old, _ := op.Original.([]string); len(old) != 0 {
		t.Errorf("Original = %v, want empty", op.Original)
	}
	if !reflect.DeepEqual(op.Value, []string{a}) {
		t.Errorf("Value = %v, want [%s]", op.Value, a)
	}
}

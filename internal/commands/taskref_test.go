package commands

import (
	"errors"
	"testing"

	"authdemo/internal/service"
)

func TestParseTaskRef_Number(t *testing.T) {
	ref, err := ParseTaskRef("5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Num != 5 || ref.ID != "" {
		t.Errorf("expected Num 5, got %+v", ref)
	}
}

func TestParseTaskRef_UUID(t *testing.T) {
	ref, err := ParseTaskRef("6F1C2A4E-1B2C-4D3E-8F90-A1B2C3D4E5F6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// IDs are normalized to the canonical lower-case form.
	if ref.ID != "6f1c2a4e-1b2c-4d3e-8f90-a1b2c3d4e5f6" || ref.Num != 0 {
		t.Errorf("unexpected ref %+v", ref)
	}
}

func TestParseTaskRef_Errors(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"0", "task number out of range: 0"},
		{"a1", "invalid task reference: a1"},
		{"-1", "invalid task reference: -1"},
		{"１", "invalid task reference: １"},
		{"not-a-uuid", "invalid task reference: not-a-uuid"},
	}
	for _, tt := range tests {
		_, err := ParseTaskRef(tt.arg)
		if err == nil {
			t.Errorf("%q: expected error", tt.arg)
			continue
		}
		if err.Error() != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.arg, tt.want, err.Error())
		}
	}
}

func TestParseTaskRef_Empty(t *testing.T) {
	if _, err := ParseTaskRef(""); !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
	if _, err := ParseTaskRefs(nil); !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("expected ErrTaskRefRequired, got %v", err)
	}
}

func TestParseTaskRefs_StopsAtFirstInvalid(t *testing.T) {
	_, err := ParseTaskRefs([]string{"1", "x", "2"})
	if err == nil || err.Error() != "invalid task reference: x" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestTaskRef_Resolve(t *testing.T) {
	tasks := []service.Task{
		{ID: "6f1c2a4e-1b2c-4d3e-8f90-a1b2c3d4e5f6", Title: "first"},
		{ID: "7a2d3b5f-2c3d-4e4f-9a01-b2c3d4e5f6a7", Title: "second"},
	}

	got, err := TaskRef{Num: 2}.Resolve(tasks)
	if err != nil || got.Title != "second" {
		t.Errorf("Num 2: got %+v, %v", got, err)
	}

	got, err = TaskRef{ID: tasks[0].ID}.Resolve(tasks)
	if err != nil || got.Title != "first" {
		t.Errorf("ID: got %+v, %v", got, err)
	}

	if _, err := (TaskRef{Num: 3}).Resolve(tasks); err == nil || err.Error() != "task number out of range: 3" {
		t.Errorf("Num 3: unexpected error %v", err)
	}
}

func TestResolveRefs_Dedup(t *testing.T) {
	tasks := []service.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	refs := []TaskRef{{Num: 3}, {Num: 1}, {Num: 3}, {ID: "a"}}

	got, err := resolveRefs(tasks, refs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "a" {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestTaskRef_String(t *testing.T) {
	if s := (TaskRef{Num: 4}).String(); s != "4" {
		t.Errorf("expected 4, got %q", s)
	}
	if s := (TaskRef{ID: "abc"}).String(); s != "abc" {
		t.Errorf("expected abc, got %q", s)
	}
}

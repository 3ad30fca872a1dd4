package commands

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/google/uuid"

	"authdemo/internal/service"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position in the full list, 0 if ID is set
	ID  string // task id, empty if Num is set
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Num)
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a single task reference.
//
// Parsing rules:
// 1. All digits → position as printed by `authdemo list` (1-based)
// 2. A UUID → task id
// 3. Otherwise → error: invalid task reference: <ref>
func ParseTaskRef(arg string) (TaskRef, error) {
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		if num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %d", num)
		}
		return TaskRef{Num: num}, nil
	}

	id, err := uuid.Parse(arg)
	if err != nil {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
	}
	return TaskRef{ID: id.String()}, nil
}

// ParseTaskRefs parses every argument as a task reference.
// Duplicates are kept; callers resolve them against one snapshot.
func ParseTaskRefs(args []string) ([]TaskRef, error) {
	if len(args) == 0 {
		return nil, ErrTaskRefRequired
	}
	refs := make([]TaskRef, 0, len(args))
	for _, a := range args {
		ref, err := ParseTaskRef(a)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Resolve finds the task ref points at in tasks.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.ID != "" {
		for _, t := range tasks {
			if t.ID == r.ID {
				return t, nil
			}
		}
		return service.Task{}, fmt.Errorf("task not found: %s", r.ID)
	}
	if r.Num > len(tasks) {
		return service.Task{}, fmt.Errorf("task number out of range: %d", r.Num)
	}
	return tasks[r.Num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

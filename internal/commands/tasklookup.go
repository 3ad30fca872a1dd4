package commands

import (
	"authdemo/internal/service"
)

// resolveRefs resolves refs against one snapshot of the list, so that
// positions do not shift while a multi-task command runs. Tasks that
// resolve more than once are returned once.
func resolveRefs(tasks []service.Task, refs []TaskRef) ([]service.Task, error) {
	seen := make(map[string]bool, len(refs))
	out := make([]service.Task, 0, len(refs))
	for _, ref := range refs {
		t, err := ref.Resolve(tasks)
		if err != nil {
			return nil, err
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out, nil
}

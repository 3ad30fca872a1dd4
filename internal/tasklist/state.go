package tasklist

import "authdemo/internal/service"

// Tasks returns a copy of the local list, newest first.
func (m *Model) Tasks() []service.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.tasks)
}

// Visible returns the tasks shown under the current filter.
func (m *Model) Visible() []service.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []service.Task
	for _, t := range m.tasks {
		if m.filter.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Total returns the number of local tasks.
func (m *Model) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// ActiveCount returns the number of tasks not completed.
func (m *Model) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}

// CompletedCount returns the number of completed tasks.
func (m *Model) CompletedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// Filter returns the display filter.
func (m *Model) Filter() Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter
}

// SetFilter changes the display filter.
func (m *Model) SetFilter(f Filter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter = f
}

// Error returns the banner text, empty when there is none.
func (m *Model) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// DismissError clears the banner.
func (m *Model) DismissError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = ""
}

// Loading reports whether a load is pending or in flight.
func (m *Model) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Adding reports whether an insert is in flight.
func (m *Model) Adding() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adding
}

// Draft returns the pending input text.
func (m *Model) Draft() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// SetDraft records the pending input text.
func (m *Model) SetDraft(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft = s
}

// CanEdit reports whether the viewer may add, toggle and delete tasks.
func (m *Model) CanEdit() bool {
	_, ok := m.session.CurrentUser()
	return ok
}

// CanShare reports whether the viewer may change task visibility.
func (m *Model) CanShare() bool {
	u, ok := m.session.CurrentUser()
	return ok && !u.IsAnonymous
}

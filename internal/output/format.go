// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"authdemo/internal/service"
)

const (
	// Separator is the separator line around section headers.
	Separator = "------------"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}[ (public)]\n" (4-wide right-aligned number,
// two spaces, completion box, title, visibility marker)
func FormatTask(w io.Writer, num int, task service.Task) {
	box := "[ ]"
	if task.Completed {
		box = "[x]"
	}
	title := normalizeTitle(task.Title)
	if task.IsPublic {
		title += " (public)"
	}
	fmt.Fprintf(w, "%4d  %s %s\n", num, box, title)
}

// FormatSummary formats the counters line below the task list.
func FormatSummary(w io.Writer, total, active, completed int) {
	fmt.Fprintf(w, "%d %s, %d active, %d completed\n", total, plural(total, "task", "tasks"), active, completed)
}

// FormatHeader formats a section header.
func FormatHeader(w io.Writer, title string) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintln(w, normalizeName(title))
	fmt.Fprintln(w, Separator)
}

// FormatUser formats the signed-in user for whoami.
func FormatUser(w io.Writer, u service.User) {
	fmt.Fprintf(w, "name:  %s\n", u.DisplayName())
	if u.Email != "" {
		fmt.Fprintf(w, "email: %s\n", u.Email)
	}
	fmt.Fprintf(w, "id:    %s\n", u.ID)
	if u.IsAnonymous {
		fmt.Fprintln(w, "anonymous session")
	}
}

// FormatOrganization formats the active organization with its members.
// A nil organization prints "no active organization".
func FormatOrganization(w io.Writer, org *service.Organization, role string, members []service.Member) {
	if org == nil {
		fmt.Fprintln(w, "no active organization")
		return
	}
	FormatHeader(w, org.Name)
	fmt.Fprintf(w, "slug:  %s\n", org.Slug)
	if role != "" {
		fmt.Fprintf(w, "role:  %s\n", role)
	}
	fmt.Fprintf(w, "%d %s\n", len(members), plural(len(members), "member", "members"))
	for _, m := range members {
		fmt.Fprintf(w, "    %-8s %s\n", m.Role, memberName(m))
	}
}

func memberName(m service.Member) string {
	if m.User == nil {
		return m.UserID
	}
	if n := strings.TrimSpace(m.User.Name); n != "" {
		return n
	}
	if m.User.Email != "" {
		return m.User.Email
	}
	return m.UserID
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// normalizeName returns "(untitled)" for empty or whitespace-only names.
func normalizeName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "(untitled)"
	}
	return name
}

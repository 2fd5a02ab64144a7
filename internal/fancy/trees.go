package fancy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/atlanticdynamic/mcpgate/internal/mcpconfig"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
)

// maxValueWidth bounds rendered env and header values.
const maxValueWidth = 48

// Tree returns a new tree with the common enumerator styling.
func Tree() *tree.Tree {
	t := tree.New()
	t.EnumeratorStyle(BranchStyle)
	t.Enumerator(tree.RoundedEnumerator)
	return t
}

// BranchNode is a section header with a dimmed annotation, e.g. a count.
func BranchNode(title, note string) *tree.Tree {
	return Tree().Root(
		lipgloss.JoinHorizontal(lipgloss.Top, HeaderStyle.Render(title), " ", InfoStyle.Render(note)),
	)
}

// ServersTree renders MCP server definitions under a root label. Env values
// are masked since they usually hold credentials.
func ServersTree(root string, servers []mcpconfig.Server) *tree.Tree {
	t := Tree().Root(RootStyle.Render(root))

	for _, srv := range servers {
		node := Tree().Root(ServerText(srv.Name))
		if srv.IsStdio() {
			node.Child(fmt.Sprintf("stdio %s", CommandText(commandLine(srv))))
			if len(srv.Env) > 0 {
				node.Child(keyBranch("env", srv.Env))
			}
		} else {
			node.Child(fmt.Sprintf("http %s", URLText(srv.URL)))
			if len(srv.Headers) > 0 {
				node.Child(keyBranch("headers", srv.Headers))
			}
		}
		t.Child(node)
	}
	return t
}

func commandLine(srv mcpconfig.Server) string {
	return TruncateString(strings.Join(append([]string{srv.Command}, srv.Args...), " "), 2*maxValueWidth)
}

func keyBranch(title string, values map[string]string) *tree.Tree {
	branch := BranchNode(title, fmt.Sprintf("(%d)", len(values)))

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		v := TruncateString(MaskValue(values[k]), maxValueWidth)
		branch.Child(fmt.Sprintf("%s=%s", KeyText(k), v))
	}
	return branch
}

// MaskValue hides a value while keeping unresolved placeholders readable.
func MaskValue(v string) string {
	switch {
	case v == "":
		return ""
	case strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}"):
		return v
	default:
		return "****"
	}
}

// TruncateString shortens s to at most maxLength runes, marking the cut
// with "...".
func TruncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}

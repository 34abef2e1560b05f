package proctree

import "strings"

const (
	argumentSeparatorConstant = " "
)

// Command is the program a node runs. In name mode Arguments is empty and Name
// is the token verbatim; in argument-vector mode Name is the first field.
type Command struct {
	Name      string
	Arguments []string
}

// Argv returns the full argument vector starting with the executable name.
func (command Command) Argv() []string {
	argv := make([]string, 0, len(command.Arguments)+1)
	argv = append(argv, command.Name)
	return append(argv, command.Arguments...)
}

// String renders the command the way it was written.
func (command Command) String() string {
	return strings.Join(command.Argv(), argumentSeparatorConstant)
}

// Node is one vertex of a process tree. A nil *Node is the empty tree.
type Node struct {
	Command Command
	Left    *Node
	Right   *Node
}

// IsLeaf reports whether the node has no children.
func (node *Node) IsLeaf() bool {
	return node != nil && node.Left == nil && node.Right == nil
}

// Walk visits the tree in pre-order. Returning false from visit prunes the
// children of the visited node.
func Walk(root *Node, visit func(node *Node, depth int) bool) {
	walk(root, 0, visit)
}

func walk(node *Node, depth int, visit func(node *Node, depth int) bool) {
	if node == nil {
		return
	}
	if !visit(node, depth) {
		return
	}
	walk(node.Left, depth+1, visit)
	walk(node.Right, depth+1, visit)
}

// Count returns the number of nodes in the tree.
func Count(root *Node) int {
	count := 0
	Walk(root, func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Depth returns the number of levels in the tree; the empty tree has depth 0.
func Depth(root *Node) int {
	levels := 0
	Walk(root, func(_ *Node, depth int) bool {
		levels = max(levels, depth+1)
		return true
	})
	return levels
}

// Render writes the tree back in canonical bracket notation. Leaves are
// rendered without a group, empty children as `@`.
func Render(root *Node) string {
	var builder strings.Builder
	render(&builder, root)
	return builder.String()
}

func render(builder *strings.Builder, node *Node) {
	if node == nil {
		builder.WriteByte(emptyTreeMarkerConstant)
		return
	}
	builder.WriteString(node.Command.String())
	if node.IsLeaf() {
		return
	}
	builder.WriteByte(groupOpenConstant)
	render(builder, node.Left)
	builder.WriteByte(groupSeparatorConstant)
	render(builder, node.Right)
	builder.WriteByte(groupCloseConstant)
}

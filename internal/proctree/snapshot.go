package proctree

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	outlineIndentConstant       = "  "
	outlineEmptyLabelConstant   = "@"
	outlineLineTemplateConstant = "%s%s%s\n"
	outlineLeftPrefixConstant   = "L: "
	outlineRightPrefixConstant  = "R: "
	snapshotEncodeErrorTemplate = "unable to encode tree snapshot: %w"
)

// Snapshot is a serializable description of a parsed tree.
type Snapshot struct {
	Expression string        `yaml:"expression"`
	NodeCount  int           `yaml:"node_count"`
	Depth      int           `yaml:"depth"`
	Root       *NodeSnapshot `yaml:"root"`
}

// NodeSnapshot mirrors a Node for serialization.
type NodeSnapshot struct {
	Command   string        `yaml:"command"`
	Arguments []string      `yaml:"arguments,omitempty"`
	Left      *NodeSnapshot `yaml:"left,omitempty"`
	Right     *NodeSnapshot `yaml:"right,omitempty"`
}

// NewSnapshot captures the structure of root.
func NewSnapshot(root *Node) Snapshot {
	return Snapshot{
		Expression: Render(root),
		NodeCount:  Count(root),
		Depth:      Depth(root),
		Root:       snapshotNode(root),
	}
}

func snapshotNode(node *Node) *NodeSnapshot {
	if node == nil {
		return nil
	}
	return &NodeSnapshot{
		Command:   node.Command.Name,
		Arguments: node.Command.Arguments,
		Left:      snapshotNode(node.Left),
		Right:     snapshotNode(node.Right),
	}
}

// MarshalDocument encodes the snapshot as a YAML document.
func (snapshot Snapshot) MarshalDocument() ([]byte, error) {
	encoded, encodeError := yaml.Marshal(snapshot)
	if encodeError != nil {
		return nil, fmt.Errorf(snapshotEncodeErrorTemplate, encodeError)
	}
	return encoded, nil
}

// Outline renders the tree as an indented listing, one node per line.
func Outline(root *Node) string {
	var builder strings.Builder
	outline(&builder, root, 0, "")
	return builder.String()
}

func outline(builder *strings.Builder, node *Node, depth int, prefix string) {
	indent := strings.Repeat(outlineIndentConstant, depth)
	if node == nil {
		fmt.Fprintf(builder, outlineLineTemplateConstant, indent, prefix, outlineEmptyLabelConstant)
		return
	}
	fmt.Fprintf(builder, outlineLineTemplateConstant, indent, prefix, node.Command.String())
	if node.IsLeaf() {
		return
	}
	outline(builder, node.Left, depth+1, outlineLeftPrefixConstant)
	outline(builder, node.Right, depth+1, outlineRightPrefixConstant)
}

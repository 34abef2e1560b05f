// Package proctree parses bracket-notation process tree expressions.
//
// An expression such as `ls[wc,@]` describes a binary tree of commands: a node
// names a command and may be followed by a `[left,right]` group, while `@`
// marks an empty subtree. The parser is a recursive descent over a value-typed
// Cursor; the resulting *Node tree is owned exclusively by its caller and a nil
// *Node is the empty tree.
package proctree

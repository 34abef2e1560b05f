// Package treeexec runs parsed process trees.
//
// Two strategies exist. Direct execution runs every node as a child process
// that inherits the output streams, depth first and strictly sequentially.
// Capture execution hosts each branch in its own helper process, funnels the
// branch output through a pipe, and relays it with a label naming the branch;
// the left branch is always relayed before the right one and both before the
// node's own output.
package treeexec

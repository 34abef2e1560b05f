// Package execshell builds the operating system processes a process tree runs.
//
// NodeCommand turns a parsed node command into an *exec.Cmd resolved against
// PATH, SelfLauncher re-executes the running binary to host a subtree in its
// own process, and NodeEventObserver receives lifecycle notifications so the
// executor stays free of logging concerns.
package execshell

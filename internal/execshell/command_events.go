package execshell

import "github.com/temirov/ptree/internal/proctree"

// NodeEventObserver receives lifecycle notifications for node processes.
type NodeEventObserver interface {
	// NodeStarted notifies observers that the node process is running.
	NodeStarted(command proctree.Command, processIdentifier int)
	// NodeCompleted notifies observers that the node process exited with the supplied code.
	NodeCompleted(command proctree.Command, exitCode int)
	// NodeStartFailed reports that the node executable could not be started.
	NodeStartFailed(command proctree.Command, failure error)
}

// NoopNodeEventObserver discards all node events.
type NoopNodeEventObserver struct{}

// NodeStarted implements NodeEventObserver for the no-op observer.
func (NoopNodeEventObserver) NodeStarted(proctree.Command, int) {}

// NodeCompleted implements NodeEventObserver for the no-op observer.
func (NoopNodeEventObserver) NodeCompleted(proctree.Command, int) {}

// NodeStartFailed implements NodeEventObserver for the no-op observer.
func (NoopNodeEventObserver) NodeStartFailed(proctree.Command, error) {}

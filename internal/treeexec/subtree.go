package treeexec

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/temirov/ptree/internal/execshell"
	"github.com/temirov/ptree/internal/proctree"
)

// subtreeHandle owns the read end of a branch pipe and the process writing into it.
// A handle for an empty branch has neither and drains to nothing.
type subtreeHandle struct {
	label   string
	subtree *proctree.Node
	reader  *os.File
	process *exec.Cmd
}

// spawnSubtree starts a helper process for subtree with its combined output
// redirected into a fresh pipe. The parent's copy of the write end is closed
// before returning so the reader observes end of stream when the helper exits.
func spawnSubtree(executionContext context.Context, launcher execshell.SubtreeLauncher, diagnostics *os.File, input io.Reader, subtree *proctree.Node, label string) (*subtreeHandle, error) {
	handle := &subtreeHandle{label: label, subtree: subtree}
	if subtree == nil {
		return handle, nil
	}

	reader, writer, pipeError := os.Pipe()
	if pipeError != nil {
		return nil, &ResourceError{Operation: operationCreatePipeConstant, Err: pipeError}
	}

	process, prepareError := launcher.Command(executionContext, subtree)
	if prepareError != nil {
		closeFiles(reader, writer)
		return nil, &ResourceError{Operation: operationPrepareSubtreeConstant, Err: prepareError}
	}

	process.Stdin = input
	process.Stdout = writer
	process.Stderr = writer
	if diagnostics != nil {
		process.ExtraFiles = []*os.File{diagnostics}
	}

	if startError := process.Start(); startError != nil {
		closeFiles(reader, writer)
		return nil, &ResourceError{Operation: operationSpawnSubtreeConstant, Err: startError}
	}
	closeFiles(writer)

	handle.reader = reader
	handle.process = process
	return handle, nil
}

// drain relays the branch output until end of stream and closes the read end.
func (handle *subtreeHandle) drain(printer *labelPrinter, bufferSize int) error {
	if handle.reader == nil {
		return nil
	}
	defer handle.closeReader()
	return relay(handle.reader, printer, handle.label, bufferSize)
}

// wait reaps the helper process. The returned error describes an abnormal exit.
func (handle *subtreeHandle) wait() error {
	handle.closeReader()
	if handle.process == nil {
		return nil
	}
	process := handle.process
	handle.process = nil
	return process.Wait()
}

// abandon releases the handle without relaying anything. Closing the read end
// first lets a still-writing helper fail on its next write instead of blocking.
func (handle *subtreeHandle) abandon() {
	if handle == nil {
		return
	}
	_ = handle.wait()
}

func (handle *subtreeHandle) closeReader() {
	if handle.reader == nil {
		return
	}
	closeFiles(handle.reader)
	handle.reader = nil
}

// relay copies reader to the printer chunk by chunk, labeling every chunk as
// soon as it is read. A short read is printed as is; only a zero-byte read at
// end of stream stops the loop.
func relay(reader io.Reader, printer *labelPrinter, label string, bufferSize int) error {
	buffer := make([]byte, bufferSize)
	for {
		readCount, readError := reader.Read(buffer)
		if readCount > 0 {
			if printError := printer.Print(label, buffer[:readCount]); printError != nil {
				return printError
			}
		}
		switch {
		case readError == nil:
			continue
		case errors.Is(readError, io.EOF):
			return nil
		default:
			return &ResourceError{Operation: operationReadPipeConstant, Err: readError}
		}
	}
}

func closeFiles(files ...*os.File) {
	for _, file := range files {
		if file != nil {
			_ = file.Close()
		}
	}
}

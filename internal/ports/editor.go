package ports

import "os/exec"

// EditorOpener builds the command that opens a file in the user's editor
type EditorOpener interface {
	Command(path string) (*exec.Cmd, error)
}

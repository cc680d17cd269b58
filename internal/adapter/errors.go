package adapter

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start when a start attempt finds the
// server already starting or running. The losing caller sees this sentinel
// and the winning start is unaffected.
var ErrAlreadyRunning = errors.New("server is already running")

// Boundary errors for capabilities that live in dedicated services.
var (
	ErrFileService   = errors.New("file operations are not handled by the adapter, use the file service")
	ErrBackupService = errors.New("backup operations are not handled by the adapter, use the backup service")
	ErrModService    = errors.New("mod operations are not handled by the adapter, use the mod service")
)

// SpawnError wraps a failure to launch the server process. The adapter
// stays stopped when this is returned.
type SpawnError struct {
	ServerID string
	Err      error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn server %s: %v", e.ServerID, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// serviceBoundary provides the rejected file/backup/mod operations shared by
// every adapter implementation.
type serviceBoundary struct{}

func (serviceBoundary) ListFiles(string) ([]string, error)      { return nil, ErrFileService }
func (serviceBoundary) ReadFile(string) ([]byte, error)         { return nil, ErrFileService }
func (serviceBoundary) WriteFile(string, []byte) error          { return ErrFileService }
func (serviceBoundary) CreateBackup(string) (string, error)     { return "", ErrBackupService }
func (serviceBoundary) RestoreBackup(string) error              { return ErrBackupService }
func (serviceBoundary) InstallMod(string) error                 { return ErrModService }
func (serviceBoundary) RemoveMod(string) error                  { return ErrModService }

package clipboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/afero"
)

const (
	surfaceFilePattern = "codecopy-surface-*"
	surfaceFileMode    = 0o600
)

// Surface is an off-screen staging area holding the text a legacy command copies from.
type Surface interface {
	SetContent(text string) error
	// Select focuses the surface and returns a reader over its entire content.
	Select() (io.Reader, error)
	Release() error
}

// SurfaceProvider creates surfaces for individual copy calls.
type SurfaceProvider interface {
	Acquire() (Surface, error)
}

// FileSurfaceProvider stages text in temporary files on an afero filesystem.
type FileSurfaceProvider struct {
	fileSystem afero.Fs
	directory  string
}

// NewFileSurfaceProvider creates a provider writing into directory of fileSystem.
// A nil fileSystem uses the OS filesystem; an empty directory uses the OS temporary directory.
func NewFileSurfaceProvider(fileSystem afero.Fs, directory string) *FileSurfaceProvider {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if directory == "" {
		directory = os.TempDir()
	}
	return &FileSurfaceProvider{fileSystem: fileSystem, directory: directory}
}

// Acquire creates a new empty surface file.
func (provider *FileSurfaceProvider) Acquire() (Surface, error) {
	if err := provider.fileSystem.MkdirAll(provider.directory, 0o700); err != nil {
		return nil, fmt.Errorf("prepare surface directory %s: %w", provider.directory, err)
	}
	file, err := afero.TempFile(provider.fileSystem, provider.directory, surfaceFilePattern)
	if err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}
	if chmodErr := provider.fileSystem.Chmod(file.Name(), surfaceFileMode); chmodErr != nil {
		_ = file.Close()
		_ = provider.fileSystem.Remove(file.Name())
		return nil, fmt.Errorf("restrict surface permissions: %w", chmodErr)
	}
	return &fileSurface{fileSystem: provider.fileSystem, file: file}, nil
}

type fileSurface struct {
	fileSystem afero.Fs
	file       afero.File
	mutex      sync.Mutex
	released   bool
}

func (surface *fileSurface) SetContent(text string) error {
	surface.mutex.Lock()
	defer surface.mutex.Unlock()
	if surface.released {
		return errors.New("surface already released")
	}
	if err := surface.file.Truncate(0); err != nil {
		return fmt.Errorf("clear surface: %w", err)
	}
	if _, err := surface.file.WriteAt([]byte(text), 0); err != nil {
		return fmt.Errorf("write surface: %w", err)
	}
	return nil
}

func (surface *fileSurface) Select() (io.Reader, error) {
	surface.mutex.Lock()
	defer surface.mutex.Unlock()
	if surface.released {
		return nil, errors.New("surface already released")
	}
	if _, err := surface.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("focus surface: %w", err)
	}
	return surface.file, nil
}

func (surface *fileSurface) Release() error {
	surface.mutex.Lock()
	defer surface.mutex.Unlock()
	if surface.released {
		return nil
	}
	surface.released = true
	closeErr := surface.file.Close()
	removeErr := surface.fileSystem.Remove(surface.file.Name())
	return errors.Join(closeErr, removeErr)
}

package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Paths holds all resolved filesystem paths for the .kwic/ state directory.
type Paths struct {
	Root string // .kwic/

	LogDir    string // .kwic/log/
	DaemonLog string // .kwic/log/daemon.log

	RunDir   string // .kwic/run/
	PIDFile  string // .kwic/run/daemon.pid
	PortFile string // .kwic/run/http.port
}

// NewPaths constructs all resolved paths from a state root.
func NewPaths(root string) *Paths {
	return &Paths{
		Root: root,

		LogDir:    filepath.Join(root, "log"),
		DaemonLog: filepath.Join(root, "log", "daemon.log"),

		RunDir:   filepath.Join(root, "run"),
		PIDFile:  filepath.Join(root, "run", "daemon.pid"),
		PortFile: filepath.Join(root, "run", "http.port"),
	}
}

// EnsureDirs creates all subdirectories. Idempotent.
func (p *Paths) EnsureDirs() error {
	for _, d := range []string{p.Root, p.LogDir, p.RunDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}
	return nil
}

// WritePID records the current process ID.
func (p *Paths) WritePID() error {
	return os.WriteFile(p.PIDFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// ReadPort returns the HTTP port a running daemon recorded.
func (p *Paths) ReadPort() (int, error) {
	data, err := os.ReadFile(p.PortFile)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("port file %s: %w", p.PortFile, err)
	}
	return port, nil
}

// CleanEphemeral removes ephemeral runtime files (PID file and port file).
// Called on clean daemon shutdown.
func (p *Paths) CleanEphemeral() {
	os.Remove(p.PIDFile)
	os.Remove(p.PortFile)
}

//go:build windows

package cli

import (
	"os"
	"strconv"
)

// PIDFile on windows records the PID without locking.
type PIDFile struct {
	file *os.File
}

func NewPIDFile(path string) (*PIDFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	return &PIDFile{file: file}, nil
}

func (p *PIDFile) Acquire() error {
	_, err := p.file.WriteString(strconv.Itoa(os.Getpid()))
	return err
}

func (p *PIDFile) Release() error {
	if err := p.file.Close(); err != nil {
		return err
	}
	return os.Remove(p.file.Name())
}

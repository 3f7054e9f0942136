// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package profiler writes pprof profiles of the running daemon.
package profiler

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sync"
)

const (
	CPUProfileFile  = "cpu.profile"
	MemProfileFile  = "mem.profile"
	LockProfileFile = "lock.profile"
	StacktraceFile  = "stacktrace.txt"

	dirPerms = 0o750

	// initial size of the goroutine dump buffer
	stacktraceSize = 1 << 16
)

var (
	_ Profiler = (*profiler)(nil)

	errCPUProfilerRunning    = errors.New("cpu profiler already running")
	errCPUProfilerNotRunning = errors.New("cpu profiler not running")
	errNoMutexProfile        = errors.New("mutex profile not found")
)

// Profiler writes profiles into a single directory. Each profile overwrites
// the previous one of the same kind.
type Profiler interface {
	StartCPUProfiler() error
	StopCPUProfiler() error
	MemoryProfile() error
	LockProfile() error
	// Stacktrace dumps the stack of every goroutine.
	Stacktrace() error
}

type profiler struct {
	dir string

	lock sync.Mutex
	cpu  *os.File
}

func New(dir string) Profiler {
	return &profiler{dir: dir}
}

func (p *profiler) StartCPUProfiler() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.cpu != nil {
		return errCPUProfilerRunning
	}
	file, err := p.create(CPUProfileFile)
	if err != nil {
		return err
	}
	// Fails if another profiler in the process holds the CPU profile.
	if err := pprof.StartCPUProfile(file); err != nil {
		_ = file.Close()
		return err
	}
	p.cpu = file
	return nil
}

func (p *profiler) StopCPUProfiler() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.cpu == nil {
		return errCPUProfilerNotRunning
	}
	pprof.StopCPUProfile()
	err := p.cpu.Close()
	p.cpu = nil
	return err
}

func (p *profiler) MemoryProfile() error {
	return p.write(MemProfileFile, func(w io.Writer) error {
		runtime.GC()
		return pprof.WriteHeapProfile(w)
	})
}

func (p *profiler) LockProfile() error {
	profile := pprof.Lookup("mutex")
	if profile == nil {
		return errNoMutexProfile
	}
	return p.write(LockProfileFile, func(w io.Writer) error {
		return profile.WriteTo(w, 0)
	})
}

func (p *profiler) Stacktrace() error {
	return p.write(StacktraceFile, func(w io.Writer) error {
		_, err := w.Write(stacktrace())
		return err
	})
}

func (p *profiler) write(name string, f func(io.Writer) error) error {
	file, err := p.create(name)
	if err != nil {
		return err
	}
	if err := f(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func (p *profiler) create(name string) (*os.File, error) {
	if err := os.MkdirAll(p.dir, dirPerms); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(p.dir, name))
}

// stacktrace grows the buffer until every goroutine fits.
func stacktrace() []byte {
	buf := make([]byte, stacktraceSize)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

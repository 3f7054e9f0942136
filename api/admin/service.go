// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package admin

import (
	"net/http"
	"sync"

	"github.com/gorilla/rpc/v2"

	"github.com/luxfi/log"
	"github.com/luxfi/utils/json"

	"github.com/luxfi/suretyvm/utils/profiler"
)

// Name of the service
const Name = "admin"

type Config struct {
	Log        log.Logger
	ProfileDir string
	// DaemonConfig is reported back by GetConfig
	DaemonConfig interface{}
}

type EmptyReply struct{}

// Admin is the API service for daemon management
type Admin struct {
	Config
	lock     sync.RWMutex
	profiler profiler.Profiler
}

// NewService returns a new admin API service.
func NewService(config Config) (http.Handler, error) {
	server := rpc.NewServer()
	codec := json.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server, server.RegisterService(
		&Admin{
			Config:   config,
			profiler: profiler.New(config.ProfileDir),
		},
		Name,
	)
}

// StartCPUProfiler starts a cpu profile writing to the specified file
func (a *Admin) StartCPUProfiler(_ *http.Request, _ *struct{}, _ *EmptyReply) error {
	a.Log.Debug("API called",
		log.String("service", Name),
		log.String("method", "startCPUProfiler"),
	)

	a.lock.Lock()
	defer a.lock.Unlock()

	return a.profiler.StartCPUProfiler()
}

// StopCPUProfiler stops the cpu profile
func (a *Admin) StopCPUProfiler(_ *http.Request, _ *struct{}, _ *EmptyReply) error {
	a.Log.Debug("API called",
		log.String("service", Name),
		log.String("method", "stopCPUProfiler"),
	)

	a.lock.Lock()
	defer a.lock.Unlock()

	return a.profiler.StopCPUProfiler()
}

// MemoryProfile runs a memory profile writing to the specified file
func (a *Admin) MemoryProfile(_ *http.Request, _ *struct{}, _ *EmptyReply) error {
	a.Log.Debug("API called",
		log.String("service", Name),
		log.String("method", "memoryProfile"),
	)

	a.lock.Lock()
	defer a.lock.Unlock()

	return a.profiler.MemoryProfile()
}

// LockProfile runs a mutex profile writing to the specified file
func (a *Admin) LockProfile(_ *http.Request, _ *struct{}, _ *EmptyReply) error {
	a.Log.Debug("API called",
		log.String("service", Name),
		log.String("method", "lockProfile"),
	)

	a.lock.Lock()
	defer a.lock.Unlock()

	return a.profiler.LockProfile()
}

// Stacktrace writes the stacktrace of every goroutine into the profile
// directory
func (a *Admin) Stacktrace(_ *http.Request, _ *struct{}, _ *EmptyReply) error {
	a.Log.Debug("API called",
		log.String("service", Name),
		log.String("method", "stacktrace"),
	)

	a.lock.Lock()
	defer a.lock.Unlock()

	return a.profiler.Stacktrace()
}

// GetConfig returns the config that the daemon was started with.
func (a *Admin) GetConfig(_ *http.Request, _ *struct{}, reply *interface{}) error {
	a.Log.Debug("API called",
		log.String("service", Name),
		log.String("method", "getConfig"),
	)
	*reply = a.DaemonConfig
	return nil
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vms defines what the daemon expects from a hosted VM.
package vms

import (
	"context"
	"net/http"
)

// HandlerProvider is implemented by VMs serving HTTP endpoints. Keys of the
// returned map are paths relative to the VM's route.
type HandlerProvider interface {
	CreateHandlers(context.Context) (map[string]http.Handler, error)
}

// HealthChecker is implemented by VMs reporting their health.
type HealthChecker interface {
	HealthCheck(context.Context) (interface{}, error)
}

// DelegateHandlers returns the handlers of [vm], or none if it does not
// serve HTTP.
func DelegateHandlers(ctx context.Context, vm interface{}) (map[string]http.Handler, error) {
	if handlerCreator, ok := vm.(HandlerProvider); ok {
		return handlerCreator.CreateHandlers(ctx)
	}
	return nil, nil
}

// DelegateHealth returns the health of [vm], or nil if it does not report
// one.
func DelegateHealth(ctx context.Context, vm interface{}) (interface{}, error) {
	if checker, ok := vm.(HealthChecker); ok {
		return checker.HealthCheck(ctx)
	}
	return nil, nil
}

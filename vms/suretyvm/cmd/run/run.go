// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package run

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/suretyvm/api/admin"
	"github.com/luxfi/suretyvm/api/health"
	"github.com/luxfi/suretyvm/api/server"
	"github.com/luxfi/suretyvm/utils/profiler"
	"github.com/luxfi/suretyvm/vms"
	"github.com/luxfi/suretyvm/vms/suretyvm"
	"github.com/luxfi/suretyvm/vms/suretyvm/relay"
)

const (
	vmNamespace     = "surety"
	apiNamespace    = "api"
	healthNamespace = "health"

	metricsRoute = "metrics"
	healthRoute  = "health"
)

// Run serves the Surety VM until [ctx] is cancelled.
func Run(ctx context.Context, logger log.Logger, config *Config) error {
	listener, err := net.Listen("tcp", config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Address(), err)
	}
	return serve(ctx, logger, config, listener)
}

func serve(ctx context.Context, logger log.Logger, config *Config, listener net.Listener) error {
	vmConfig, err := config.VMConfig()
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("invalid VM config: %w", err)
	}

	registry := prometheus.NewRegistry()
	err = errors.Join(
		registry.Register(collectors.NewGoCollector()),
		registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})),
	)
	if err != nil {
		_ = listener.Close()
		return err
	}

	db, err := openDB(config.DBDir)
	if err != nil {
		_ = listener.Close()
		return err
	}

	vmIntf, err := suretyvm.NewFactory(vmConfig).New(logger)
	if err != nil {
		_ = listener.Close()
		_ = db.Close()
		return err
	}
	vm := vmIntf.(*suretyvm.VM)
	if err := vm.Initialize(ctx, db, metric.NewPrometheusMetrics(vmNamespace, registry)); err != nil {
		_ = listener.Close()
		_ = db.Close()
		return err
	}

	var r *relay.Relay
	if config.RelayOracles > 0 {
		r, err = newRelay(logger, config, vm)
		if err != nil {
			_ = listener.Close()
			return errors.Join(err, vm.Shutdown(ctx))
		}
	}

	srv, err := newServer(ctx, logger, config, listener, registry, vm)
	if err != nil {
		_ = listener.Close()
		return errors.Join(err, vm.Shutdown(ctx))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Dispatch(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if r != nil {
		g.Go(func() error {
			return r.Run(gctx)
		})
	}
	if config.ContinuousProfiler.Enabled {
		profilerConfig := config.ContinuousProfiler
		if profilerConfig.Dir == "" {
			profilerConfig.Dir = config.ProfileDir
		}
		continuous := profiler.NewContinuous(logger, profilerConfig)
		g.Go(func() error {
			return continuous.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down suretyd")
		return srv.Shutdown()
	})

	err = g.Wait()
	return errors.Join(err, vm.Shutdown(context.Background()))
}

func openDB(dir string) (database.Database, error) {
	if dir == "" {
		return memdb.New(), nil
	}
	db, err := badgerdb.New(dir, nil, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", dir, err)
	}
	return db, nil
}

func newServer(
	ctx context.Context,
	logger log.Logger,
	config *Config,
	listener net.Listener,
	registry *prometheus.Registry,
	vm *suretyvm.VM,
) (server.Server, error) {
	srv := server.New(
		logger,
		listener,
		config.AllowedOrigins,
		config.ShutdownTimeout,
		suretyvm.Name,
		metric.NewPrometheusMetrics(apiNamespace, registry),
		config.HTTP,
		config.AllowedHosts,
	)

	handlers, err := vms.DelegateHandlers(ctx, vm)
	if err != nil {
		return nil, err
	}
	for endpoint, handler := range handlers {
		if err := srv.AddRoute(handler, suretyvm.Name, endpoint); err != nil {
			return nil, err
		}
	}
	if len(config.HTTPAliases) > 0 {
		if err := srv.AddAliases(suretyvm.Name, config.HTTPAliases...); err != nil {
			return nil, err
		}
	}

	checks := health.New(logger, metric.NewPrometheusMetrics(healthNamespace, registry))
	err = checks.RegisterCheck(suretyvm.Name, health.ApplicationTag, func(ctx context.Context) (interface{}, error) {
		return vms.DelegateHealth(ctx, vm)
	})
	if err != nil {
		return nil, err
	}

	routes := map[string]http.Handler{
		healthRoute:  checks,
		metricsRoute: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	if config.AdminAPIEnabled {
		routes[admin.Name], err = admin.NewService(admin.Config{
			Log:          logger,
			ProfileDir:   config.ProfileDir,
			DaemonConfig: config,
		})
		if err != nil {
			return nil, err
		}
	}
	for base, handler := range routes {
		if err := srv.AddRoute(handler, base, ""); err != nil {
			return nil, err
		}
	}
	return srv, nil
}

func newRelay(logger log.Logger, config *Config, vm *suretyvm.VM) (*relay.Relay, error) {
	contract, err := config.RelayCaller(vm.Config)
	if err != nil {
		return nil, err
	}
	status, fixed, err := config.RelayReport()
	if err != nil {
		return nil, err
	}
	source := relay.RandomStatus(config.RelaySeed)
	if fixed {
		source = relay.FixedStatus(status)
	}

	r := relay.New(
		logger,
		vm,
		relay.Config{
			Contract: contract,
			Oracles:  config.RelayOracles,
			Fee:      vm.Config.OracleRegistrationFee,
			Seed:     config.RelaySeed,
		},
		source,
	)
	return r, r.Register()
}

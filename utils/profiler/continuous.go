// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package profiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/log"
)

const (
	windowPrefix = "window-"
	windowLayout = "20060102T150405.000000000Z"
)

var errNonPositiveFreq = errors.New("profiling frequency must be positive")

type Config struct {
	Dir     string        `json:"dir" toml:"dir"`
	Enabled bool          `json:"enabled" toml:"enabled"`
	Freq    time.Duration `json:"freq" toml:"freq"`
	// MaxNumFiles is the number of windows kept on disk
	MaxNumFiles int `json:"maxNumFiles" toml:"max-num-files"`
}

// Continuous profiles the daemon in consecutive windows of [Config.Freq].
// Every window is written to its own timestamped directory under
// [Config.Dir] and only the newest [Config.MaxNumFiles] windows are kept.
type Continuous struct {
	log    log.Logger
	config Config
	now    func() time.Time
}

func NewContinuous(logger log.Logger, config Config) *Continuous {
	return &Continuous{
		log:    logger,
		config: config,
		now:    time.Now,
	}
}

// Run profiles until [ctx] is done. The window open when [ctx] is done is
// still written.
func (c *Continuous) Run(ctx context.Context) error {
	if c.config.Freq <= 0 {
		return errNonPositiveFreq
	}
	ticker := time.NewTicker(c.config.Freq)
	defer ticker.Stop()

	for {
		dir := filepath.Join(c.config.Dir, windowPrefix+c.now().UTC().Format(windowLayout))
		window := &profiler{dir: dir}

		// The CPU profile is process wide. If the admin API holds it the
		// window is written without one.
		cpu := true
		if err := window.StartCPUProfiler(); err != nil {
			c.log.Warn("profiling window without cpu profile",
				log.String("dir", dir),
				log.Err(err),
			)
			cpu = false
		}

		done := false
		select {
		case <-ctx.Done():
			done = true
		case <-ticker.C:
		}

		if err := capture(window, cpu); err != nil {
			return err
		}
		if err := c.prune(); err != nil {
			return err
		}
		c.log.Debug("wrote profiling window",
			log.String("dir", dir),
		)
		if done {
			return nil
		}
	}
}

func capture(window *profiler, cpu bool) error {
	g := errgroup.Group{}
	if cpu {
		g.Go(window.StopCPUProfiler)
	}
	g.Go(window.MemoryProfile)
	g.Go(window.LockProfile)
	return g.Wait()
}

// prune removes the oldest windows beyond the retention.
func (c *Continuous) prune() error {
	windows, err := c.windows()
	if err != nil {
		return err
	}
	for len(windows) > c.config.MaxNumFiles {
		if err := os.RemoveAll(filepath.Join(c.config.Dir, windows[0])); err != nil {
			return err
		}
		windows = windows[1:]
	}
	return nil
}

// windows returns the window directories, oldest first.
func (c *Continuous) windows() ([]string, error) {
	entries, err := os.ReadDir(c.config.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), windowPrefix) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

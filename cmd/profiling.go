package cmd

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/spiffcs/broombot/internal/log"
)

// Profiler manages CPU, memory, and trace profiling of a command.
type Profiler struct {
	cpuProfile string
	memProfile string
	tracePath  string

	cpuFile   *os.File
	traceFile *os.File
}

// NewProfiler creates a profiler from the command options. Empty paths
// disable the corresponding profile.
func NewProfiler(opts *Options) *Profiler {
	return &Profiler{
		cpuProfile: opts.CPUProfile,
		memProfile: opts.MemProfile,
		tracePath:  opts.Trace,
	}
}

// Start begins CPU profiling and execution tracing if configured.
func (p *Profiler) Start() error {
	if p.cpuProfile != "" {
		f, err := os.Create(p.cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		p.cpuFile = f
	}

	if p.tracePath != "" {
		f, err := os.Create(p.tracePath)
		if err != nil {
			p.Stop()
			return fmt.Errorf("could not create trace: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			p.Stop()
			return fmt.Errorf("could not start trace: %w", err)
		}
		p.traceFile = f
	}

	return nil
}

// Stop ends all profiling and writes the memory profile if configured.
// Failures are logged; profiling never fails a pass.
func (p *Profiler) Stop() {
	var errs []error

	if p.traceFile != nil {
		trace.Stop()
		errs = append(errs, p.traceFile.Close())
		p.traceFile = nil
	}
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		errs = append(errs, p.cpuFile.Close())
		p.cpuFile = nil
	}
	if p.memProfile != "" {
		errs = append(errs, writeHeapProfile(p.memProfile))
	}

	if err := errors.Join(errs...); err != nil {
		log.Warn("profiling failed", "error", err)
	}
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	runtime.GC() // up-to-date statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return f.Close()
}

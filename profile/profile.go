package profile

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Profiler controls the lifecycle of one profiling session.
//
// Call [Profiler.Start] before rendering and [Profiler.Stop] after it.
//
// Create instances with [Config.NewProfiler].
type Profiler struct {
	cpuFile   *os.File
	traceFile *os.File
	Config
}

// Start sets the memory profile rate and begins CPU profiling and execution
// tracing when enabled. On failure anything already started is stopped.
func (p *Profiler) Start() error {
	if p.MemProfileRate > 0 {
		runtime.MemProfileRate = p.MemProfileRate
	}

	if p.CPUProfile != "" {
		f, err := os.Create(p.CPUProfile) //nolint:gosec // Profile path from CLI flag is expected.
		if err != nil {
			return fmt.Errorf("creating CPU profile: %w", err)
		}

		err = pprof.StartCPUProfile(f)
		if err != nil {
			return errors.Join(fmt.Errorf("starting CPU profile: %w", err), f.Close())
		}

		p.cpuFile = f
	}

	if p.Trace != "" {
		f, err := os.Create(p.Trace) //nolint:gosec // Trace path from CLI flag is expected.
		if err != nil {
			return errors.Join(fmt.Errorf("creating trace: %w", err), p.stopCPU())
		}

		err = trace.Start(f)
		if err != nil {
			return errors.Join(fmt.Errorf("starting trace: %w", err), f.Close(), p.stopCPU())
		}

		p.traceFile = f
	}

	return nil
}

// Stop ends CPU profiling and tracing and writes the heap profile. It is
// safe to call when nothing was started.
func (p *Profiler) Stop() error {
	var errs []error

	if p.traceFile != nil {
		trace.Stop()

		err := p.traceFile.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("closing trace: %w", err))
		}

		p.traceFile = nil
	}

	errs = append(errs, p.stopCPU())

	if p.HeapProfile != "" {
		errs = append(errs, writeHeap(p.HeapProfile))
	}

	return errors.Join(errs...)
}

func (p *Profiler) stopCPU() error {
	if p.cpuFile == nil {
		return nil
	}

	pprof.StopCPUProfile()

	err := p.cpuFile.Close()
	p.cpuFile = nil

	if err != nil {
		return fmt.Errorf("closing CPU profile: %w", err)
	}

	return nil
}

// writeHeap writes a heap profile after a GC so it reflects live memory.
func writeHeap(path string) error {
	f, err := os.Create(path) //nolint:gosec // Profile path from CLI flag is expected.
	if err != nil {
		return fmt.Errorf("creating heap profile: %w", err)
	}

	runtime.GC()

	err = pprof.WriteHeapProfile(f)
	if err != nil {
		return errors.Join(fmt.Errorf("writing heap profile: %w", err), f.Close())
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("closing heap profile: %w", err)
	}

	return nil
}

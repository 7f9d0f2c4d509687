package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/felixge/fgprof"
)

// profileFlags are the optional profiling outputs of a run.
type profileFlags struct {
	cpu   string
	mem   string
	trace string
	fg    string
}

func (p *profileFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&p.cpu, "cpuprofile", "", "write CPU profile to file")
	fs.StringVar(&p.mem, "memprofile", "", "write heap profile to file on exit")
	fs.StringVar(&p.trace, "trace", "", "write execution trace to file")
	fs.StringVar(&p.fg, "fgprofile", "", "write fgprof (wall clock) profile to file")
}

// start begins the requested profiles. The returned func stops them and
// writes the heap profile; it is safe to call when nothing was requested.
func (p *profileFlags) start() (func(), error) {
	var stops []func() error

	stop := func() {
		var errs []error
		for i := len(stops) - 1; i >= 0; i-- {
			errs = append(errs, stops[i]())
		}
		if err := errors.Join(errs...); err != nil {
			slog.Warn("failed to finish profiles", "err", err)
		}
	}

	if p.fg != "" {
		f, err := os.Create(p.fg)
		if err != nil {
			return nil, err
		}
		stopFG := fgprof.Start(f, fgprof.FormatPprof)
		stops = append(stops, func() error {
			return errors.Join(stopFG(), f.Close())
		})
	}

	if p.cpu != "" {
		f, err := os.Create(p.cpu)
		if err != nil {
			stop()
			return nil, err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			stop()
			return nil, fmt.Errorf("start cpu profile: %w", err)
		}
		stops = append(stops, func() error {
			pprof.StopCPUProfile()
			return f.Close()
		})
	}

	if p.trace != "" {
		f, err := os.Create(p.trace)
		if err != nil {
			stop()
			return nil, err
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			stop()
			return nil, fmt.Errorf("start trace: %w", err)
		}
		stops = append(stops, func() error {
			trace.Stop()
			return f.Close()
		})
	}

	if p.mem != "" {
		path := p.mem
		stops = append(stops, func() error {
			runtime.GC()
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			return errors.Join(pprof.WriteHeapProfile(f), f.Close())
		})
	}
	return stop, nil
}

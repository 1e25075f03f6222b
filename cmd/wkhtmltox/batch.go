package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	wkhtmltox "github.com/alnah/go-wkhtmltox"
	"github.com/alnah/go-wkhtmltox/internal/config"
	"golang.org/x/sync/errgroup"
)

// jobResult holds the outcome of a single batch job.
type jobResult struct {
	Label   string
	Mirror  bool
	Target  string // output file, or mirrored URL
	Result  *wkhtmltox.Result
	Err     error
	Skipped bool // canceled before it started
}

// runBatch runs the jobs of a batch file, or of the config when no file
// is given, with bounded concurrency.
func runBatch(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseBatchFlags(args)
	if err != nil {
		return err
	}
	s, err := resolveSettings(env, &f.common)
	if err != nil {
		return err
	}

	jobs, err := batchJobs(s.cfg, rest)
	if err != nil {
		return err
	}

	explicit := s.workers
	if f.workers > 0 {
		explicit = f.workers
	}
	workers := resolveWorkers(explicit, len(jobs))
	s.logger.Debug("starting batch", "jobs", len(jobs), "workers", workers)

	results := runJobs(ctx, env, s, jobs, workers, f.failFast)
	if failed := printResults(env, s, results); failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrBatchFailed, failed, len(results))
	}
	return nil
}

// batchJobs loads jobs from the batch file in args, or from cfg.
func batchJobs(cfg *config.Config, args []string) ([]config.Job, error) {
	switch len(args) {
	case 0:
		if len(cfg.Jobs) == 0 {
			return nil, fmt.Errorf("%w: pass a batch file or add jobs to the config", config.ErrNoJobs)
		}
		return cfg.Jobs, nil
	case 1:
		return config.LoadJobs(args[0])
	default:
		return nil, fmt.Errorf("%w: batch takes one file, got %d", ErrTooManyInputs, len(args))
	}
}

// resolveWorkers determines the number of parallel jobs.
// Priority: explicit value > GOMAXPROCS/2, capped by the job count.
func resolveWorkers(explicit, jobs int) int {
	n := explicit
	if n <= 0 {
		// Auto-calculate based on GOMAXPROCS (adjusted by automaxprocs for containers)
		n = runtime.GOMAXPROCS(0) / 2
		if n > 8 {
			n = 8
		}
	}
	if n > config.MaxWorkers {
		n = config.MaxWorkers
	}
	if jobs > 0 && n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// runJobs runs jobs with at most workers at a time. Results keep the job
// order. With failFast, jobs not yet started are skipped after a failure.
func runJobs(ctx context.Context, env *Environment, s *settings, jobs []config.Job, workers int, failFast bool) []jobResult {
	results := make([]jobResult, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range jobs {
		label := jobs[i].Label(i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = jobResult{Label: label, Err: err, Skipped: true}
				return nil
			}
			results[i] = runJob(gctx, env, s, &jobs[i], label)
			if failFast && results[i].Err != nil {
				return results[i].Err
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func runJob(ctx context.Context, env *Environment, s *settings, job *config.Job, label string) jobResult {
	r := jobResult{Label: label, Mirror: job.Mirror != nil}

	req, target, err := jobRequest(job, label, s)
	if err != nil {
		r.Err = err
		return r
	}
	r.Target = target

	r.Result, r.Err = execute(ctx, env, s, req)
	return r
}

// printResults writes one line per job and a summary.
// Returns the number of failed or skipped jobs.
func printResults(env *Environment, s *settings, results []jobResult) int {
	var succeeded, failed, skipped int

	for _, r := range results {
		switch {
		case r.Skipped:
			skipped++
			fmt.Fprintf(env.Stderr, "SKIPPED %s\n", r.Label)
		case r.Err != nil:
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.Label, r.Err, hintFor(r.Err))
		default:
			succeeded++
			if s.quiet {
				continue
			}
			if s.verbose && r.Result != nil {
				fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.Label, r.Target, r.Result.Duration.Round(time.Millisecond))
			} else if r.Mirror {
				fmt.Fprintf(env.Stdout, "Mirrored %s\n", r.Target)
			} else {
				fmt.Fprintf(env.Stdout, "Created %s\n", r.Target)
			}
		}
	}

	if !s.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed", succeeded, failed)
		if skipped > 0 {
			fmt.Fprintf(env.Stdout, ", %d skipped", skipped)
		}
		fmt.Fprintln(env.Stdout)
	}

	return failed + skipped
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"DailyByte/internal/domain"
	"DailyByte/internal/ports"
	"DailyByte/pkg/progress"
)

// Stage names used in traces, logs and StageError.
const (
	StagePreflight = "preflight"
	StageCollect   = "collect"
	StageCurate    = "curate"
	StageRender    = "render"
	StageSend      = "send"
)

// ErrDegradedDigest aborts a run whose model reply could not be parsed.
var ErrDegradedDigest = errors.New("curated digest is degraded, refusing to send")

// StageError attributes a failure to the pipeline stage that produced it.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// MissingCredentialError names the environment variable a run needs but did not get.
type MissingCredentialError struct {
	Name string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential %s", e.Name)
}

// DigestRenderer turns a curated digest into the final email.
type DigestRenderer interface {
	Render(digest domain.CuratedDigest, now time.Time) domain.RenderedDigest
}

// Credential is a secret resolved from the environment.
type Credential struct {
	Name  string
	Value string
}

// RunOptions selects which stages execute.
type RunOptions struct {
	Preview     bool
	SkipCollect bool
	SkipCurate  bool
}

// RunReport summarises one pipeline run.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Collected  int
	Breakdown  map[string]int
	Selected   int
	Delivery   domain.DeliveryResult
}

// PipelineDeps wires the stages into the orchestration pipeline.
type PipelineDeps struct {
	Collector   *Collector
	Curator     *Curator
	Renderer    DigestRenderer
	Sender      *Sender
	State       ports.StateStore
	ModelKey    Credential
	DeliveryKey Credential
	Tracer      *progress.Tracer
	Logger      *slog.Logger
	Clock       func() time.Time
	NewRunID    func() string
}

// Pipeline implements the daily digest workflow: collect, curate, render, send.
type Pipeline struct {
	collector   *Collector
	curator     *Curator
	renderer    DigestRenderer
	sender      *Sender
	state       ports.StateStore
	modelKey    Credential
	deliveryKey Credential
	tracer      *progress.Tracer
	logger      *slog.Logger
	clock       func() time.Time
	newRunID    func() string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}
	return &Pipeline{
		collector:   deps.Collector,
		curator:     deps.Curator,
		renderer:    deps.Renderer,
		sender:      deps.Sender,
		state:       deps.State,
		modelKey:    deps.ModelKey,
		deliveryKey: deps.DeliveryKey,
		tracer:      deps.Tracer,
		logger:      orDiscard(deps.Logger),
		clock:       deps.Clock,
		newRunID:    deps.NewRunID,
	}
}

// Run executes one digest run. Stage failures are returned as *StageError.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	report := RunReport{RunID: p.newRunID(), StartedAt: p.clock().UTC()}
	logger := p.logger.With("run_id", report.RunID)
	logger.Info("run started",
		"preview", opts.Preview,
		"skip_collect", opts.SkipCollect,
		"skip_curate", opts.SkipCurate,
	)

	if err := p.preflight(opts); err != nil {
		p.tracer.Fail(StagePreflight, err)
		logger.Error("preflight failed", "error", err)
		return report, err
	}

	var batch domain.CollectionBatch
	var err error
	if opts.SkipCollect && opts.SkipCurate {
		p.skip(logger, StageCollect, "curated digest is reused from state")
	} else {
		err = p.stage(logger, StageCollect, func() (string, error) {
			if opts.SkipCollect {
				loaded, err := p.loadBatch(ctx)
				if err != nil {
					return "", err
				}
				batch = loaded
				return fmt.Sprintf("loaded %d items from state", batch.TotalItems), nil
			}

			collected, err := p.collector.Collect(ctx)
			if err != nil {
				return "", err
			}
			batch = collected
			raw, err := domain.EncodeBatch(batch, p.clock())
			if err != nil {
				return "", err
			}
			if err := p.state.Put(ctx, StateRaw, raw); err != nil {
				return "", fmt.Errorf("persist raw batch: %w", err)
			}
			return fmt.Sprintf("%d items %v", batch.TotalItems, batch.Breakdown), nil
		})
		if err != nil {
			return p.finish(logger, report, err)
		}
		report.Collected = batch.TotalItems
		report.Breakdown = batch.Breakdown
	}

	var digest domain.CuratedDigest
	err = p.stage(logger, StageCurate, func() (string, error) {
		if opts.SkipCurate {
			loaded, err := p.loadDigest(ctx)
			if err != nil {
				return "", err
			}
			digest = loaded
		} else {
			curated, err := p.curator.Curate(ctx, batch)
			if err != nil {
				return "", err
			}
			digest = curated
			raw, err := domain.EncodeDigest(digest)
			if err != nil {
				return "", err
			}
			if err := p.state.Put(ctx, StateCurated, raw); err != nil {
				return "", fmt.Errorf("persist curated digest: %w", err)
			}
		}
		if digest.Degraded() {
			return "", fmt.Errorf("%w: %s", ErrDegradedDigest, digest.Error)
		}
		return fmt.Sprintf("%d items selected", len(digest.Items)), nil
	})
	if err != nil {
		return p.finish(logger, report, err)
	}
	report.Selected = len(digest.Items)

	var rendered domain.RenderedDigest
	err = p.stage(logger, StageRender, func() (string, error) {
		rendered = p.renderer.Render(digest, p.clock())
		return rendered.Subject, nil
	})
	if err != nil {
		return p.finish(logger, report, err)
	}

	err = p.stage(logger, StageSend, func() (string, error) {
		result, err := p.sender.Send(ctx, rendered, opts.Preview)
		if err != nil {
			return "", err
		}
		report.Delivery = result
		if result.Preview {
			return "preview at " + result.Path, nil
		}
		return "delivery " + result.DeliveryID, nil
	})
	return p.finish(logger, report, err)
}

func (p *Pipeline) preflight(opts RunOptions) error {
	if !opts.SkipCurate && !p.curator.HasOverride() && p.modelKey.Value == "" {
		return &MissingCredentialError{Name: p.modelKey.Name}
	}
	if !opts.Preview && p.deliveryKey.Value == "" {
		return &MissingCredentialError{Name: p.deliveryKey.Name}
	}
	return nil
}

func (p *Pipeline) stage(logger *slog.Logger, name string, fn func() (string, error)) (err error) {
	p.tracer.Begin(name)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			p.tracer.Fail(name, err)
			logger.Error("stage failed", "stage", name, "error", err)
			err = &StageError{Stage: name, Err: err}
		}
	}()

	detail, err := fn()
	if err != nil {
		return err
	}
	p.tracer.Done(name, detail)
	logger.Info("stage done", "stage", name, "detail", detail)
	return nil
}

func (p *Pipeline) skip(logger *slog.Logger, name, reason string) {
	p.tracer.Skip(name, reason)
	logger.Info("stage skipped", "stage", name, "reason", reason)
}

func (p *Pipeline) finish(logger *slog.Logger, report RunReport, err error) (RunReport, error) {
	report.FinishedAt = p.clock().UTC()
	took := report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)
	if err != nil {
		p.tracer.Summary("run %s failed after %s: %v", report.RunID, took, err)
		return report, err
	}
	p.tracer.Summary("run %s ok in %s: %d collected, %d selected", report.RunID, took, report.Collected, report.Selected)
	logger.Info("run finished", "collected", report.Collected, "selected", report.Selected, "took", took)
	return report, nil
}

func (p *Pipeline) loadBatch(ctx context.Context) (domain.CollectionBatch, error) {
	raw, err := p.state.Get(ctx, StateRaw)
	if errors.Is(err, ports.ErrStateNotFound) {
		return domain.CollectionBatch{}, fmt.Errorf("no collected batch in state, run without -skip-collect first: %w", err)
	}
	if err != nil {
		return domain.CollectionBatch{}, fmt.Errorf("load raw batch: %w", err)
	}
	return domain.DecodeBatch(raw)
}

func (p *Pipeline) loadDigest(ctx context.Context) (domain.CuratedDigest, error) {
	raw, err := p.state.Get(ctx, StateCurated)
	if errors.Is(err, ports.ErrStateNotFound) {
		return domain.CuratedDigest{}, fmt.Errorf("no curated digest in state, run without -skip-process first: %w", err)
	}
	if err != nil {
		return domain.CuratedDigest{}, fmt.Errorf("load curated digest: %w", err)
	}
	return domain.DecodeDigest(raw)
}

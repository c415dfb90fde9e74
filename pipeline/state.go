package pipeline

import (
	"context"
	"strings"
	"time"
)

// IsStarted reports whether the pipeline is currently in the STARTED state.
// One poll, no retries, no side effects.
func (p *Pipeline) IsStarted(ctx context.Context) (bool, error) {
	info, err := p.remote.Info(ctx)
	if err != nil {
		return false, err
	}
	return info.PipelineState == StateStarted, nil
}

// EnsureStarted drives the pipeline to the STARTED state, polling every
// pollInterval until the state is observed or timeout elapses.  A no-op if
// the pipeline is already started.
func (p *Pipeline) EnsureStarted(ctx context.Context, timeout time.Duration, pollInterval time.Duration) error {
	return p.ensureState(ctx, StateStarted, timeout, pollInterval)
}

// EnsureStopped drives the pipeline to the STOPPED state, polling every
// pollInterval until the state is observed or timeout elapses.  A no-op if
// the pipeline is already stopped.
func (p *Pipeline) EnsureStopped(ctx context.Context, timeout time.Duration, pollInterval time.Duration) error {
	return p.ensureState(ctx, StateStopped, timeout, pollInterval)
}

// ensureState converges the remote pipeline on the target state.  The remote
// service transitions asynchronously and reports progress only through the
// info endpoint, so after issuing the transition request exactly once we poll
// until the target state appears, the deadline passes, or the remote reports
// a failed transition.
func (p *Pipeline) ensureState(ctx context.Context, target string, timeout time.Duration, pollInterval time.Duration) error {
	info, err := p.remote.Info(ctx)
	if err != nil {
		return err
	}
	if info.PipelineState == target {
		return nil
	}

	if target == StateStarted {
		err = p.remote.Start(ctx)
	} else {
		err = p.remote.Stop(ctx)
	}
	if err != nil {
		return err
	}
	p.Logger.Infow("requested pipeline state change",
		"project", p.Project, "pipeline", p.Name, "target", target, "current", info.PipelineState)

	// The transition request only being accepted says nothing about the
	// transition completing, so the deadline starts here.
	deadline := time.Now().Add(timeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}

		info, err = p.remote.Info(ctx)
		if err != nil {
			return err
		}
		if info.PipelineState == target {
			p.Logger.Infow("pipeline reached target state",
				"project", p.Project, "pipeline", p.Name, "state", info.PipelineState)
			return nil
		}
		if msg := transitionFailureMessage(info); msg != "" {
			return &RemoteOperationError{Pipeline: p.Name, Target: target, Message: msg}
		}
		if time.Now().After(deadline) {
			return &OperationTimeoutError{
				Pipeline:    p.Name,
				Target:      target,
				LastState:   info.PipelineState,
				LastMessage: info.PipelineStateMessage,
			}
		}
	}
}

// transitionFailureMessage extracts the remote failure text from a state
// snapshot.  The platform keeps the state unchanged both while a transition
// is still in flight and after one has failed; the state message mentioning
// an exception is what distinguishes the two.
func transitionFailureMessage(info *Info) string {
	if info.PipelineStateMessage == "" {
		return ""
	}
	if strings.Contains(strings.ToLower(info.PipelineStateMessage), "exception") {
		return info.PipelineStateMessage
	}
	return ""
}

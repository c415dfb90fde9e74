package pipeline

import (
	"context"

	"github.com/medtext/textanalysis-go/client"
	"github.com/pkg/errors"
)

// Remote is the set of calls the platform exposes for one pipeline.  The
// implementation owns transport, auth and envelope concerns; everything in
// this package works purely against this interface.
type Remote interface {
	// Info fetches the current pipeline state snapshot.
	Info(ctx context.Context) (*Info, error)
	// Start requests a transition to STARTED.  The request is accepted
	// immediately; the transition itself happens asynchronously.
	Start(ctx context.Context) error
	// Stop requests a transition to STOPPED, asynchronously like Start.
	Stop(ctx context.Context) error
	// Capacity fetches the maximum recommended number of concurrent
	// analysis submissions.
	Capacity(ctx context.Context) (int, error)
	// Analyse submits one document and returns its annotation records.
	Analyse(ctx context.Context, document []byte) ([]Annotation, error)
}

// restRemote implements Remote against the platform's REST endpoints.
type restRemote struct {
	project *client.Project
	name    string
}

// NewRemote creates the REST-backed Remote for a named pipeline under a
// project.
func NewRemote(project *client.Project, name string) Remote {
	return &restRemote{project: project, name: name}
}

func (r *restRemote) Info(ctx context.Context) (*Info, error) {
	var info Info
	if err := r.project.REST().Get(ctx, r.project.PipelineEndpoint(r.name, ""), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *restRemote) Start(ctx context.Context) error {
	return r.project.REST().Put(ctx, r.project.PipelineEndpoint(r.name, "start"))
}

func (r *restRemote) Stop(ctx context.Context) error {
	return r.project.REST().Put(ctx, r.project.PipelineEndpoint(r.name, "stop"))
}

func (r *restRemote) Capacity(ctx context.Context) (int, error) {
	var cfg configuration
	if err := r.project.REST().Get(ctx, r.project.PipelineEndpoint(r.name, "configuration"), &cfg); err != nil {
		return 0, err
	}
	if cfg.AnalysisEnginePoolSize < 1 {
		return 0, errors.Errorf("remote advertised invalid analysis engine pool size %d", cfg.AnalysisEnginePoolSize)
	}
	return cfg.AnalysisEnginePoolSize, nil
}

func (r *restRemote) Analyse(ctx context.Context, document []byte) ([]Annotation, error) {
	var records []Annotation
	endpoint := r.project.PipelineEndpoint(r.name, "analyseText")
	if err := r.project.REST().Post(ctx, endpoint, "text/plain; charset=utf-8", document, &records); err != nil {
		return nil, err
	}
	return records, nil
}

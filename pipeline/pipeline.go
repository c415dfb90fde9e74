package pipeline

import (
	"github.com/medtext/textanalysis-go/client"
	"github.com/medtext/textanalysis-go/config"
)

// Pipeline drives one named remote pipeline: lifecycle convergence and batch
// document analysis.  The remote service owns the pipeline's actual state;
// this type only requests and observes.
type Pipeline struct {
	config.Config
	remote  Remote
	Project string
	Name    string
}

// New creates a Pipeline handle for the named pipeline under a project.
func New(cfg *config.Config, project *client.Project, name string) *Pipeline {
	return &Pipeline{
		Config: config.Config{
			Logger:      cfg.Logger,
			Environment: cfg.Environment,
		},
		remote:  NewRemote(project, name),
		Project: project.Name,
		Name:    name,
	}
}

// NewWithRemote creates a Pipeline over an existing Remote.  Used when the
// transport is provided by the caller.
func NewWithRemote(cfg *config.Config, remote Remote, project string, name string) *Pipeline {
	return &Pipeline{
		Config: config.Config{
			Logger:      cfg.Logger,
			Environment: cfg.Environment,
		},
		remote:  remote,
		Project: project,
		Name:    name,
	}
}

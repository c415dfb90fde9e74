package client

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtext/textanalysis-go/internal/remotetest"
)

func newTestClient(t *testing.T) (*Client, *remotetest.Server) {
	srv := remotetest.New(nil, "LoadTesting", "discharge", 100*time.Millisecond)
	t.Cleanup(srv.Close)
	return New(srv.URL(), "test-token", 5*time.Second), srv
}

func TestGetDecodesEnvelopePayload(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetState("STOPPED", false, "")

	var info struct {
		Name          string `json:"name"`
		PipelineState string `json:"pipelineState"`
	}
	endpoint := c.GetProject("LoadTesting").PipelineEndpoint("discharge", "")
	err := c.Get(context.Background(), endpoint, &info)
	require.NoError(t, err)

	assert.Equal(t, "discharge", info.Name)
	assert.Equal(t, "STOPPED", info.PipelineState)
}

func TestServiceReportedError(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetAnalyseErrors("analysis failed", "engine unavailable")

	endpoint := c.GetProject("LoadTesting").PipelineEndpoint("discharge", "analyseText")
	err := c.Post(context.Background(), endpoint, "text/plain; charset=utf-8", []byte("doc"), nil)

	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, []string{"analysis failed", "engine unavailable"}, serviceErr.Messages)
	assert.Contains(t, serviceErr.Error(), "analysis failed")
}

func TestTransportFailure(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Close()

	err := c.Get(context.Background(), "textanalysis/projects/LoadTesting/pipelines/discharge", nil)

	var unavailable *RemoteUnavailableError
	require.True(t, errors.As(err, &unavailable))
}

func TestUnexpectedStatus(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.Get(context.Background(), "textanalysis/projects/LoadTesting/nope", nil)

	var unavailable *RemoteUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Contains(t, err.Error(), "404")
}

func TestPutAcceptsEmptyPayload(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetState("STOPPED", false, "")

	endpoint := c.GetProject("LoadTesting").PipelineEndpoint("discharge", "start")
	err := c.Put(context.Background(), endpoint)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.StartRequests())
}

func TestPipelineEndpoint(t *testing.T) {
	c := New("http://localhost:8080", "", time.Second)
	project := c.GetProject("LoadTesting")

	assert.Equal(t, "textanalysis/projects/LoadTesting/pipelines/discharge",
		project.PipelineEndpoint("discharge", ""))
	assert.Equal(t, "textanalysis/projects/LoadTesting/pipelines/discharge/configuration",
		project.PipelineEndpoint("discharge", "configuration"))
}

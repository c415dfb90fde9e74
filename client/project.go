package client

import "fmt"

// Project is a handle on a named project in the platform registry.  Pipelines
// live underneath a project, so all pipeline endpoints are rooted here.
type Project struct {
	rest *Client
	Name string
}

// GetProject returns a handle on the named project.  No remote call is made;
// the platform resolves the name when the first endpoint under it is hit.
func (c *Client) GetProject(name string) *Project {
	return &Project{rest: c, Name: name}
}

// REST exposes the underlying endpoint client for collaborators that build
// endpoints beneath this project.
func (p *Project) REST() *Client {
	return p.rest
}

// PipelineEndpoint builds the endpoint for a pipeline owned by this project,
// optionally followed by a sub-resource such as "start" or "configuration".
func (p *Project) PipelineEndpoint(pipeline string, subresource string) string {
	endpoint := fmt.Sprintf("textanalysis/projects/%s/pipelines/%s", p.Name, pipeline)
	if subresource != "" {
		endpoint += "/" + subresource
	}
	return endpoint
}

package pipeline

// Pipeline states as reported by the platform.  The client never invents a
// state: anything other than these two is treated as still transitioning.
const (
	StateStarted = "STARTED"
	StateStopped = "STOPPED"
)

// Info is the pipeline state snapshot returned by the platform's info
// endpoint.  It is authoritative only as of the poll that produced it.
type Info struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	Description          string `json:"description"`
	PipelineState        string `json:"pipelineState"`
	PipelineStateMessage string `json:"pipelineStateMessage"`
	Preconfigured        bool   `json:"preconfigured"`
	ScaleOuted           bool   `json:"scaleOuted"`
}

// configuration is the subset of the pipeline configuration endpoint the
// client consumes.
type configuration struct {
	AnalysisEnginePoolSize int `json:"analysisEnginePoolSize"`
}

// Annotation is a single annotation record produced by the remote analysis.
// Annotation schemas are owned by the platform, so records are kept
// schemaless.
type Annotation map[string]interface{}

// Result pairs the annotation records of one analysed document with the
// source identifier of the input that produced it.
type Result struct {
	Source string
	Data   []Annotation
}

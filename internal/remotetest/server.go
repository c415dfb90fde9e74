// Package remotetest provides an in-process stand-in for the text analysis
// platform.  It serves the pipeline endpoints a client drives (info, start,
// stop, configuration, analyseText) with the platform's envelope format and
// its asynchronous state-transition behavior, so client and pipeline tests
// can run against a real HTTP round trip.
package remotetest

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"
)

const (
	stateStarted = "STARTED"
	stateStopped = "STOPPED"
)

// Server mimics one pipeline of the platform.  Transitions requested through
// start/stop are not applied immediately: the reported state changes only
// once ChangeStateAfter has elapsed since the request, unless the state is
// locked, in which case it never changes.
type Server struct {
	Project  string
	Pipeline string
	Capacity int
	// ChangeStateAfter is how long a requested transition takes to become
	// visible through the info endpoint.
	ChangeStateAfter time.Duration

	mu                    sync.Mutex
	state                 string
	stateMessage          string
	requestedState        string
	requestedStateMessage string
	locked                bool
	lastChangeRequest     time.Time
	startRequests         int
	stopRequests          int
	analyseErrors         []string

	httpServer *httptest.Server
}

// New starts a mock platform serving the project/pipeline pair with the given
// transition latency.  Callers own the returned server and must Close it.
func New(logger *zap.SugaredLogger, project string, pipeline string, changeStateAfter time.Duration) *Server {
	s := &Server{
		Project:          project,
		Pipeline:         pipeline,
		Capacity:         4,
		ChangeStateAfter: changeStateAfter,
		state:            stateStopped,
		requestedState:   stateStopped,
	}
	s.httpServer = httptest.NewServer(s.router(logger))
	return s
}

// URL returns the mock platform's base URL.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// Close shuts the mock platform down.
func (s *Server) Close() {
	s.httpServer.Close()
}

// SetState pins the pipeline to a state.  A locked pipeline acknowledges
// transition requests but never changes state; message, when non-empty,
// becomes visible through the info endpoint once the transition latency has
// elapsed after a request.
func (s *Server) SetState(state string, locked bool, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.requestedState = state
	s.locked = locked
	s.requestedStateMessage = message
	s.stateMessage = ""
	s.lastChangeRequest = time.Now()
}

// SetAnalyseErrors makes the analyseText endpoint report the given error
// messages in its envelope instead of annotation records.
func (s *Server) SetAnalyseErrors(messages ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyseErrors = messages
}

// StartRequests returns how many start requests the server has accepted.
func (s *Server) StartRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startRequests
}

// StopRequests returns how many stop requests the server has accepted.
func (s *Server) StopRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequests
}

func (s *Server) router(logger *zap.SugaredLogger) chi.Router {
	r := chi.NewRouter()
	if logger != nil {
		r.Use(requestLogger(logger))
	}
	r.Use(middleware.Recoverer)

	r.Route("/rest/v1/textanalysis/projects/{project}/pipelines/{pipeline}", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/", s.info)
		r.Put("/start", s.start)
		r.Put("/stop", s.stop)
		r.Get("/configuration", s.configuration)
		r.Post("/analyseText", s.analyseText)
	})

	return r
}

// envelope mirrors the platform's shared response wrapper.
type envelope struct {
	Payload       interface{} `json:"payload"`
	ErrorMessages []string    `json:"errorMessages"`
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if !s.locked && !s.lastChangeRequest.IsZero() && time.Since(s.lastChangeRequest) > s.ChangeStateAfter {
		s.state = s.requestedState
	}
	if !s.lastChangeRequest.IsZero() && time.Since(s.lastChangeRequest) > s.ChangeStateAfter {
		s.stateMessage = s.requestedStateMessage
	}
	payload := map[string]interface{}{
		"id":                   94034,
		"name":                 s.Pipeline,
		"description":          nil,
		"pipelineState":        s.state,
		"pipelineStateMessage": s.stateMessage,
		"preconfigured":        true,
		"scaleOuted":           false,
	}
	s.mu.Unlock()
	render.JSON(w, r, envelope{Payload: payload, ErrorMessages: []string{}})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.lastChangeRequest = time.Now()
	s.requestedState = stateStarted
	s.startRequests++
	s.mu.Unlock()
	render.JSON(w, r, envelope{Payload: map[string]interface{}{}, ErrorMessages: []string{}})
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.lastChangeRequest = time.Now()
	s.requestedState = stateStopped
	s.stopRequests++
	s.mu.Unlock()
	render.JSON(w, r, envelope{Payload: map[string]interface{}{}, ErrorMessages: []string{}})
}

func (s *Server) configuration(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, envelope{
		Payload:       map[string]interface{}{"analysisEnginePoolSize": s.Capacity},
		ErrorMessages: []string{},
	})
}

func (s *Server) analyseText(w http.ResponseWriter, r *http.Request) {
	body, err := ioutil.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "failed to read document", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	analyseErrors := s.analyseErrors
	s.mu.Unlock()
	if len(analyseErrors) > 0 {
		render.JSON(w, r, envelope{Payload: []interface{}{}, ErrorMessages: analyseErrors})
		return
	}

	text := string(body)
	render.JSON(w, r, envelope{
		Payload: []map[string]interface{}{
			{
				"begin":       0,
				"end":         len(text),
				"type":        "uima.tcas.DocumentAnnotation",
				"coveredText": text,
			},
		},
		ErrorMessages: []string{},
	})
}

// requestLogger logs each request through the supplied zap logger, the same
// wrap-and-time shape the platform's own access log uses.
func requestLogger(l *zap.SugaredLogger) func(next http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			lw := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t1 := time.Now()
			h.ServeHTTP(lw, r)
			if lw.Status() == 0 {
				lw.WriteHeader(http.StatusOK)
			}
			l.Infof("%s %s %03d in %.2fms", r.Method, r.URL.Path, lw.Status(), time.Since(t1).Seconds()*1000)
		}
		return http.HandlerFunc(fn)
	}
}

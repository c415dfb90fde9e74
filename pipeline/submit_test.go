package pipeline

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medtext/textanalysis-go/client"
	"github.com/medtext/textanalysis-go/config"
)

func readFixture(t *testing.T, path string) string {
	content, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func coveredText(t *testing.T, result Result) string {
	require.NotEmpty(t, result.Data)
	text, ok := result.Data[0]["coveredText"].(string)
	require.True(t, ok)
	return text
}

func TestAnalyseTextsWithFileStreams(t *testing.T) {
	pipe, srv := newTestPipeline(t, 100*time.Millisecond)
	srv.SetState(StateStarted, false, "")

	file1, err := os.Open("testdata/texts/text1.txt")
	require.NoError(t, err)
	defer file1.Close()
	file2, err := os.Open("testdata/texts/text2.txt")
	require.NoError(t, err)
	defer file2.Close()

	results, err := pipe.AnalyseTexts(context.Background(), Reader("", file1), Reader("", file2))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "testdata/texts/text1.txt", results[0].Source)
	assert.Equal(t, "testdata/texts/text2.txt", results[1].Source)
	assert.Equal(t, readFixture(t, "testdata/texts/text1.txt"), coveredText(t, results[0]))
	assert.Equal(t, readFixture(t, "testdata/texts/text2.txt"), coveredText(t, results[1]))
}

func TestAnalyseTextsHeterogeneous(t *testing.T) {
	pipe, srv := newTestPipeline(t, 100*time.Millisecond)
	srv.SetState(StateStarted, false, "")

	stream, err := os.Open("testdata/texts/text2.txt")
	require.NoError(t, err)
	defer stream.Close()

	results, err := pipe.AnalyseTexts(context.Background(),
		Path("testdata/texts/text1.txt"),
		Glob("testdata/texts/*.txt"),
		Reader("", stream),
	)
	require.NoError(t, err)

	// one path + two glob matches + one stream; duplicates are preserved
	require.Len(t, results, 4)

	sources := make([]string, 0, len(results))
	for _, result := range results {
		sources = append(sources, result.Source)
	}
	assert.Equal(t, []string{
		"testdata/texts/text1.txt",
		"testdata/texts/text1.txt",
		"testdata/texts/text2.txt",
		"testdata/texts/text2.txt",
	}, sources)

	for _, result := range results {
		assert.Equal(t, readFixture(t, result.Source), coveredText(t, result))
	}
}

func TestAnalyseTextsAnonymousStream(t *testing.T) {
	pipe, srv := newTestPipeline(t, 100*time.Millisecond)
	srv.SetState(StateStarted, false, "")

	results, err := pipe.AnalyseTexts(context.Background(),
		Reader("", bytes.NewBufferString("ad hoc document")))
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, strings.HasPrefix(results[0].Source, "stream-"))
	assert.Equal(t, "ad hoc document", coveredText(t, results[0]))
}

func TestAnalyseTextsNamedStream(t *testing.T) {
	pipe, srv := newTestPipeline(t, 100*time.Millisecond)
	srv.SetState(StateStarted, false, "")

	results, err := pipe.AnalyseTexts(context.Background(),
		Reader("notes/admission.txt", strings.NewReader("admission note")))
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "notes/admission.txt", results[0].Source)
	assert.Equal(t, "admission note", coveredText(t, results[0]))
}

func TestAnalyseTextsFailFast(t *testing.T) {
	pipe, srv := newTestPipeline(t, 100*time.Millisecond)
	srv.SetState(StateStarted, false, "")
	srv.SetAnalyseErrors("analysis engine crashed")

	results, err := pipe.AnalyseTexts(context.Background(), Glob("testdata/texts/*.txt"))
	assert.Nil(t, results)

	var submissionErr *SubmissionError
	require.True(t, errors.As(err, &submissionErr))

	var serviceErr *client.ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Contains(t, serviceErr.Messages, "analysis engine crashed")
}

func TestAnalyseTextsInvalidCapacity(t *testing.T) {
	pipe, srv := newTestPipeline(t, 100*time.Millisecond)
	srv.SetState(StateStarted, false, "")
	srv.Capacity = 0

	results, err := pipe.AnalyseTexts(context.Background(), Path("testdata/texts/text1.txt"))
	assert.Nil(t, results)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool size")
}

func TestAnalyseTextsCapacityUnreachable(t *testing.T) {
	pipe, srv := newTestPipeline(t, 100*time.Millisecond)
	srv.Close()

	results, err := pipe.AnalyseTexts(context.Background(), Path("testdata/texts/text1.txt"))
	assert.Nil(t, results)

	var unavailable *client.RemoteUnavailableError
	require.True(t, errors.As(err, &unavailable))
}

func TestAnalyseTextsNoInputs(t *testing.T) {
	pipe, srv := newTestPipeline(t, 100*time.Millisecond)
	srv.SetState(StateStarted, false, "")

	results, err := pipe.AnalyseTexts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}

// fakeRemote is an in-memory Remote that records how Analyse is called, for
// asserting on the submitter's concurrency behavior without a network in the
// way.
type fakeRemote struct {
	capacity     int
	analyseDelay time.Duration
	analyseErr   error

	mu           sync.Mutex
	inFlight     int
	maxInFlight  int
	analyseCalls int
}

func (f *fakeRemote) Info(ctx context.Context) (*Info, error) {
	return &Info{PipelineState: StateStarted}, nil
}

func (f *fakeRemote) Start(ctx context.Context) error {
	return nil
}

func (f *fakeRemote) Stop(ctx context.Context) error {
	return nil
}

func (f *fakeRemote) Capacity(ctx context.Context) (int, error) {
	return f.capacity, nil
}

func (f *fakeRemote) Analyse(ctx context.Context, document []byte) ([]Annotation, error) {
	f.mu.Lock()
	f.analyseCalls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(f.analyseDelay)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if f.analyseErr != nil {
		return nil, f.analyseErr
	}
	return []Annotation{{"coveredText": string(document)}}, nil
}

func (f *fakeRemote) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func (f *fakeRemote) AnalyseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyseCalls
}

func newFakeRemotePipeline(fake Remote) *Pipeline {
	cfg := &config.Config{
		Logger:      zap.NewNop().Sugar(),
		Environment: &config.Environment{},
	}
	return NewWithRemote(cfg, fake, "LoadTesting", "discharge")
}

func TestAnalyseTextsHonorsCapacityCap(t *testing.T) {
	fake := &fakeRemote{capacity: 2, analyseDelay: 20 * time.Millisecond}
	pipe := newFakeRemotePipeline(fake)

	inputs := make([]Input, 10)
	for i := range inputs {
		inputs[i] = Reader("", strings.NewReader("document"))
	}

	results, err := pipe.AnalyseTexts(context.Background(), inputs...)
	require.NoError(t, err)
	assert.Len(t, results, 10)
	assert.Equal(t, 10, fake.AnalyseCalls())

	// the advertised capacity is a hard cap on in-flight submissions,
	// not a hint: the pool fills to it and never exceeds it
	assert.Equal(t, 2, fake.MaxInFlight())
}

func TestAnalyseTextsNoNewSubmissionsAfterFailure(t *testing.T) {
	fake := &fakeRemote{capacity: 1, analyseErr: errors.New("analysis engine crashed")}
	pipe := newFakeRemotePipeline(fake)

	inputs := make([]Input, 10)
	for i := range inputs {
		inputs[i] = Reader("", strings.NewReader("document"))
	}

	results, err := pipe.AnalyseTexts(context.Background(), inputs...)
	assert.Nil(t, results)

	var submissionErr *SubmissionError
	require.True(t, errors.As(err, &submissionErr))

	// with a single worker the first failure cancels the batch before any
	// other document is submitted
	assert.Equal(t, 1, fake.AnalyseCalls())
}

func TestAnalyseTextsMissingFile(t *testing.T) {
	pipe, srv := newTestPipeline(t, 100*time.Millisecond)
	srv.SetState(StateStarted, false, "")

	results, err := pipe.AnalyseTexts(context.Background(), Path("testdata/texts/missing.txt"))
	assert.Nil(t, results)

	var submissionErr *SubmissionError
	require.True(t, errors.As(err, &submissionErr))
	assert.Equal(t, "testdata/texts/missing.txt", submissionErr.Source)
}

package pipeline

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Document is the normalized form every input converges to before
// submission: a stable source identifier paired with a lazy content accessor.
// Content is read exactly once, by the worker that submits the document.
type Document struct {
	Source  string
	Content func() ([]byte, error)
}

// Input yields documents for batch analysis.  The concrete shapes a batch
// accepts are the adapters below; mixing them in one call is fine.
type Input interface {
	Documents() ([]Document, error)
}

// pathInput is a single on-disk document.
type pathInput struct {
	path string
}

// Path adapts a single file path.  The source identifier is the path itself,
// slash-separated; the file is read lazily when the document is submitted.
func Path(path string) Input {
	return &pathInput{path: path}
}

func (i *pathInput) Documents() ([]Document, error) {
	path := i.path
	return []Document{{
		Source: filepath.ToSlash(path),
		Content: func() ([]byte, error) {
			content, err := ioutil.ReadFile(path)
			return content, errors.Wrapf(err, "failed to read %s", path)
		},
	}}, nil
}

// globInput expands a filename pattern into one document per match.
type globInput struct {
	pattern string
}

// Glob adapts a filepath pattern.  Expansion is eager: a bad pattern fails
// the whole batch before any submission starts.
func Glob(pattern string) Input {
	return &globInput{pattern: pattern}
}

func (i *globInput) Documents() ([]Document, error) {
	matches, err := filepath.Glob(i.pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to expand pattern %s", i.pattern)
	}
	docs := make([]Document, 0, len(matches))
	for _, match := range matches {
		expanded, err := Path(match).Documents()
		if err != nil {
			return nil, err
		}
		docs = append(docs, expanded...)
	}
	return docs, nil
}

// readerInput is an already-open byte stream.  The caller keeps ownership of
// the stream's lifecycle; its remaining bytes are consumed exactly once.
type readerInput struct {
	name   string
	reader io.Reader
}

// Reader adapts an open stream.  The source identifier is name when supplied,
// the file name for *os.File streams, and a synthetic stream-<uuid> otherwise.
func Reader(name string, r io.Reader) Input {
	return &readerInput{name: name, reader: r}
}

func (i *readerInput) Documents() ([]Document, error) {
	source := i.name
	if source == "" {
		if file, ok := i.reader.(*os.File); ok {
			source = filepath.ToSlash(file.Name())
		} else {
			source = "stream-" + uuid.NewString()
		}
	}
	reader := i.reader
	return []Document{{
		Source: source,
		Content: func() ([]byte, error) {
			content, err := ioutil.ReadAll(reader)
			return content, errors.Wrapf(err, "failed to read stream %s", source)
		},
	}}, nil
}

// normalize expands a heterogeneous input collection into the flat document
// sequence a batch submits, preserving the order inputs were supplied in.
func normalize(inputs []Input) ([]Document, error) {
	var docs []Document
	for _, input := range inputs {
		expanded, err := input.Documents()
		if err != nil {
			return nil, err
		}
		docs = append(docs, expanded...)
	}
	return docs, nil
}

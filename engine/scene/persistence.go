package scene

import (
	"bufio"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"

	"github.com/Carmen-Shannon/oxy-scene/engine/node"
)

const (
	// ErrTypeLoad is the error type of failed scene loads.
	ErrTypeLoad = "scene_load_error"
	// ErrTypeSave is the error type of failed scene saves.
	ErrTypeSave = "scene_save_error"
)

// Load reads one transform record per line from r. For each record it
// creates a node with newNode, applies the transform and adds the node with
// Add[T]. Blank lines and lines starting with '#' are skipped.
//
// Nodes added before a malformed record stay in the graph.
//
// Parameters:
//   - g: the graph to populate
//   - r: the record source
//   - newNode: creates the node a record is applied to
//   - f: the number format of the records
//
// Returns:
//   - int: the number of nodes added
//   - error: an ErrTypeLoad error tagged with the failing line
func Load[T node.Node](g Graph, r io.Reader, newNode func() T, f node.Format) (int, error) {
	sc := bufio.NewScanner(r)
	added, line := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		n := newNode()
		if err := node.ParseRecord(text, n, f); err != nil {
			return added, errors.New("malformed scene record").
				WithType(ErrTypeLoad).
				WithTag("line", line).
				Wrap(err)
		}
		if Add(g, n).IsEnd() {
			return added, errors.New("node rejected by graph").
				WithType(ErrTypeLoad).
				WithTag("line", line)
		}
		added++
	}
	if err := sc.Err(); err != nil {
		return added, errors.New("reading scene records failed").
			WithType(ErrTypeLoad).
			WithTag("line", line).
			Wrap(err)
	}
	return added, nil
}

// LoadFile is Load reading from the named file. Failures are logged before
// being returned.
func LoadFile[T node.Node](g Graph, path string, newNode func() T, f node.Format) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		err = errors.New("opening scene file failed").
			WithType(ErrTypeLoad).
			WithTag("file", path).
			Wrap(err)
		logs.Error(err)
		return 0, err
	}
	defer file.Close()

	added, err := Load(g, file, newNode, f)
	if err != nil {
		err = errors.New("loading scene file failed").
			WithType(ErrTypeLoad).
			WithTag("file", path).
			Wrap(err)
		logs.Error(err)
		return added, err
	}
	logs.WithTag("file", path).
		WithTag("nodes", added).
		WithTag("type", reflect.TypeFor[T]().String()).
		Info("loaded scene file")
	return added, nil
}

// Save writes the transform record of every node stored as type T, in
// iteration order.
//
// Parameters:
//   - g: the graph to save
//   - w: the destination
//   - f: the number format
//
// Returns:
//   - error: an ErrTypeSave error
func Save[T node.Node](g Graph, w io.Writer, f node.Format) error {
	s := g.storageOf(reflect.TypeFor[T]())
	if s == nil {
		return nil
	}
	bw := bufio.NewWriter(w)
	var buf []byte
	var werr error
	s.Each(func(n node.Node) bool {
		buf = node.AppendRecord(buf[:0], n, f)
		_, werr = bw.Write(buf)
		return werr == nil
	})
	if werr == nil {
		werr = bw.Flush()
	}
	if werr != nil {
		return errors.New("writing scene records failed").
			WithType(ErrTypeSave).
			WithTag("type", reflect.TypeFor[T]().String()).
			Wrap(werr)
	}
	return nil
}

// SaveFile is Save writing to the named file, which is created or truncated.
func SaveFile[T node.Node](g Graph, path string, f node.Format) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.New("creating scene file failed").
			WithType(ErrTypeSave).
			WithTag("file", path).
			Wrap(err)
	}
	if err := Save[T](g, file, f); err != nil {
		file.Close()
		return errors.New("saving scene file failed").
			WithType(ErrTypeSave).
			WithTag("file", path).
			Wrap(err)
	}
	if err := file.Close(); err != nil {
		return errors.New("closing scene file failed").
			WithType(ErrTypeSave).
			WithTag("file", path).
			Wrap(err)
	}
	return nil
}

package main

import (
	"context"
	"path/filepath"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/fsnotify/fsnotify"
)

// watch calls onChange with the path of any of files that is written or
// replaced, until ctx is done. Directories are watched rather than files so
// that editors saving through a rename keep being observed.
func watch(ctx context.Context, files []string, onChange func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("creating file watcher failed").Wrap(err)
	}

	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			w.Close()
			return errors.New("resolving scene file failed").WithTag("file", f).Wrap(err)
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return errors.New("watching directory failed").WithTag("dir", dir).Wrap(err)
		}
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if abs, err := filepath.Abs(event.Name); err == nil && watched[abs] {
					logs.WithTag("file", event.Name).
						WithTag("op", event.Op.String()).
						Debug("scene file changed")
					onChange(event.Name)
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logs.Warn(errors.New("watching scene files failed").Wrap(err))
			}
		}
	}()
	return nil
}

package collectors

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/nxadm/tail"
	"github.com/sirupsen/logrus"

	"rtcollector/pkg/telemetry"
)

// fileTailCollector is a telemetry.PersistentCollector wrapping one
// github.com/nxadm/tail follower per configured path, grounded on the
// teacher's internal/monitors/file_monitor.go logTailer. It drops the
// teacher's worker-pool dispatch and retry-queue machinery — a single
// cycle's drain of buffered lines has no downstream fan-out to pool across.
// An fsnotify watcher on each path's parent directory logs rotation events
// (the file being removed and recreated under the same name) alongside
// tail's own ReOpen handling, since operators debugging a stalled tail
// often want to know rotation happened at all, not just that lines kept
// flowing afterward.
type fileTailCollector struct {
	paths  []string
	logger *logrus.Logger

	mu      sync.Mutex
	buf     []telemetry.LogRecord
	tailers []*tail.Tail
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
}

func newFileTailCollector(options map[string]interface{}, logger *logrus.Logger) (telemetry.CollectorDescriptor, error) {
	paths := stringSliceOption(options, "paths")
	if len(paths) == 0 {
		return telemetry.CollectorDescriptor{}, fmt.Errorf("file_tail collector requires a non-empty 'paths' list")
	}

	return telemetry.CollectorDescriptor{
		Persistent: &fileTailCollector{
			paths:  paths,
			logger: logger,
		},
	}, nil
}

func (f *fileTailCollector) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.logger.WithError(err).Warn("file_tail collector failed to create rotation watcher")
	} else {
		f.watcher = watcher
		watchedDirs := map[string]bool{}
		for _, path := range f.paths {
			dir := filepath.Dir(path)
			if !watchedDirs[dir] {
				if err := watcher.Add(dir); err != nil {
					f.logger.WithError(err).WithField("dir", dir).Warn("file_tail collector failed to watch directory for rotation")
				}
				watchedDirs[dir] = true
			}
		}
		f.wg.Add(1)
		go f.watchRotation(watcher)
	}

	for _, path := range f.paths {
		t, err := tail.TailFile(path, tail.Config{
			Follow:   true,
			ReOpen:   true,
			Poll:     false,
			Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		})
		if err != nil {
			f.logger.WithError(err).WithField("path", path).Warn("file_tail collector failed to open file")
			continue
		}
		f.tailers = append(f.tailers, t)
		f.wg.Add(1)
		go f.run(t, path)
	}
	f.logger.WithField("paths", f.paths).Info("file_tail collector watching files")
	return nil
}

func (f *fileTailCollector) watchRotation(watcher *fsnotify.Watcher) {
	defer f.wg.Done()
	watched := make(map[string]bool, len(f.paths))
	for _, p := range f.paths {
		watched[filepath.Clean(p)] = true
	}
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename|fsnotify.Create) != 0 {
				f.logger.WithFields(logrus.Fields{"path": event.Name, "op": event.Op.String()}).Info("file_tail collector observed rotation event")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.WithError(err).Warn("file_tail collector rotation watcher error")
		}
	}
}

func (f *fileTailCollector) run(t *tail.Tail, path string) {
	defer f.wg.Done()
	base := filepath.Base(path)
	for line := range t.Lines {
		if line.Err != nil {
			f.logger.WithError(line.Err).WithField("path", path).Warn("file_tail collector read error")
			continue
		}
		record, err := telemetry.NewLogRecord(line.Text, telemetry.LevelInfo, 0, map[string]string{
			"source":    "file_tail",
			"file_path": path,
			"file_name": base,
		}, nil)
		if err != nil {
			continue
		}
		f.mu.Lock()
		f.buf = append(f.buf, record)
		f.mu.Unlock()
	}
}

func (f *fileTailCollector) Collect(ctx context.Context) (telemetry.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.buf) == 0 {
		return telemetry.Batch{}, nil
	}
	batch := telemetry.Batch{Logs: f.buf}
	f.buf = nil
	return batch, nil
}

func (f *fileTailCollector) Stop() error {
	if f.watcher != nil {
		f.watcher.Close()
	}
	for _, t := range f.tailers {
		t.Stop()
		t.Cleanup()
	}
	f.wg.Wait()
	return nil
}

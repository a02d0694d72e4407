package main

import (
	"github.com/fsnotify/fsnotify"

	"github.com/gensio-go/gensio/internal/gensiolog"
)

// configWatcher reloads configPath into a *ToolConfig whenever fsnotify
// reports a write, grounded in FSNotifyWatcher
// (internal/runtime/vfs/watch_fsnotify.go): a background goroutine draining
// fsnotify's event/error channels, generalized here from a VFS change feed
// to a single config-file reload hook.
type configWatcher struct {
	w    *fsnotify.Watcher
	path string
	log  gensiolog.Logger
	apply func(*ToolConfig)
}

func watchConfig(path string, log gensiolog.Logger, apply func(*ToolConfig)) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(path); err != nil {
		_ = w.Close()

		return nil, err
	}

	cw := &configWatcher{w: w, path: path, log: log, apply: apply}
	go cw.loop()

	return cw, nil
}

func (cw *configWatcher) loop() {
	for {
		select {
		case ev, ok := <-cw.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			cfg, err := loadToolConfig(cw.path)
			if err != nil {
				cw.log.Logf(gensiolog.Warning, "gensiotool: reload %s: %v", cw.path, err)

				continue
			}

			cw.log.Logf(gensiolog.Info, "gensiotool: reloaded %s", cw.path)
			cw.apply(cfg)
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}

			cw.log.Logf(gensiolog.Warning, "gensiotool: watch %s: %v", cw.path, err)
		}
	}
}

func (cw *configWatcher) Close() error { return cw.w.Close() }

package clientconfig

import (
	"github.com/fsnotify/fsnotify"

	"github.com/kubecli/kubecli/internal/kubelog"
)

// Watch observes this Config's kubeconfig files for changes and calls
// onChange whenever one is modified, grounded on the teacher's
// Kubernetes.WatchKubeConfig. It is a no-op for an in-cluster Config
// (no kubeconfig files to watch). The returned closer stops watching;
// callers should hold onto it and call it on shutdown.
func (c *Config) Watch(onChange func()) (closer func() error, err error) {
	if len(c.kubeconfigFiles) == 0 {
		return func() error { return nil }, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, file := range c.kubeconfigFiles {
		_ = watcher.Add(file)
	}

	go func() {
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				kubelog.V(kubelog.VLifecycle).Infof("kubeconfig changed, notifying")
				onChange()
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher.Close, nil
}

package creative_agent

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// CacheWarmer keeps the catalogs of well-known agents in the format cache so
// the first sync after an expiry does not pay for the fetch
type CacheWarmer struct {
	registry  *Registry
	agentURLs []string
	interval  time.Duration
	timeout   time.Duration
	stopChan  chan bool
}

func NewCacheWarmer(registry *Registry, interval time.Duration, agentURLs ...string) *CacheWarmer {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &CacheWarmer{
		registry:  registry,
		agentURLs: agentURLs,
		interval:  interval,
		timeout:   30 * time.Second,
		stopChan:  make(chan bool),
	}
}

// Start starts the warm-up loop
func (w *CacheWarmer) Start() {
	go w.run()
	logrus.Info("Format cache warmer started")
}

// Stop stops the warm-up loop
func (w *CacheWarmer) Stop() {
	w.stopChan <- true
	logrus.Info("Format cache warmer stopped")
}

func (w *CacheWarmer) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.warm()

	for {
		select {
		case <-ticker.C:
			w.warm()
		case <-w.stopChan:
			return
		}
	}
}

// warm refreshes every configured agent; failures are only logged
func (w *CacheWarmer) warm() {
	for _, agentURL := range w.agentURLs {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		formats, err := w.registry.Refresh(ctx, agentURL)
		cancel()
		if err != nil {
			logrus.WithError(err).WithField("agent_url", agentURL).Warn("Failed to warm format cache")
			continue
		}
		logrus.WithFields(logrus.Fields{
			"agent_url": agentURL,
			"formats":   len(formats),
		}).Debug("Format cache warmed")
	}
}

package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mockbank/agente-ia/pkg/domain"
)

// RuleWatcher watches a rule file for changes and delivers freshly parsed
// tables to a reload callback. A file that fails to parse is reported and
// skipped, so the responder keeps serving its previous table.
type RuleWatcher struct {
	rulePath     string
	watcher      *fsnotify.Watcher
	reloadFunc   func(domain.RuleTable) error
	logger       *slog.Logger
	mu           sync.Mutex
	running      bool
	stopCh       chan struct{}
	debounceTime time.Duration
}

// NewRuleWatcher creates a watcher for the given rule file.
func NewRuleWatcher(rulePath string, reloadFunc func(domain.RuleTable) error, logger *slog.Logger) (*RuleWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RuleWatcher{
		rulePath:     rulePath,
		watcher:      watcher,
		reloadFunc:   reloadFunc,
		logger:       logger,
		stopCh:       make(chan struct{}),
		debounceTime: time.Second, // Debounce multiple rapid changes
	}, nil
}

// Start begins watching the rule file for changes.
func (rw *RuleWatcher) Start(ctx context.Context) error {
	rw.mu.Lock()
	if rw.running {
		rw.mu.Unlock()
		return nil
	}
	rw.running = true
	rw.mu.Unlock()

	// Watch the directory rather than the file: editors often write a
	// temp file and rename it over the original.
	ruleDir := filepath.Dir(rw.rulePath)
	if err := rw.watcher.Add(ruleDir); err != nil {
		rw.mu.Lock()
		rw.running = false
		rw.mu.Unlock()
		return err
	}

	rw.logger.Info("rule watcher started", "rule_path", rw.rulePath)

	go rw.watchLoop(ctx)
	return nil
}

// Stop stops the watcher.
func (rw *RuleWatcher) Stop() error {
	rw.mu.Lock()
	if !rw.running {
		rw.mu.Unlock()
		return nil
	}
	rw.running = false
	rw.mu.Unlock()

	close(rw.stopCh)
	return rw.watcher.Close()
}

func (rw *RuleWatcher) watchLoop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rw.stopCh:
			return
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if !rw.isRuleFileEvent(event) {
				continue
			}
			// Reset the debounce timer on every relevant event.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(rw.debounceTime, rw.reload)
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			rw.logger.Error("rule watcher error", "error", err)
		}
	}
}

func (rw *RuleWatcher) isRuleFileEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(rw.rulePath) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (rw *RuleWatcher) reload() {
	table, err := LoadRuleTable(rw.rulePath)
	if err != nil {
		rw.logger.Error("rule file reload failed, keeping previous table",
			"rule_path", rw.rulePath,
			"error", err,
		)
		return
	}
	if err := rw.reloadFunc(table); err != nil {
		rw.logger.Error("rule table swap rejected",
			"rule_path", rw.rulePath,
			"error", err,
		)
		return
	}
	rw.logger.Info("rule table reloaded",
		"rule_path", rw.rulePath,
		"dominio", string(table.Domain),
		"reglas", len(table.Rules),
	)
}

package autosave

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/opencaption/subedit/internal/subtitle"
	"github.com/opencaption/subedit/internal/tabs"
	"github.com/opencaption/subedit/pkg/icron"
	"github.com/opencaption/subedit/pkg/log"
)

// Service periodically writes dirty tabs back to disk. Sweeps are
// collapsed through singleflight so a slow write never stacks up
// behind the next cron tick.
type Service struct {
	registry *tabs.Registry
	writer   subtitle.Writer
	cronExpr string
	cron     *cron.Cron
}

func NewService(registry *tabs.Registry, writer subtitle.Writer, cronExpr string, c *cron.Cron) *Service {
	return &Service{
		registry: registry,
		writer:   writer,
		cronExpr: cronExpr,
		cron:     c,
	}
}

var singleflightGroup singleflight.Group

// Schedule registers the autosave sweep with the cron runner. The
// caller starts and stops the cron instance.
func (s *Service) Schedule(ctx context.Context) error {
	log.Info("Schedule autosave with expression %q", s.cronExpr)

	runFunc := func() {
		_, _, _ = singleflightGroup.Do("autosave", func() (any, error) {
			s.Sweep(ctx)
			return nil, nil
		})
	}
	_, err := s.cron.AddFunc(s.cronExpr, runFunc)
	return err
}

// Status reports when the sweep last ran and will next run, relative
// to the reference time.
func (s *Service) Status(now time.Time) (*icron.TriggerInfo, error) {
	return icron.GetTriggerInfo(s.cronExpr, now)
}

// Sweep writes every dirty tab that has a file path. Tabs without a
// path (never saved) are skipped; they need an explicit save-as.
// Returns the number of tabs written.
func (s *Service) Sweep(ctx context.Context) int {
	saved := 0
	for _, snapshot := range s.registry.DirtyTabs() {
		select {
		case <-ctx.Done():
			return saved
		default:
		}

		if snapshot.FilePath == "" {
			continue
		}
		if err := s.saveTab(snapshot.ID); err != nil {
			log.Error("Autosave of tab %d failed: %v", snapshot.ID, err)
			continue
		}
		saved++
	}
	if saved > 0 {
		log.Info("Autosaved %d tab(s)", saved)
	}
	return saved
}

func (s *Service) saveTab(id int) error {
	content, ok := s.registry.TabContent(id)
	if !ok {
		return fmt.Errorf("tab %d no longer exists", id)
	}
	if err := s.writer.Write(content.FilePath, content.Entries); err != nil {
		return fmt.Errorf("write %s: %w", content.FilePath, err)
	}
	// The write happened outside the registry lock. Confirming against
	// the snapshot revision keeps the tab dirty when an edit landed
	// mid-write, so the next sweep persists it.
	if !s.registry.MarkSavedAt(id, content.Revision) {
		log.Debug("Tab %d changed during autosave write, left dirty", id)
	}
	return nil
}

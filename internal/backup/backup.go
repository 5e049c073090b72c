// Package backup writes timestamped copies of the persisted slots on a cron
// schedule.
package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	appLog "sessioncal/internal/log"
	"sessioncal/internal/persist"
)

// SlotReader is the part of persist.Adapter a snapshot needs.
type SlotReader interface {
	ReadSlot(ctx context.Context, slot string) ([]byte, error)
}

// Snapshotter copies every slot into Dir as <unix>_<slot>.json.
type Snapshotter struct {
	src  SlotReader
	dir  string
	keep int
	now  func() time.Time
}

// NewSnapshotter keeps the newest keep files per slot; keep <= 0 keeps all.
func NewSnapshotter(src SlotReader, dir string, keep int) *Snapshotter {
	return &Snapshotter{src: src, dir: dir, keep: keep, now: time.Now}
}

// Snapshot writes one file per slot and prunes old ones. It returns the
// written paths.
func (s *Snapshotter) Snapshot(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("backup: create dir: %w", err)
	}

	stamp := s.now().Unix()
	written := make([]string, 0, len(persist.Slots))
	var errs []error
	for _, slot := range persist.Slots {
		data, err := s.src.ReadSlot(ctx, slot)
		if err != nil {
			errs = append(errs, fmt.Errorf("backup: read %s: %w", slot, err))
			continue
		}
		path := filepath.Join(s.dir, fileName(stamp, slot))
		if err := persist.WriteFileAtomic(path, data); err != nil {
			errs = append(errs, fmt.Errorf("backup: write %s: %w", slot, err))
			continue
		}
		written = append(written, path)

		if err := s.prune(slot); err != nil {
			errs = append(errs, err)
		}
	}

	appLog.Info("backup snapshot written", "dir", s.dir, "files", len(written))
	return written, errors.Join(errs...)
}

func fileName(stamp int64, slot string) string {
	return strconv.FormatInt(stamp, 10) + "_" + slot + ".json"
}

// List returns the snapshot files of slot, newest first.
func (s *Snapshotter) List(slot string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("backup: list: %w", err)
	}

	type snap struct {
		stamp int64
		name  string
	}
	suffix := "_" + slot + ".json"
	var snaps []snap
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		stamp, err := strconv.ParseInt(strings.TrimSuffix(e.Name(), suffix), 10, 64)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap{stamp: stamp, name: e.Name()})
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].stamp > snaps[j].stamp })

	out := make([]string, len(snaps))
	for i, sn := range snaps {
		out[i] = filepath.Join(s.dir, sn.name)
	}
	return out, nil
}

func (s *Snapshotter) prune(slot string) error {
	if s.keep <= 0 {
		return nil
	}
	files, err := s.List(slot)
	if err != nil || len(files) <= s.keep {
		return err
	}
	var errs []error
	for _, f := range files[s.keep:] {
		if err := os.Remove(f); err != nil {
			errs = append(errs, fmt.Errorf("backup: prune: %w", err))
			continue
		}
		appLog.Debug("backup pruned", "file", f)
	}
	return errors.Join(errs...)
}

// Scheduler runs a Snapshotter on a standard 5-field cron spec.
type Scheduler struct {
	cron *cron.Cron
	snap *Snapshotter
	spec string
}

// NewScheduler validates spec and registers the snapshot job.
func NewScheduler(spec string, snap *Snapshotter) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("backup: schedule %q: %w", spec, err)
	}

	s := &Scheduler{cron: cron.New(), snap: snap, spec: spec}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("backup: schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	if _, err := s.snap.Snapshot(context.Background()); err != nil {
		appLog.Error("backup snapshot failed", err)
	}
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running snapshot to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	appLog.Info("backup scheduler started", "cron", s.spec, "dir", s.snap.dir)
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	appLog.Info("backup scheduler stopped")
	return nil
}

// Next returns the next scheduled run time, or the zero time if not running.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

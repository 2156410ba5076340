// Package watcher polls an inbox directory and converts every timetable
// file that is new or changed since the last cycle.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"tkbconv/internal/config"
	"tkbconv/internal/logging"
	"tkbconv/internal/pipeline"
)

type Service struct {
	cfg     config.Config
	profile config.Profile
	seen    map[string]time.Time
}

func NewService(cfg config.Config, profile config.Profile) *Service {
	return &Service{cfg: cfg, profile: profile, seen: map[string]time.Time{}}
}

type CycleResult struct {
	Converted int
	Failed    int
}

func (s *Service) Run(ctx context.Context) error {
	logger := logging.WithFields(ctx, "dir", s.cfg.WatchDir)
	for {
		res, err := s.RunCycle(ctx)
		if err != nil {
			logger.Error("watch cycle error", "err", err)
		} else if res.Converted > 0 || res.Failed > 0 {
			logger.Info("watch cycle done", "converted", res.Converted, "failed", res.Failed)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalSec) * time.Second):
		}
	}
}

// RunCycle converts pending files once. A file that fails is retried only
// after it changes again.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	pending, err := s.pending()
	if err != nil {
		return CycleResult{}, err
	}

	var res CycleResult
	for _, f := range pending {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		s.seen[f.path] = f.modTime

		runCtx := logging.WithRunID(ctx, uuid.NewString())
		out, err := pipeline.Convert(runCtx, pipeline.ConvertOptions{
			Input:   f.path,
			Output:  pipeline.DefaultOutput(filepath.Join(s.cfg.OutputDir, "watch"), f.path),
			Read:    pipeline.ReadOptions{Sheet: s.cfg.Sheet, HeaderRow: s.cfg.HeaderRow},
			Profile: s.profile,
			Workers: s.cfg.Workers,
		})
		if err != nil {
			res.Failed++
			logging.WithFields(runCtx, "input", f.path).Warn("convert failed", "err", err)
			continue
		}
		res.Converted++
		logging.WithFields(runCtx, "input", f.path).Info("converted", "records", len(out.Batch.Records), "output", out.Output)
	}
	return res, nil
}

type inboxFile struct {
	path    string
	modTime time.Time
}

func (s *Service) pending() ([]inboxFile, error) {
	entries, err := os.ReadDir(s.cfg.WatchDir)
	if err != nil {
		return nil, err
	}

	var out []inboxFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(s.cfg.WatchDir, e.Name())
		if _, err := pipeline.SourceKindFor(path); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if prev, ok := s.seen[path]; ok && !info.ModTime().After(prev) {
			continue
		}
		out = append(out, inboxFile{path: path, modTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

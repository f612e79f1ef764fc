package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/franz/tag-enforcer/internal/config"
	"github.com/franz/tag-enforcer/internal/enforce"
	"github.com/franz/tag-enforcer/internal/prompt"
	"github.com/franz/tag-enforcer/internal/render"
	"github.com/franz/tag-enforcer/internal/report"
	"github.com/franz/tag-enforcer/internal/store"
	"github.com/franz/tag-enforcer/internal/tags"
	"github.com/franz/tag-enforcer/internal/util"
)

// session is everything a plan or commit run needs
type session struct {
	cfg    *config.Config
	paths  config.Paths
	db     *store.Store // nil when the cache could not be opened
	engine *render.Engine
	logger *report.EventLogger
	runID  string
}

// loadConfig decodes the global viper configuration and resolves paths
func loadConfig() (*config.Config, config.Paths, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, config.Paths{}, err
	}
	paths := config.DefaultPaths().Resolve(viper.ConfigFileUsed(), cfg.DB)
	return cfg, paths, nil
}

// openStore opens the cache database. Errors wrap util.ErrCacheUnavailable,
// except a lock held by another process, which is util.ErrConflict.
func openStore(paths config.Paths, networkOptimized bool) (*store.Store, error) {
	if err := paths.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrCacheUnavailable, err)
	}
	db, err := store.OpenWithOptions(paths.DB, &store.OpenOptions{NetworkOptimized: networkOptimized})
	if errors.Is(err, util.ErrConflict) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrCacheUnavailable, err)
	}
	return db, nil
}

// openChoiceCache returns the persistent choice cache, or an in-memory one
// when the database is unavailable. db is nil in the latter case. Only a
// lock held by another process is fatal.
func openChoiceCache(paths config.Paths, networkOptimized bool) (render.ChoiceCache, *store.Store, error) {
	db, err := openStore(paths, networkOptimized)
	if errors.Is(err, util.ErrConflict) {
		return nil, nil, err
	}
	if err != nil {
		util.WarnLog("Falling back to in-memory caches: %v", err)
		return render.NewMemoryCache(), nil, nil
	}
	return db.Choices(), db, nil
}

func newSession() (*session, error) {
	cfg, paths, err := loadConfig()
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, paths: paths, runID: uuid.NewString()}

	cache, db, err := openChoiceCache(paths, cfg.NetworkOptimized)
	if err != nil {
		return nil, err
	}
	s.db = db

	quiet := viper.GetBool("quiet")
	var prompter render.Prompter
	if !quiet {
		if term, ok := prompt.Stdio(); ok {
			prompter = term
		} else {
			util.DebugLog("stdin is not a terminal, running without prompts")
		}
	}

	s.engine = render.New(render.Options{
		Cache:    cache,
		Prompter: prompter,
		Quiet:    quiet,
	})

	// Event logger with appropriate level
	level := report.LevelInfo
	if quiet {
		level = report.LevelWarning
	} else if viper.GetBool("verbose") {
		level = report.LevelDebug
	}
	logger, err := report.NewEventLogger(paths.EventsDir, s.runID, level)
	if err != nil {
		util.WarnLog("Event log disabled: %v", err)
		logger = report.NullLogger()
	}
	s.logger = logger

	return s, nil
}

// changes returns the persistent change cache, or nil without a database
func (s *session) changes() *store.ChangeCache {
	if s.db == nil {
		return nil
	}
	return s.db.Changes()
}

func (s *session) planner(noMove bool, limit int) (*enforce.Planner, error) {
	lib, err := s.cfg.Library()
	if err != nil {
		return nil, err
	}

	cfg := &enforce.PlannerConfig{
		Library:      lib,
		Engine:       s.engine,
		Read:         tags.Read,
		LibraryRoot:  s.cfg.LibraryRoot,
		Templates:    s.cfg.Templates,
		TagMap:       s.cfg.TagMap,
		PathTemplate: s.cfg.FilePath,
		Extension:    s.cfg.Extension,
		Limit:        limit,
		NoMove:       noMove || s.cfg.LibraryRoot == "",
		Logger:       s.logger,
	}
	// A typed nil would hide the missing cache from the planner
	if c := s.changes(); c != nil {
		cfg.Changes = c
	}
	return enforce.NewPlanner(cfg), nil
}

func (s *session) committer(noMove bool) *enforce.Committer {
	cfg := &enforce.CommitterConfig{
		Write:  tags.Write,
		NoMove: noMove,
		Logger: s.logger,
		RunID:  s.runID,
	}
	if c := s.changes(); c != nil {
		cfg.Changes = c
	}
	return enforce.NewCommitter(cfg)
}

func (s *session) Close() {
	s.logger.Close()
	if s.db != nil {
		s.db.Close()
	}
}

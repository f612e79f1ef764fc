package enforce

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/franz/tag-enforcer/internal/meta"
	"github.com/franz/tag-enforcer/internal/render"
	"github.com/franz/tag-enforcer/internal/report"
	"github.com/franz/tag-enforcer/internal/util"
)

// TagReader returns the raw tags of a file
type TagReader func(path string) (meta.RawTags, error)

// ChangeLookup reports whether a file key was already processed
type ChangeLookup interface {
	Has(key string) (bool, error)
}

// Planner works out how each file should be tagged and where it belongs
type Planner struct {
	builder      *meta.Builder
	engine       *render.Engine
	read         TagReader
	changes      ChangeLookup
	libraryRoot  string
	templates    map[string]string
	tagMap       map[string]string
	pathTemplate string
	extension    string
	limit        int
	move         bool
	logger       *report.EventLogger
}

// PlannerConfig holds planner configuration
type PlannerConfig struct {
	Library      *meta.Library
	Engine       *render.Engine
	Read         TagReader
	Changes      ChangeLookup // nil: nothing counts as processed
	LibraryRoot  string
	Templates    map[string]string // logical tag name -> template
	TagMap       map[string]string // logical tag name -> raw tag key
	PathTemplate string            // empty: files are never moved
	Extension    string
	Limit        int  // files to change per run; <= 0 is unlimited
	NoMove       bool // plan tag changes only
	Logger       *report.EventLogger
}

// NewPlanner creates a Planner
func NewPlanner(cfg *PlannerConfig) *Planner {
	if cfg.Extension == "" {
		cfg.Extension = ".mp3"
	}

	return &Planner{
		builder:      meta.NewBuilder(cfg.Library),
		engine:       cfg.Engine,
		read:         cfg.Read,
		changes:      cfg.Changes,
		libraryRoot:  cfg.LibraryRoot,
		templates:    cfg.Templates,
		tagMap:       cfg.TagMap,
		pathTemplate: cfg.PathTemplate,
		extension:    cfg.Extension,
		limit:        cfg.Limit,
		move:         !cfg.NoMove && cfg.PathTemplate != "",
		logger:       cfg.Logger,
	}
}

// PlanResult represents planning results
type PlanResult struct {
	Changes   ChangeSet
	Scanned   int
	Planned   int
	Unchanged int
	Skipped   int // already processed, or needs input in quiet mode
	Failed    int
	Limited   bool // stopped early at the limit
	Errors    []error
}

// Evaluation is everything worked out for one file
type Evaluation struct {
	Path      string
	Raw       meta.RawTags
	Info      *meta.SongInfo
	Tags      map[string]string // rendered, keyed by raw tag key
	IdealPath string            // empty when moves are off
	Change    FileChange        // empty when the file is already clean
}

// Plan evaluates files in order until the limit of changed files is
// reached. Render failures are counted per file and never stop the batch.
func (p *Planner) Plan(ctx context.Context, files []string) (*PlanResult, error) {
	result := &PlanResult{
		Changes: ChangeSet{},
		Errors:  make([]error, 0),
	}

	for _, path := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if p.limit > 0 && result.Planned >= p.limit {
			result.Limited = true
			util.InfoLog("Reached limit of %d files, stopping", p.limit)
			break
		}
		result.Scanned++

		key := util.FileKey(path)
		if p.changes != nil {
			done, err := p.changes.Has(key)
			if err != nil {
				util.WarnLog("Change cache lookup failed for %s: %v", path, err)
			} else if done {
				result.Skipped++
				p.logger.LogSkip(path, "already processed")
				continue
			}
		}

		ev, err := p.Evaluate(path)
		if err != nil {
			if errors.Is(err, util.ErrInputRequired) {
				result.Skipped++
				util.WarnLog("Skipping %s: %v", path, err)
				p.logger.LogSkip(path, err.Error())
				continue
			}
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
			util.ErrorLog("Failed to plan %s: %v", path, err)
			p.logger.LogError(report.EventPlan, path, err)
			continue
		}

		if len(ev.Change) == 0 {
			result.Unchanged++
			p.logger.LogSkip(path, "unchanged")
			continue
		}

		result.Planned++
		result.Changes.Add(ev.Info.Artist, ev.Info.ReleaseTitle, path, ev.Change)
		p.logger.LogPlan(key, path, ev.IdealPath, ev.Change.Tags())
		util.DebugLog("Planned %d change(s) for %s", len(ev.Change), path)
	}

	return result, nil
}

// Evaluate reads, builds, renders and diffs a single file
func (p *Planner) Evaluate(path string) (*Evaluation, error) {
	raw, err := p.read(path)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}

	info := p.builder.Build(raw)

	tags, err := p.engine.RenderTags(p.templates, p.tagMap, info)
	if err != nil {
		return nil, err
	}

	ev := &Evaluation{
		Path:   path,
		Raw:    raw,
		Info:   info,
		Tags:   tags,
		Change: FileChange{},
	}

	for key, now := range tags {
		if old := raw[key]; old != now {
			ev.Change[key] = TagChange{Old: old, Now: now}
		}
	}

	if p.move {
		ideal, err := p.IdealPath(info)
		if err != nil {
			return nil, err
		}
		ev.IdealPath = ideal
		if filepath.Clean(path) != ideal {
			ev.Change[PathKey] = TagChange{Old: path, Now: ideal}
		}
	}

	return ev, nil
}

// IdealPath is the library root joined with the rendered path template
// and the extension
func (p *Planner) IdealPath(info *meta.SongInfo) (string, error) {
	rel, err := p.engine.RenderPath(p.pathTemplate, info)
	if err != nil {
		return "", err
	}
	return filepath.Join(p.libraryRoot, filepath.FromSlash(rel)+p.extension), nil
}

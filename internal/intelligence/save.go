package intelligence

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/oneview-energy/oneview/internal/observability"
	"github.com/oneview-energy/oneview/internal/upstream"
)

// Saver is the persistence slice of the upstream contract the orchestrator
// needs.
type Saver interface {
	UpdateProjectData(ctx context.Context, table string, projectID int64, record map[string]any) error
	UpdateFinanceSubmodule(ctx context.Context, submodule string, projectID int64, save upstream.SubmoduleSave) error
}

// SaveResult reports the outcome of one save pass: groups persisted, groups
// that failed with their errors, and edits that could not be mapped to a
// group at all.
type SaveResult struct {
	Saved   []string       `json:"saved"`
	Failed  []GroupFailure `json:"failed,omitempty"`
	Skipped []SkippedEdit  `json:"skipped,omitempty"`
}

// GroupFailure pairs a save group with the error that rejected it.
type GroupFailure struct {
	GroupKey string `json:"group_key"`
	Module   string `json:"module"`
	Error    string `json:"error"`
}

// Ok reports whether every group persisted.
func (r SaveResult) Ok() bool {
	return len(r.Failed) == 0
}

// Orchestrator turns tracked edits into upstream writes. Rows are regenerated
// from the current snapshot immediately before mapping, so record identities
// are never resolved against stale renders.
type Orchestrator struct {
	registry *Registry
	saver    Saver
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewOrchestrator constructs a save orchestrator. metrics may be nil.
func NewOrchestrator(registry *Registry, saver Saver, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{registry: registry, saver: saver, logger: logger, metrics: metrics}
}

// Save maps the tracker's pending edits onto save groups and dispatches them
// concurrently, one group per upstream call. Edits stay in the tracker for
// any module whose groups did not all persist, so a retry re-sends exactly
// what is still unsaved.
func (o *Orchestrator) Save(ctx context.Context, state *State, projects []upstream.Project, snap upstream.Snapshot, tracker *Tracker) SaveResult {
	var result SaveResult

	type moduleGroups struct {
		module string
		groups []SaveGroup
	}
	var pending []moduleGroups

	for _, module := range pageOrdered(state) {
		edits := tracker.Module(module)
		if len(edits) == 0 {
			continue
		}
		desc, ok := o.registry.Get(module)
		if !ok {
			continue
		}
		rows := ModuleRows(o.registry, state, projects, snap, module)
		groups, skipped := desc.BuildSaveGroups(rows, edits)
		result.Skipped = append(result.Skipped, skipped...)
		if len(groups) > 0 {
			pending = append(pending, moduleGroups{module: module, groups: groups})
		} else if len(skipped) == len(edits) {
			// Nothing mappable: drop the dead edits rather than retrying
			// them forever.
			tracker.Remove(module)
		}
	}

	type outcome struct {
		group SaveGroup
		err   error
	}
	var (
		outcomes []outcome
		g        errgroup.Group
	)
	g.SetLimit(4)
	results := make(chan outcome)
	done := make(chan struct{})
	go func() {
		for out := range results {
			outcomes = append(outcomes, out)
		}
		close(done)
	}()
	for _, mg := range pending {
		for _, group := range mg.groups {
			group := group
			g.Go(func() error {
				err := o.dispatch(ctx, group)
				o.metrics.ObserveSaveGroup(group.Module, err)
				results <- outcome{group: group, err: err}
				return nil
			})
		}
	}
	_ = g.Wait()
	close(results)
	<-done

	failedModules := make(map[string]bool)
	for _, out := range outcomes {
		if out.err != nil {
			o.logger.Error("save group failed",
				slog.String("group", out.group.GroupKey),
				slog.String("module", out.group.Module),
				slog.Any("error", out.err))
			result.Failed = append(result.Failed, GroupFailure{
				GroupKey: out.group.GroupKey,
				Module:   out.group.Module,
				Error:    out.err.Error(),
			})
			failedModules[out.group.Module] = true
			continue
		}
		result.Saved = append(result.Saved, out.group.GroupKey)
	}
	sort.Strings(result.Saved)
	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].GroupKey < result.Failed[j].GroupKey
	})

	// Clear edits only for modules that saved cleanly; failed modules keep
	// theirs for retry.
	for _, mg := range pending {
		if !failedModules[mg.module] {
			tracker.Remove(mg.module)
		}
	}
	return result
}

func (o *Orchestrator) dispatch(ctx context.Context, group SaveGroup) error {
	if group.Submodule != "" {
		return o.saver.UpdateFinanceSubmodule(ctx, group.Submodule, group.ProjectID, group.Save)
	}
	return o.saver.UpdateProjectData(ctx, group.Table, group.ProjectID, group.Record)
}

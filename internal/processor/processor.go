// Package processor materializes task instances from recurring templates.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/chore"
	"github.com/dukerupert/housemood/internal/model"
	"github.com/dukerupert/housemood/internal/recurrence"
)

// Repository is the storage the processor needs.
type Repository interface {
	ListActiveTemplates(ctx context.Context) ([]model.TemplateWithFamily, error)
	// GetSpot returns nil when the spot does not exist.
	GetSpot(ctx context.Context, id uuid.UUID) (*model.SpotWithFamily, error)
	ListOpenInstances(ctx context.Context, templateID uuid.UUID) ([]model.TaskInstance, error)
	// CreateInstance fails with chore.ErrConflict when the template already
	// has an open instance.
	CreateInstance(ctx context.Context, inst model.TaskInstance) error
}

type Assigner interface {
	SelectAssignee(ctx context.Context, tmpl model.TemplateWithFamily, spot model.SpotWithFamily) (*uuid.UUID, error)
}

// Processor runs one scheduling pass per window.
type Processor struct {
	repo      Repository
	evaluator *recurrence.Evaluator
	assigner  Assigner
	factory   *chore.Factory
	logger    *slog.Logger

	// Now stamps CreatedAt on new instances.
	Now func() time.Time
}

func New(repo Repository, evaluator *recurrence.Evaluator, assigner Assigner, factory *chore.Factory, logger *slog.Logger) *Processor {
	if evaluator == nil {
		evaluator = recurrence.NewEvaluator(nil, logger)
	}
	if factory == nil {
		factory = chore.NewFactory()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:      repo,
		evaluator: evaluator,
		assigner:  assigner,
		factory:   factory,
		logger:    logger,
		Now:       time.Now,
	}
}

// Run creates an instance for every active template whose schedule fires in
// (from, to]. A template that fails does not stop the others; their errors
// are joined and returned alongside the number of instances created.
func (p *Processor) Run(ctx context.Context, from, to time.Time) (int, error) {
	templates, err := p.repo.ListActiveTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active templates: %w", err)
	}

	var (
		created int
		errs    []error
	)
	for _, tmpl := range templates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ok, err := p.processTemplate(ctx, tmpl, from, to)
		if err != nil {
			p.logger.Error("process template", "template_id", tmpl.Template.ID, "error", err)
			errs = append(errs, fmt.Errorf("template %s: %w", tmpl.Template.ID, err))
			continue
		}
		if ok {
			created++
		}
	}

	p.logger.Info("scheduling pass", "from", from, "to", to, "templates", len(templates), "created", created)
	return created, errors.Join(errs...)
}

func (p *Processor) processTemplate(ctx context.Context, tmpl model.TemplateWithFamily, from, to time.Time) (bool, error) {
	t := tmpl.Template
	trigger, fires := p.evaluator.ShouldTriggerInWindow(t.Schedule, from, to, tmpl.Family.Timezone)
	if !fires {
		return false, nil
	}

	spot, err := p.repo.GetSpot(ctx, t.SpotID)
	if err != nil {
		return false, fmt.Errorf("get spot: %w", err)
	}
	if spot == nil {
		p.logger.Warn("template spot not found", "template_id", t.ID, "spot_id", t.SpotID)
		return false, nil
	}

	open, err := p.repo.ListOpenInstances(ctx, t.ID)
	if err != nil {
		return false, fmt.Errorf("list open instances: %w", err)
	}
	if len(open) > 0 {
		p.logger.Info("open instance exists, skipping", "template_id", t.ID, "instance_id", open[0].ID)
		return false, nil
	}

	dueAt := trigger.Add(t.DueDuration)

	assignee, err := p.assigner.SelectAssignee(ctx, tmpl, *spot)
	if err != nil {
		return false, fmt.Errorf("select assignee: %w", err)
	}

	inst, err := p.factory.CreateFromTemplate(t, dueAt, open, assignee, p.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("build instance: %w", err)
	}

	if err := p.repo.CreateInstance(ctx, inst); err != nil {
		if errors.Is(err, chore.ErrConflict) {
			p.logger.Info("occurrence already scheduled, skipping", "template_id", t.ID, "due_at", dueAt)
			return false, nil
		}
		return false, fmt.Errorf("create instance: %w", err)
	}

	p.logger.Debug("instance created", "template_id", t.ID, "instance_id", inst.ID, "due_at", dueAt, "assigned_to", assignee)
	return true, nil
}

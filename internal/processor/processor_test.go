package processor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/housemood/internal/chore"
	"github.com/dukerupert/housemood/internal/model"
	"github.com/dukerupert/housemood/internal/recurrence"
)

// memRepo is an in-memory Repository with per-method failure injection.
type memRepo struct {
	templates []model.TemplateWithFamily
	spots     map[uuid.UUID]model.SpotWithFamily
	instances []model.TaskInstance

	spotErr   map[uuid.UUID]error
	createErr error
}

func (r *memRepo) ListActiveTemplates(context.Context) ([]model.TemplateWithFamily, error) {
	return r.templates, nil
}

func (r *memRepo) GetSpot(_ context.Context, id uuid.UUID) (*model.SpotWithFamily, error) {
	if err := r.spotErr[id]; err != nil {
		return nil, err
	}
	s, ok := r.spots[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memRepo) ListOpenInstances(_ context.Context, templateID uuid.UUID) ([]model.TaskInstance, error) {
	var out []model.TaskInstance
	for _, inst := range r.instances {
		if inst.TemplateID != nil && *inst.TemplateID == templateID && inst.Status.Open() {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (r *memRepo) CreateInstance(_ context.Context, inst model.TaskInstance) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.instances {
		if existing.TemplateID != nil && inst.TemplateID != nil &&
			*existing.TemplateID == *inst.TemplateID && existing.DueAt.Equal(inst.DueAt) {
			return chore.ErrConflict
		}
	}
	r.instances = append(r.instances, inst)
	return nil
}

type fixedAssigner struct {
	id  *uuid.UUID
	err error
}

func (a fixedAssigner) SelectAssignee(context.Context, model.TemplateWithFamily, model.SpotWithFamily) (*uuid.UUID, error) {
	return a.id, a.err
}

var (
	family  = model.Family{ID: uuid.New(), Name: "Smiths", Timezone: "UTC"}
	created = time.Date(2026, 1, 5, 18, 30, 0, 0, time.UTC)
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupProcessor(repo *memRepo, assigner Assigner) *Processor {
	logger := quietLogger()
	p := New(repo, recurrence.NewEvaluator(nil, logger), assigner, chore.NewFactory(), logger)
	p.Now = func() time.Time { return created }
	return p
}

func addTemplate(repo *memRepo, rule string) model.TaskTemplate {
	spot := model.Spot{ID: uuid.New(), FamilyID: family.ID, Type: model.SpotArea, Name: "Kitchen", MoodScore: 100}
	if repo.spots == nil {
		repo.spots = map[uuid.UUID]model.SpotWithFamily{}
	}
	repo.spots[spot.ID] = model.SpotWithFamily{Spot: spot, Family: family}

	tmpl := model.TaskTemplate{
		ID:          uuid.New(),
		FamilyID:    family.ID,
		SpotID:      spot.ID,
		Title:       "Dishes",
		Points:      5,
		Schedule:    rule,
		DueDuration: 2 * time.Hour,
		Active:      true,
	}
	repo.templates = append(repo.templates, model.TemplateWithFamily{Template: tmpl, Family: family})
	return tmpl
}

func TestRunIsIdempotent(t *testing.T) {
	repo := &memRepo{}
	tmpl := addTemplate(repo, "TYPE=DAILY;AT=19:00")
	member := uuid.New()
	p := setupProcessor(repo, fixedAssigner{id: &member})

	from := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 5, 20, 0, 0, 0, time.UTC)

	n, err := p.Run(context.Background(), from, to)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if n != 1 {
		t.Fatalf("first run created %d, want 1", n)
	}

	n, err = p.Run(context.Background(), from, to)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n != 0 {
		t.Errorf("second run created %d, want 0", n)
	}

	if len(repo.instances) != 1 {
		t.Fatalf("instances = %d, want 1", len(repo.instances))
	}
	inst := repo.instances[0]
	wantDue := time.Date(2026, 1, 5, 21, 0, 0, 0, time.UTC)
	if !inst.DueAt.Equal(wantDue) {
		t.Errorf("DueAt = %v, want %v", inst.DueAt, wantDue)
	}
	if inst.TemplateID == nil || *inst.TemplateID != tmpl.ID {
		t.Errorf("TemplateID = %v, want %v", inst.TemplateID, tmpl.ID)
	}
	if inst.AssignedTo == nil || *inst.AssignedTo != member {
		t.Errorf("AssignedTo = %v, want %v", inst.AssignedTo, member)
	}
	if inst.Status != model.TaskActive {
		t.Errorf("Status = %q, want %q", inst.Status, model.TaskActive)
	}
	if !inst.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", inst.CreatedAt, created)
	}
}

func TestRunMinuteTicks(t *testing.T) {
	repo := &memRepo{}
	addTemplate(repo, "TYPE=DAILY;AT=19:00")
	p := setupProcessor(repo, fixedAssigner{})

	start := time.Date(2026, 1, 5, 18, 50, 0, 0, time.UTC)
	total := 0
	for i := 0; i < 20; i++ {
		from := start.Add(time.Duration(i) * time.Minute)
		n, err := p.Run(context.Background(), from, from.Add(time.Minute))
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		total += n
	}
	if total != 1 {
		t.Errorf("created %d over 20 ticks, want 1", total)
	}
}

func TestRunSkipsUntilCompleted(t *testing.T) {
	repo := &memRepo{}
	addTemplate(repo, "TYPE=DAILY;AT=19:00")
	p := setupProcessor(repo, fixedAssigner{})

	day1 := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
	if n, _ := p.Run(context.Background(), day1, day1.Add(2*time.Hour)); n != 1 {
		t.Fatalf("day 1 created %d, want 1", n)
	}

	day2 := day1.Add(24 * time.Hour)
	if n, _ := p.Run(context.Background(), day2, day2.Add(2*time.Hour)); n != 0 {
		t.Fatalf("day 2 created %d while day 1 is open, want 0", n)
	}

	repo.instances[0].Status = model.TaskCompleted
	day3 := day2.Add(24 * time.Hour)
	if n, _ := p.Run(context.Background(), day3, day3.Add(2*time.Hour)); n != 1 {
		t.Errorf("day 3 created %d after completion, want 1", n)
	}
}

func TestRunDoesNotRecreateCompletedOccurrence(t *testing.T) {
	repo := &memRepo{}
	addTemplate(repo, "TYPE=DAILY;AT=19:00")
	p := setupProcessor(repo, fixedAssigner{})

	from := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 5, 20, 0, 0, 0, time.UTC)
	if n, err := p.Run(context.Background(), from, to); err != nil || n != 1 {
		t.Fatalf("first run = (%d, %v), want (1, nil)", n, err)
	}

	repo.instances[0].Status = model.TaskCompleted
	for _, end := range []time.Time{to, to.Add(time.Minute), to.Add(time.Hour)} {
		n, err := p.Run(context.Background(), from, end)
		if err != nil {
			t.Fatalf("rerun to %v: %v", end, err)
		}
		if n != 0 {
			t.Errorf("rerun to %v created %d, want 0", end, n)
		}
	}
	if len(repo.instances) != 1 {
		t.Errorf("instances = %d, want 1", len(repo.instances))
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	repo := &memRepo{}
	broken := addTemplate(repo, "TYPE=DAILY;AT=19:00")
	addTemplate(repo, "TYPE=BOGUS")
	missing := addTemplate(repo, "TYPE=DAILY;AT=19:00")
	delete(repo.spots, missing.SpotID)
	healthy := addTemplate(repo, "TYPE=DAILY;AT=19:00")

	boom := errors.New("database is locked")
	repo.spotErr = map[uuid.UUID]error{broken.SpotID: boom}

	p := setupProcessor(repo, fixedAssigner{})
	from := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)

	n, err := p.Run(context.Background(), from, from.Add(2*time.Hour))
	if n != 1 {
		t.Errorf("created %d, want 1", n)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want it to wrap %v", err, boom)
	}
	if len(repo.instances) != 1 || *repo.instances[0].TemplateID != healthy.ID {
		t.Errorf("instances = %+v, want one for the healthy template", repo.instances)
	}
}

func TestRunAssignerError(t *testing.T) {
	repo := &memRepo{}
	addTemplate(repo, "TYPE=DAILY;AT=19:00")
	boom := errors.New("history unavailable")
	p := setupProcessor(repo, fixedAssigner{err: boom})

	from := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
	n, err := p.Run(context.Background(), from, from.Add(2*time.Hour))
	if n != 0 || !errors.Is(err, boom) {
		t.Errorf("Run = (%d, %v), want (0, %v)", n, err, boom)
	}
	if len(repo.instances) != 0 {
		t.Error("no instance should be persisted when assignment fails")
	}
}

func TestRunTreatsStoreConflictAsSkip(t *testing.T) {
	repo := &memRepo{createErr: chore.ErrConflict}
	addTemplate(repo, "TYPE=DAILY;AT=19:00")
	p := setupProcessor(repo, fixedAssigner{})

	from := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
	n, err := p.Run(context.Background(), from, from.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 0 {
		t.Errorf("created %d, want 0", n)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	repo := &memRepo{}
	addTemplate(repo, "TYPE=DAILY;AT=19:00")
	p := setupProcessor(repo, fixedAssigner{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	from := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
	n, err := p.Run(ctx, from, from.Add(2*time.Hour))
	if n != 0 || !errors.Is(err, context.Canceled) {
		t.Errorf("Run = (%d, %v), want (0, context.Canceled)", n, err)
	}
}

package media

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/catalog"
)

// defaultPlan is used for owners whose plan has no configured limit.
const defaultPlan = "free"

// CreateRequest creates one record with its assets.
type CreateRequest struct {
	OwnerID     string
	Title       string
	Platform    string
	Publisher   string
	ReleaseYear int
	Assets      Assets
}

// Coordinator creates records. Assets are uploaded before validation; any
// later failure deletes exactly the assets this request uploaded.
type Coordinator struct {
	d Deps
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(d Deps) *Coordinator {
	return &Coordinator{d: d.withDefaults()}
}

// Create uploads the request's assets, validates, checks the owner's quota
// and persists the record. On failure the returned error is always the one
// that stopped the create, never a cleanup error.
func (c *Coordinator) Create(ctx context.Context, req CreateRequest) (_ *catalog.Record, err error) {
	if err := req.Assets.check(); err != nil {
		return nil, err
	}
	owner, folder, err := c.d.ownerFolder(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	s := c.d.newSaga(folder)
	defer func() {
		if err != nil {
			s.compensate(ctx, err)
		}
	}()

	up, err := s.uploadAll(ctx, req.Assets)
	if err != nil {
		return nil, err
	}

	rec := catalog.Record{
		OwnerID:     owner.ID,
		Title:       strings.TrimSpace(req.Title),
		Platform:    strings.TrimSpace(req.Platform),
		Publisher:   strings.TrimSpace(req.Publisher),
		ReleaseYear: req.ReleaseYear,
		Cover:       up.cover,
		BackCover:   up.backCover,
		Screenshots: up.screenshots,
	}
	if fields := rec.Validate(); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}
	if err = c.d.checkQuota(ctx, owner); err != nil {
		return nil, err
	}
	if err = c.d.Records.CreateRecord(ctx, &rec); err != nil {
		return nil, persistErr(err)
	}

	c.d.Log.Info("record created",
		zap.String("record", rec.ID),
		zap.String("owner", owner.ID),
		zap.Int("assets", req.Assets.Count()))
	return &rec, nil
}

// checkQuota fails when the owner already holds as many records as the plan
// allows. Unknown plans fall back to the default plan; with neither
// configured, or a negative limit, the owner is unlimited.
func (d Deps) checkQuota(ctx context.Context, owner *catalog.Owner) error {
	plan := strings.ToLower(owner.Plan)
	limit, ok := d.Plans[plan]
	if !ok {
		plan = defaultPlan
		limit, ok = d.Plans[plan]
	}
	if !ok || limit < 0 {
		return nil
	}

	n, err := d.Records.CountByOwner(ctx, owner.ID)
	if err != nil {
		return PersistenceError.Wrap(err)
	}
	if n >= limit {
		return &QuotaError{Plan: plan, Current: n, Limit: limit}
	}
	return nil
}

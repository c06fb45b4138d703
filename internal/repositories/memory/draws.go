package memory

import (
	"context"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type drawRepo struct{ s *Store }

func (r *drawRepo) Create(ctx context.Context, draw *models.DrawRecord) error {
	defer r.s.lock(ctx)()
	if draw.ID.IsZero() {
		draw.ID = primitive.NewObjectID()
	}
	for _, existing := range r.s.draws {
		if existing.DrawRef == draw.DrawRef {
			return repositories.ErrDuplicateKey
		}
	}
	r.s.draws = append(r.s.draws, cloneDraw(draw))
	return nil
}

func (r *drawRepo) FindLatestByCompetition(ctx context.Context, competitionID primitive.ObjectID) (*models.DrawRecord, error) {
	defer r.s.lock(ctx)()
	for i := len(r.s.draws) - 1; i >= 0; i-- {
		if r.s.draws[i].CompetitionID == competitionID {
			return cloneDraw(r.s.draws[i]), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *drawRepo) FindByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.DrawRecord, error) {
	defer r.s.lock(ctx)()
	result := []*models.DrawRecord{}
	for _, d := range r.s.draws {
		if d.CompetitionID == competitionID {
			result = append(result, cloneDraw(d))
		}
	}
	return result, nil
}

func (r *drawRepo) Void(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error {
	defer r.s.lock(ctx)()
	for _, d := range r.s.draws {
		if d.ID != id {
			continue
		}
		if d.Status != models.DrawStatusCompleted {
			return repositories.ErrConditionFailed
		}
		voidedAt := at
		d.Status = models.DrawStatusVoided
		d.VoidReason = reason
		d.VoidedAt = &voidedAt
		return nil
	}
	return repositories.ErrNotFound
}

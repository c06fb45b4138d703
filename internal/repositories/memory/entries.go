package memory

import (
	"context"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/ArowuTest/competitions-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type entryRepo struct{ s *Store }

// Create enforces the same uniqueness the MongoDB indexes do: a ticket number
// belongs to one entry per competition, and a payment reference is used once
// per competition.
func (r *entryRepo) Create(ctx context.Context, entry *models.Entry) error {
	defer r.s.lock(ctx)()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, exists := r.s.entries[entry.ID]; exists {
		return repositories.ErrDuplicateKey
	}
	if entry.PaymentReference != "" {
		for _, existing := range r.s.entries {
			if existing.PaymentReference == entry.PaymentReference && existing.CompetitionID == entry.CompetitionID {
				return repositories.ErrDuplicateKey
			}
		}
	}
	issued := r.s.issued[entry.CompetitionID]
	if issued == nil {
		issued = make(map[int]primitive.ObjectID)
		r.s.issued[entry.CompetitionID] = issued
	}
	for _, n := range entry.TicketNumbers {
		if _, taken := issued[n]; taken {
			return repositories.ErrDuplicateKey
		}
	}
	for _, n := range entry.TicketNumbers {
		issued[n] = entry.ID
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.s.entries[entry.ID] = cloneEntry(entry)
	r.s.entryOrder = append(r.s.entryOrder, entry.ID)
	return nil
}

func (r *entryRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Entry, error) {
	defer r.s.lock(ctx)()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (r *entryRepo) FindByPaymentReference(ctx context.Context, paymentReference string) ([]*models.Entry, error) {
	defer r.s.lock(ctx)()
	result := []*models.Entry{}
	for _, id := range r.s.entryOrder {
		if e := r.s.entries[id]; e.PaymentReference == paymentReference {
			result = append(result, cloneEntry(e))
		}
	}
	return result, nil
}

// FindCompletedByCompetition relies on entryOrder, which is insertion order
// and therefore (createdAt, _id) order.
func (r *entryRepo) FindCompletedByCompetition(ctx context.Context, competitionID primitive.ObjectID) ([]*models.Entry, error) {
	defer r.s.lock(ctx)()
	result := []*models.Entry{}
	for _, id := range r.s.entryOrder {
		e := r.s.entries[id]
		if e.CompetitionID == competitionID && e.PaymentStatus == models.PaymentStatusCompleted {
			result = append(result, cloneEntry(e))
		}
	}
	return result, nil
}

func (r *entryRepo) SetSettlement(ctx context.Context, id primitive.ObjectID, settlement *models.Settlement) error {
	defer r.s.lock(ctx)()
	e, ok := r.s.entries[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if e.Settlement != nil {
		return repositories.ErrConditionFailed
	}
	stored := *settlement
	stored.Results = append([]models.WinResult(nil), settlement.Results...)
	e.Settlement = &stored
	return nil
}

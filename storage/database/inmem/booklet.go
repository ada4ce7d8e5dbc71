package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/workbook/core/booklet"
)

type bookletRepository struct {
	db *bookletTable
}

var _ booklet.Repository = (*bookletRepository)(nil) // interface compliance check

func NewBookletRepository(db *DB) *bookletRepository {
	return &bookletRepository{db: db.booklet}
}

func (repo *bookletRepository) find(match func(b *booklet.Booklet) bool) *booklet.Booklet {
	for _, b := range repo.db.table {
		if match(b) {
			return b
		}
	}
	return nil
}

func (repo *bookletRepository) CreateBooklet(_ context.Context, b booklet.Booklet) (booklet.Booklet, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	taken := repo.find(func(other *booklet.Booklet) bool {
		return other.Payload == b.Payload || (other.StudentID == b.StudentID && other.MaterialID == b.MaterialID)
	})
	if taken != nil {
		return booklet.Booklet{}, booklet.ErrConflict
	}

	b.ID = uuid.New().String()
	repo.db.table[b.ID] = &b
	return b, nil
}

func (repo *bookletRepository) GetBooklet(_ context.Context, id string) (booklet.Booklet, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b, ok := repo.db.table[id]; ok {
		return *b, nil
	}
	return booklet.Booklet{}, booklet.ErrNotFound
}

func (repo *bookletRepository) GetBookletByPayload(_ context.Context, payload string) (booklet.Booklet, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b := repo.find(func(b *booklet.Booklet) bool { return b.Payload == payload }); b != nil {
		return *b, nil
	}
	return booklet.Booklet{}, booklet.ErrNotFound
}

func (repo *bookletRepository) GetBookletByPair(_ context.Context, studentID, materialID string) (booklet.Booklet, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if b := repo.find(func(b *booklet.Booklet) bool { return b.StudentID == studentID && b.MaterialID == materialID }); b != nil {
		return *b, nil
	}
	return booklet.Booklet{}, booklet.ErrNotFound
}

func (repo *bookletRepository) UpdateBookletPayload(_ context.Context, id, payload string, updatedAt time.Time) (booklet.Booklet, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	b, ok := repo.db.table[id]
	if !ok {
		return booklet.Booklet{}, booklet.ErrNotFound
	}
	if repo.find(func(other *booklet.Booklet) bool { return other.ID != id && other.Payload == payload }) != nil {
		return booklet.Booklet{}, booklet.ErrConflict
	}
	b.Payload = payload
	b.UpdatedAt = updatedAt
	return *b, nil
}

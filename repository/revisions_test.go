package repository

import (
	"context"
	"testing"

	"cfss-backend/models"
	"cfss-backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	projects map[string]*models.Project
}

func (m *memoryStore) Get(ctx context.Context, id string) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, storage.ErrProjectNotFound
	}
	cp := *p
	cp.WallRevisions = append([]models.Revision(nil), p.WallRevisions...)
	return &cp, nil
}

func (m *memoryStore) AppendRevision(ctx context.Context, id string, rev models.Revision, limit int) error {
	p, ok := m.projects[id]
	if !ok {
		return storage.ErrProjectNotFound
	}
	if len(p.WallRevisions) >= limit {
		return storage.ErrRevisionsFull
	}
	p.WallRevisions = append(p.WallRevisions, rev)
	return nil
}

func TestRevisionCap(t *testing.T) {
	store := &memoryStore{projects: map[string]*models.Project{
		"p1": {ID: "p1", Walls: []models.Wall{{ID: 1, Name: "M1"}}},
	}}
	repo := NewRevisionRepository(store)
	user := models.UserInfo{Email: "eng@firm.ca"}

	for i := 1; i <= MaxRevisions; i++ {
		rev, err := repo.Add(context.Background(), "p1", "issue", nil, user)
		require.NoError(t, err)
		assert.Equal(t, i, rev.Number)
		assert.Equal(t, "M1", rev.Walls[0].Name)
	}

	_, err := repo.Add(context.Background(), "p1", "one too many", nil, user)
	assert.ErrorIs(t, err, ErrRevisionLimit)
	assert.Len(t, store.projects["p1"].WallRevisions, MaxRevisions)
}

func TestRevisionCapRaceMapsToLimit(t *testing.T) {
	store := &racingStore{memoryStore: memoryStore{projects: map[string]*models.Project{"p1": {ID: "p1"}}}}
	_, err := NewRevisionRepository(store).Add(context.Background(), "p1", "", nil, models.UserInfo{})
	assert.ErrorIs(t, err, ErrRevisionLimit)
}

type racingStore struct{ memoryStore }

func (r *racingStore) AppendRevision(ctx context.Context, id string, rev models.Revision, limit int) error {
	return storage.ErrRevisionsFull
}

func TestAddRevisionUnknownProject(t *testing.T) {
	repo := NewRevisionRepository(&memoryStore{projects: map[string]*models.Project{}})
	_, err := repo.Add(context.Background(), "nope", "", nil, models.UserInfo{})
	assert.ErrorIs(t, err, storage.ErrProjectNotFound)
}

func TestRevisionsForReport(t *testing.T) {
	revs := []models.Revision{{Number: 3}, {Number: 1}, {Number: 2}, {Number: 7}}

	got := RevisionsForReport(revs, 0)
	require.Len(t, got, 4)
	assert.Equal(t, []int{1, 2, 3, 7}, numbers(got))

	assert.Equal(t, []int{1, 2}, numbers(RevisionsForReport(revs, 2)))
	assert.Equal(t, 8, NextRevisionNumber(revs))
	assert.Equal(t, 1, NextRevisionNumber(nil))
	assert.Equal(t, "RV-03", GenerateVersionCode(3))
}

func TestRevisionsForReportKeepsLatest(t *testing.T) {
	var revs []models.Revision
	for n := 7; n >= 1; n-- {
		revs = append(revs, models.Revision{Number: n})
	}

	assert.Equal(t, []int{3, 4, 5, 6, 7}, numbers(RevisionsForReport(revs, 0)))
	assert.Equal(t, []int{2, 3, 4, 5, 6}, numbers(RevisionsForReport(revs, 6)))
}

func numbers(revs []models.Revision) []int {
	out := make([]int, len(revs))
	for i, r := range revs {
		out[i] = r.Number
	}
	return out
}

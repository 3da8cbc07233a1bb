package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cfss-backend/models"
	"cfss-backend/storage"

	"github.com/google/uuid"
)

// MaxRevisions is the number of revision rows on the cover page.
const MaxRevisions = 5

var ErrRevisionLimit = fmt.Errorf("a project holds at most %d revisions", MaxRevisions)

// RevisionStore is the project persistence used for revisions.
type RevisionStore interface {
	Get(ctx context.Context, id string) (*models.Project, error)
	AppendRevision(ctx context.Context, id string, rev models.Revision, limit int) error
}

type RevisionRepository struct {
	store RevisionStore
	now   func() time.Time
}

func NewRevisionRepository(store RevisionStore) *RevisionRepository {
	return &RevisionRepository{store: store, now: time.Now}
}

// Add snapshots walls as the next revision of the project. When walls is nil
// the project's current walls are used.
func (r *RevisionRepository) Add(ctx context.Context, projectID, description string, walls []models.Wall, user models.UserInfo) (*models.Revision, error) {
	project, err := r.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(project.WallRevisions) >= MaxRevisions {
		return nil, ErrRevisionLimit
	}
	if walls == nil {
		walls = project.Walls
	}

	rev := models.Revision{
		ID:          uuid.NewString(),
		Number:      NextRevisionNumber(project.WallRevisions),
		Description: strings.TrimSpace(description),
		CreatedAt:   r.now().UTC(),
		CreatedBy:   user.Email,
		Walls:       walls,
	}

	// The store re-checks the cap atomically; a concurrent add can still
	// fill the list between the read above and this write.
	if err := r.store.AppendRevision(ctx, projectID, rev, MaxRevisions); err != nil {
		if errors.Is(err, storage.ErrRevisionsFull) {
			return nil, ErrRevisionLimit
		}
		return nil, err
	}
	return &rev, nil
}

// List returns the project's revisions ordered by number.
func (r *RevisionRepository) List(ctx context.Context, projectID string) ([]models.Revision, error) {
	project, err := r.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return SortedRevisions(project.WallRevisions), nil
}

// NextRevisionNumber is one past the highest stored number.
func NextRevisionNumber(revisions []models.Revision) int {
	next := 1
	for _, rev := range revisions {
		if rev.Number >= next {
			next = rev.Number + 1
		}
	}
	return next
}

// SortedRevisions returns a copy of revisions ordered by number.
func SortedRevisions(revisions []models.Revision) []models.Revision {
	out := make([]models.Revision, len(revisions))
	copy(out, revisions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// RevisionsForReport picks the revisions printed on the cover: every revision
// up to selected (all of them when selected is 0), ordered by number. Only
// the latest MaxRevisions are kept.
func RevisionsForReport(revisions []models.Revision, selected int) []models.Revision {
	var out []models.Revision
	for _, rev := range SortedRevisions(revisions) {
		if selected > 0 && rev.Number > selected {
			continue
		}
		out = append(out, rev)
	}
	if len(out) > MaxRevisions {
		out = out[len(out)-MaxRevisions:]
	}
	return out
}

// GenerateVersionCode renders a revision number as RV-01, RV-02, ...
func GenerateVersionCode(number int) string {
	if number < 1 {
		number = 1
	}
	return fmt.Sprintf("RV-%02d", number)
}

package branches

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memRepo struct {
	nextID    int64
	branches  map[int64]*Branch
	protected map[int64]bool
}

func newMemRepo() *memRepo {
	return &memRepo{branches: make(map[int64]*Branch), protected: make(map[int64]bool)}
}

func (r *memRepo) Create(ctx context.Context, in BranchInput) (*Branch, error) {
	r.nextID++
	b := &Branch{ID: r.nextID, Name: in.Name, Phone: in.Phone, Address: in.Address}
	r.branches[b.ID] = b
	return b, nil
}

func (r *memRepo) Get(ctx context.Context, id int64) (*Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (r *memRepo) List(ctx context.Context) ([]Branch, error) {
	var out []Branch
	for _, b := range r.branches {
		out = append(out, *b)
	}
	return out, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, in BranchInput) (*Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.Name, b.Phone, b.Address = in.Name, in.Phone, in.Address
	return b, nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) error {
	if r.protected[id] {
		return ErrProtected
	}
	if _, ok := r.branches[id]; !ok {
		return ErrNotFound
	}
	delete(r.branches, id)
	return nil
}

func TestCreateRequiresName(t *testing.T) {
	s := NewService(newMemRepo())
	_, err := s.Create(context.Background(), BranchInput{Name: "   "})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateAndGet(t *testing.T) {
	s := NewService(newMemRepo())
	ctx := context.Background()

	b, err := s.Create(ctx, BranchInput{Name: "Main", Phone: "02-555-0101"})
	require.NoError(t, err)

	got, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, "Main", got.Name)
}

func TestDeleteProtectedBranch(t *testing.T) {
	repo := newMemRepo()
	s := NewService(repo)
	ctx := context.Background()

	b, err := s.Create(ctx, BranchInput{Name: "Busy"})
	require.NoError(t, err)
	repo.protected[b.ID] = true

	require.ErrorIs(t, s.Delete(ctx, b.ID), ErrProtected)
}

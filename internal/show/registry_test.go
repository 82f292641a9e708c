package show

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-desk/internal/cue"
)

// mockRepository is an in-memory implementation of Repository for testing.
type mockRepository struct {
	lists   map[int]*cue.CueList
	saveErr error
	saves   int
	mu      sync.Mutex
}

func newMockRepository() *mockRepository {
	return &mockRepository{lists: make(map[int]*cue.CueList)}
}

func (m *mockRepository) List(_ context.Context) ([]*cue.CueList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*cue.CueList, 0, len(m.lists))
	for _, l := range m.lists {
		out = append(out, l.Clone())
	}
	return out, nil
}

func (m *mockRepository) Get(_ context.Context, number int) (*cue.CueList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[number]
	if !ok {
		return nil, ErrCueListNotFound
	}
	return l.Clone(), nil
}

func (m *mockRepository) Save(_ context.Context, list *cue.CueList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.lists[list.Number] = list.Clone()
	return nil
}

func (m *mockRepository) Delete(_ context.Context, number int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lists[number]; !ok {
		return ErrCueListNotFound
	}
	delete(m.lists, number)
	return nil
}

func newTestRegistry(t *testing.T, lists ...*cue.CueList) (*Registry, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	for _, l := range lists {
		repo.lists[l.Number] = l
	}
	reg := NewRegistry(repo)
	if err := reg.RefreshCache(context.Background()); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}
	return reg, repo
}

func TestRegistry_RefreshCache(t *testing.T) {
	reg, _ := newTestRegistry(t, testCueList(t, 1, 2), testCueList(t, 2, 1))

	if reg.CueListCount() != 2 {
		t.Errorf("CueListCount() = %d, want 2", reg.CueListCount())
	}
}

func TestRegistry_GetCue(t *testing.T) {
	reg, _ := newTestRegistry(t, testCueList(t, 1, 3))
	ctx := context.Background()

	c, err := reg.GetCue(ctx, 1, 3)
	if err != nil {
		t.Fatalf("GetCue() error = %v", err)
	}
	if c.Number != 3 || c.FadeSeconds != 3 {
		t.Errorf("GetCue() = cue %d fade %v", c.Number, c.FadeSeconds)
	}

	if _, err := reg.GetCue(ctx, 1, 9); !errors.Is(err, ErrCueNotFound) {
		t.Errorf("GetCue(1, 9) error = %v, want ErrCueNotFound", err)
	}
	if _, err := reg.GetCue(ctx, 5, 1); !errors.Is(err, ErrCueListNotFound) {
		t.Errorf("GetCue(5, 1) error = %v, want ErrCueListNotFound", err)
	}
}

func TestRegistry_ReturnsDeepCopies(t *testing.T) {
	reg, _ := newTestRegistry(t, testCueList(t, 1, 1))
	ctx := context.Background()

	c, _ := reg.GetCue(ctx, 1, 1)
	c.ModifyChannel(1, 255)
	l, _ := reg.GetCueList(ctx, 1)
	l.RemoveCue(1)

	again, err := reg.GetCue(ctx, 1, 1)
	if err != nil {
		t.Fatalf("GetCue() error = %v", err)
	}
	if v, _ := again.Target(1); v != 10 {
		t.Errorf("cached target = %v after editing a copy, want 10", v)
	}
}

func TestRegistry_ListCueListsSorted(t *testing.T) {
	reg, _ := newTestRegistry(t, testCueList(t, 7, 1), testCueList(t, 2, 1), testCueList(t, 4, 1))

	lists := reg.ListCueLists(context.Background())
	want := []int{2, 4, 7}
	if len(lists) != len(want) {
		t.Fatalf("len(ListCueLists()) = %d, want %d", len(lists), len(want))
	}
	for i, n := range want {
		if lists[i].Number != n {
			t.Errorf("ListCueLists()[%d] = %d, want %d", i, lists[i].Number, n)
		}
	}
}

func TestRegistry_SaveCueCreatesList(t *testing.T) {
	reg, repo := newTestRegistry(t)
	ctx := context.Background()

	c := cue.NewCue(1, 2)
	_ = c.AddChannel(4, 200)
	if err := reg.SaveCue(ctx, 3, c); err != nil {
		t.Fatalf("SaveCue() error = %v", err)
	}

	got, err := reg.GetCue(ctx, 3, 1)
	if err != nil {
		t.Fatalf("GetCue() error = %v", err)
	}
	if v, _ := got.Target(4); v != 200 {
		t.Errorf("Target(4) = %v, want 200", v)
	}
	if _, ok := repo.lists[3]; !ok {
		t.Error("list 3 not persisted")
	}
}

func TestRegistry_SaveCueReplacesExisting(t *testing.T) {
	reg, _ := newTestRegistry(t, testCueList(t, 1, 2))
	ctx := context.Background()

	c := cue.NewCue(2, 0)
	if err := reg.SaveCue(ctx, 1, c); err != nil {
		t.Fatalf("SaveCue() error = %v", err)
	}

	l, _ := reg.GetCueList(ctx, 1)
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
	got, _ := l.Cue(2)
	if got.Len() != 0 || got.FadeSeconds != 0 {
		t.Errorf("cue 2 = %+v, want empty zero-fade cue", got)
	}
}

func TestRegistry_SaveRejectsInvalid(t *testing.T) {
	reg, repo := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.SaveCue(ctx, 1, cue.NewCue(1, -1)); !errors.Is(err, ErrInvalidCueList) {
		t.Errorf("SaveCue() error = %v, want ErrInvalidCueList", err)
	}

	l := cue.NewCueList(2)
	l.AddCue(cue.NewCue(1, -3))
	if err := reg.SaveCueList(ctx, l); !errors.Is(err, cue.ErrInvalidFade) {
		t.Errorf("SaveCueList() error = %v, want it to wrap ErrInvalidFade", err)
	}
	if repo.saves != 0 {
		t.Errorf("repository saved %d times for invalid input", repo.saves)
	}
}

func TestRegistry_SaveFailureLeavesCache(t *testing.T) {
	reg, repo := newTestRegistry(t, testCueList(t, 1, 1))
	repo.saveErr = errors.New("disk full")

	err := reg.SaveCue(context.Background(), 1, cue.NewCue(2, 0))
	if err == nil {
		t.Fatal("SaveCue() error = nil, want repository error")
	}

	l, _ := reg.GetCueList(context.Background(), 1)
	if l.Len() != 1 {
		t.Errorf("cache changed after failed save: Len() = %d", l.Len())
	}
}

func TestRegistry_DeleteCue(t *testing.T) {
	reg, _ := newTestRegistry(t, testCueList(t, 1, 2))
	ctx := context.Background()

	if err := reg.DeleteCue(ctx, 1, 1); err != nil {
		t.Fatalf("DeleteCue() error = %v", err)
	}
	if _, err := reg.GetCue(ctx, 1, 1); !errors.Is(err, ErrCueNotFound) {
		t.Errorf("GetCue() after delete error = %v", err)
	}
	if err := reg.DeleteCue(ctx, 1, 1); !errors.Is(err, ErrCueNotFound) {
		t.Errorf("second DeleteCue() error = %v, want ErrCueNotFound", err)
	}
	if err := reg.DeleteCue(ctx, 8, 1); !errors.Is(err, ErrCueListNotFound) {
		t.Errorf("DeleteCue(8, 1) error = %v, want ErrCueListNotFound", err)
	}
}

func TestRegistry_DeleteCueList(t *testing.T) {
	reg, _ := newTestRegistry(t, testCueList(t, 1, 1))
	ctx := context.Background()

	if err := reg.DeleteCueList(ctx, 1); err != nil {
		t.Fatalf("DeleteCueList() error = %v", err)
	}
	if reg.CueListCount() != 0 {
		t.Errorf("CueListCount() = %d, want 0", reg.CueListCount())
	}
	if err := reg.DeleteCueList(ctx, 1); !errors.Is(err, ErrCueListNotFound) {
		t.Errorf("second DeleteCueList() error = %v, want ErrCueListNotFound", err)
	}
}

func TestRegistry_Import(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	doc := []byte(`{"cue_list_number": 2, "cues": [
		{"cue_number": 1, "fade_time": 5, "channels": [{"channel_number": 1, "target_value": 255}]}
	]}`)

	l, err := reg.Import(ctx, doc)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if l.Number != 2 {
		t.Errorf("Import() list number = %d, want 2", l.Number)
	}
	if _, err := reg.GetCue(ctx, 2, 1); err != nil {
		t.Errorf("GetCue() after import error = %v", err)
	}

	if _, err := reg.Import(ctx, []byte(`{"cues": []}`)); !errors.Is(err, cue.ErrMalformedDocument) {
		t.Errorf("Import(bad) error = %v, want ErrMalformedDocument", err)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg, _ := newTestRegistry(t, testCueList(t, 1, 4))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = reg.GetCue(ctx, 1, 1+i%4)
		}()
		go func() {
			defer wg.Done()
			_ = reg.SaveCue(ctx, 1, cue.NewCue(10+i, 1))
		}()
	}
	wg.Wait()

	l, _ := reg.GetCueList(ctx, 1)
	if l.Len() != 12 {
		t.Errorf("Len() = %d after concurrent saves, want 12", l.Len())
	}
}

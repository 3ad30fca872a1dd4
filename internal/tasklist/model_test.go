package tasklist_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authdemo/internal/service"
	"authdemo/internal/tasklist"
	"authdemo/internal/testutil"
)

var owner = service.User{ID: "user-1", Name: "Jane Doe", Email: "jane@example.com"}

type recorder struct {
	mu        sync.Mutex
	calls     []string
	failures  []string
	rollbacks []string
}

func (r *recorder) RemoteCall(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op)
	if err != nil {
		r.failures = append(r.failures, op)
	}
}

func (r *recorder) Rollback(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rollbacks = append(r.rollbacks, op)
}

func newModel(t *testing.T, store *testutil.FakeTaskStore, u *service.User) (*tasklist.Model, *recorder) {
	t.Helper()
	rec := &recorder{}
	m := tasklist.New(store, service.NewLiveSession(u), tasklist.WithObserver(rec))
	return m, rec
}

func ids(tasks []service.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestLoadAuthenticatedIsUnfiltered(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	store.Seed("private", owner.ID, false, false)
	store.Seed("public", owner.ID, false, true)
	m, _ := newModel(t, store, &owner)

	require.True(t, m.Loading())
	require.NoError(t, m.Load(context.Background()))

	assert.False(t, m.Loading())
	assert.False(t, store.LastQuery.PublicOnly)
	assert.Equal(t, ids(store.Rows()), ids(m.Tasks()))
	assert.Equal(t, 2, m.Total())
}

func TestLoadGuestSeesPublicOnly(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	store.Seed("private", owner.ID, false, false)
	pub := store.Seed("public", owner.ID, false, true)
	m, _ := newModel(t, store, nil)

	require.NoError(t, m.Load(context.Background()))

	assert.True(t, store.LastQuery.PublicOnly)
	require.Len(t, m.Tasks(), 1)
	assert.Equal(t, pub.ID, m.Tasks()[0].ID)
	assert.True(t, m.Tasks()[0].IsPublic)
}

func TestLoadOrdersNewestFirst(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	first := store.Seed("first", owner.ID, false, false)
	second := store.Seed("second", owner.ID, false, false)
	m, _ := newModel(t, store, &owner)

	require.NoError(t, m.Load(context.Background()))
	assert.Equal(t, []string{second.ID, first.ID}, ids(m.Tasks()))
}

func TestLoadFailureEmptiesListAndSetsBanner(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	store.Seed("a", owner.ID, false, false)
	m, rec := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))

	store.ListErr = testutil.ErrRemote
	err := m.Load(context.Background())

	require.ErrorIs(t, err, testutil.ErrRemote)
	assert.Empty(t, m.Tasks())
	assert.Equal(t, tasklist.MsgLoadFailed, m.Error())
	assert.False(t, m.Loading())
	assert.Equal(t, []string{"load"}, rec.failures)
}

func TestAddPrependsStoredRow(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	store.Seed("old", owner.ID, false, false)
	m, _ := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))
	m.SetDraft("  Buy milk  ")

	require.NoError(t, m.Add(context.Background(), m.Draft()))

	tasks := m.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, owner.ID, tasks[0].UserID)
	assert.False(t, tasks[0].Completed)
	assert.NotEmpty(t, tasks[0].ID)
	assert.Empty(t, m.Draft())
	assert.False(t, m.Adding())
}

func TestAddPreconditions(t *testing.T) {
	store := testutil.NewFakeTaskStore()

	m, _ := newModel(t, store, &owner)
	assert.ErrorIs(t, m.Add(context.Background(), "   "), tasklist.ErrEmptyTitle)

	guest, _ := newModel(t, store, nil)
	assert.ErrorIs(t, guest.Add(context.Background(), "title"), tasklist.ErrNotSignedIn)

	assert.Zero(t, store.CallCount("InsertTask"))
	assert.Empty(t, m.Error())
	assert.Empty(t, guest.Error())
}

func TestAddFailureLeavesStateUntouched(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	store.Seed("old", owner.ID, false, false)
	m, _ := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))
	before := m.Tasks()
	m.SetDraft("new")

	store.InsertErr = testutil.ErrRemote
	require.Error(t, m.Add(context.Background(), "new"))

	assert.Equal(t, before, m.Tasks())
	assert.Equal(t, "new", m.Draft())
	assert.Equal(t, tasklist.MsgAddFailed, m.Error())
	assert.False(t, m.Adding())
}

func TestToggleTwiceRestoresCompleted(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	task := store.Seed("a", owner.ID, false, false)
	m, _ := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))

	require.NoError(t, m.Toggle(context.Background(), task.ID))
	assert.True(t, m.Tasks()[0].Completed)
	assert.True(t, store.Rows()[0].Completed)

	require.NoError(t, m.Toggle(context.Background(), task.ID))
	assert.False(t, m.Tasks()[0].Completed)
	assert.False(t, store.Rows()[0].Completed)
	assert.Equal(t, 2, store.CallCount("UpdateTask"))
}

func TestToggleFailureReverts(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	task := store.Seed("a", owner.ID, false, false)
	m, rec := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))

	store.UpdateErr = testutil.ErrRemote
	err := m.Toggle(context.Background(), task.ID)

	require.ErrorIs(t, err, testutil.ErrRemote)
	assert.False(t, m.Tasks()[0].Completed)
	assert.Equal(t, tasklist.MsgUpdateFailed, m.Error())
	assert.Equal(t, []string{"toggle"}, rec.rollbacks)

	m.DismissError()
	assert.Empty(t, m.Error())
}

func TestToggleUnknownIDMakesNoCall(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	m, _ := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))

	assert.ErrorIs(t, m.Toggle(context.Background(), "missing"), tasklist.ErrTaskNotFound)
	assert.Zero(t, store.CallCount("UpdateTask"))
}

func TestSetPublic(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	task := store.Seed("a", owner.ID, false, false)
	m, _ := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))

	require.NoError(t, m.SetPublic(context.Background(), task.ID))
	assert.True(t, m.Tasks()[0].IsPublic)
	assert.True(t, store.Rows()[0].IsPublic)

	store.UpdateErr = testutil.ErrRemote
	require.Error(t, m.SetPublic(context.Background(), task.ID))
	assert.True(t, m.Tasks()[0].IsPublic)
	assert.Equal(t, tasklist.MsgShareFailed, m.Error())
}

func TestSetPublicAnonymousIsReadOnly(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	anon := service.User{ID: "anon-1", IsAnonymous: true}
	task := store.Seed("a", anon.ID, false, false)
	m, _ := newModel(t, store, &anon)
	require.NoError(t, m.Load(context.Background()))

	assert.True(t, m.CanEdit())
	assert.False(t, m.CanShare())
	assert.ErrorIs(t, m.SetPublic(context.Background(), task.ID), tasklist.ErrReadOnly)
	assert.Zero(t, store.CallCount("UpdateTask"))
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	a := store.Seed("a", owner.ID, false, false)
	b := store.Seed("b", owner.ID, false, false)
	m, _ := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))

	require.NoError(t, m.Delete(context.Background(), a.ID))
	assert.Equal(t, []string{b.ID}, ids(m.Tasks()))
	assert.Equal(t, []string{b.ID}, ids(store.Rows()))

	require.NoError(t, m.Delete(context.Background(), a.ID))
	assert.Equal(t, []string{b.ID}, ids(m.Tasks()))
	assert.Equal(t, 1, store.CallCount("DeleteTask"))
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	a := store.Seed("a", owner.ID, false, false)
	m, rec := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))

	require.NoError(t, m.Delete(context.Background(), "does-not-exist"))
	assert.Equal(t, []string{a.ID}, ids(m.Tasks()))
	assert.Equal(t, []string{a.ID}, ids(store.Rows()))
	assert.Zero(t, store.CallCount("DeleteTask"))
	assert.Empty(t, m.Error())
	assert.Empty(t, rec.rollbacks)
}

func TestDeleteFailureRestoresSnapshot(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	store.Seed("a", owner.ID, false, false)
	b := store.Seed("b", owner.ID, false, false)
	store.Seed("c", owner.ID, false, false)
	m, rec := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))
	before := m.Tasks()

	store.DeleteErr = testutil.ErrRemote
	require.Error(t, m.Delete(context.Background(), b.ID))

	assert.Equal(t, before, m.Tasks())
	assert.Equal(t, tasklist.MsgDeleteFailed, m.Error())
	assert.Equal(t, []string{"delete"}, rec.rollbacks)
}

func TestClearCompletedWithNothingCompletedMakesNoCall(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	store.Seed("a", owner.ID, false, false)
	m, _ := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))

	require.NoError(t, m.ClearCompleted(context.Background()))
	assert.Zero(t, store.CallCount("DeleteTasks"))
	assert.Equal(t, 1, m.Total())
}

func TestClearCompleted(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	store.Seed("done 1", owner.ID, true, false)
	open := store.Seed("open", owner.ID, false, false)
	store.Seed("done 2", owner.ID, true, false)
	m, _ := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))
	require.Equal(t, 2, m.CompletedCount())

	require.NoError(t, m.ClearCompleted(context.Background()))

	assert.Equal(t, []string{open.ID}, ids(m.Tasks()))
	assert.Equal(t, []string{open.ID}, ids(store.Rows()))
	assert.Equal(t, 1, store.CallCount("DeleteTasks"))
}

func TestClearCompletedFailureRestores(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	store.Seed("done", owner.ID, true, false)
	store.Seed("open", owner.ID, false, false)
	m, _ := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))
	before := m.Tasks()

	store.DeleteManyErr = testutil.ErrRemote
	require.Error(t, m.ClearCompleted(context.Background()))

	assert.Equal(t, before, m.Tasks())
	assert.Equal(t, tasklist.MsgClearFailed, m.Error())
}

func TestMutationsRequireViewer(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	task := store.Seed("a", owner.ID, false, true)
	m, _ := newModel(t, store, nil)
	require.NoError(t, m.Load(context.Background()))

	ctx := context.Background()
	assert.ErrorIs(t, m.Toggle(ctx, task.ID), tasklist.ErrNotSignedIn)
	assert.ErrorIs(t, m.SetPublic(ctx, task.ID), tasklist.ErrNotSignedIn)
	assert.ErrorIs(t, m.Delete(ctx, task.ID), tasklist.ErrNotSignedIn)
	assert.ErrorIs(t, m.ClearCompleted(ctx), tasklist.ErrNotSignedIn)
	assert.Zero(t, store.CallCount("UpdateTask")+store.CallCount("DeleteTask")+store.CallCount("DeleteTasks"))
	assert.False(t, m.CanEdit())
}

func TestSuccessfulSequenceConverges(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	m, _ := newModel(t, store, &owner)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))

	require.NoError(t, m.Add(ctx, "one"))
	require.NoError(t, m.Add(ctx, "two"))
	require.NoError(t, m.Add(ctx, "three"))
	tasks := m.Tasks()
	require.NoError(t, m.Toggle(ctx, tasks[0].ID))
	require.NoError(t, m.Toggle(ctx, tasks[2].ID))
	require.NoError(t, m.Delete(ctx, tasks[1].ID))
	require.NoError(t, m.SetPublic(ctx, tasks[2].ID))

	local := m.Tasks()
	fresh, _ := newModel(t, store, &owner)
	require.NoError(t, fresh.Load(ctx))
	assert.Equal(t, fresh.Tasks(), local)
}

func TestDerivedCountsAndFilter(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	store.Seed("a", owner.ID, true, false)
	store.Seed("b", owner.ID, false, false)
	store.Seed("c", owner.ID, false, false)
	m, _ := newModel(t, store, &owner)
	require.NoError(t, m.Load(context.Background()))

	assert.Equal(t, 3, m.Total())
	assert.Equal(t, 2, m.ActiveCount())
	assert.Equal(t, 1, m.CompletedCount())

	m.SetFilter(tasklist.FilterActive)
	assert.Len(t, m.Visible(), 2)
	m.SetFilter(tasklist.FilterCompleted)
	assert.Len(t, m.Visible(), 1)
	m.SetFilter(tasklist.FilterAll)
	assert.Len(t, m.Visible(), 3)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    tasklist.Filter
		wantErr bool
	}{
		{"", tasklist.FilterAll, false},
		{"all", tasklist.FilterAll, false},
		{"Active", tasklist.FilterActive, false},
		{"completed", tasklist.FilterCompleted, false},
		{"done", tasklist.FilterAll, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := tasklist.ParseFilter(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "Completed", tasklist.FilterCompleted.Label())
}

func TestObserverSeesEveryRemoteCall(t *testing.T) {
	store := testutil.NewFakeTaskStore()
	m, rec := newModel(t, store, &owner)
	ctx := context.Background()
	require.NoError(t, m.Load(ctx))
	require.NoError(t, m.Add(ctx, "x"))
	id := m.Tasks()[0].ID
	require.NoError(t, m.Toggle(ctx, id))
	require.NoError(t, m.ClearCompleted(ctx))

	assert.Equal(t, []string{"load", "add", "toggle", "clear_completed"}, rec.calls)
	assert.Empty(t, rec.failures)
}

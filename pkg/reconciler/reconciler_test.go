package reconciler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type issue struct {
	Id       string
	Title    string
	Priority int
}

func (i issue) EntityId() string { return i.Id }

func ids(items []issue) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Id)
	}
	return out
}

func TestStore_CreateConfirmedReplacesPlaceholder(t *testing.T) {
	store := NewStore([]issue{{Id: "i1", Title: "existing"}})

	placeholder := store.Create("req-1", func(tempId string) issue {
		return issue{Id: tempId, Title: "new issue"}
	})

	assert.Equal(t, "optimistic-1", placeholder.Id)
	assert.Equal(t, []string{"optimistic-1", "i1"}, ids(store.Items()))

	err := store.ResolveCreate("req-1", issue{Id: "i2", Title: "new issue"}, nil)
	require.NoError(t, err)

	// Канонический id вместо временного, позиция сохранена
	assert.Equal(t, []string{"i2", "i1"}, ids(store.Items()))
	assert.False(t, store.HasPending("optimistic-1"))
}

func TestStore_CreateFailureRemovesPlaceholder(t *testing.T) {
	store := NewStore([]issue{{Id: "i1"}})

	store.Create("req-1", func(tempId string) issue {
		return issue{Id: tempId, Title: "doomed"}
	})

	reqErr := errors.New("team not found")
	err := store.ResolveCreate("req-1", issue{}, reqErr)

	assert.ErrorIs(t, err, reqErr)
	assert.Equal(t, []string{"i1"}, ids(store.Items()))
}

func TestStore_UpdateRollbackRestoresSnapshot(t *testing.T) {
	store := NewStore([]issue{{Id: "i1", Priority: 3}})

	err := store.Update("i1", func(i issue) issue {
		i.Priority = 1
		return i
	})
	require.NoError(t, err)

	// Оптимистичное состояние видно сразу
	assert.Equal(t, 1, store.Items()[0].Priority)

	reqErr := errors.New("validation failed")
	err = store.ResolveUpdate("i1", issue{}, reqErr)

	assert.ErrorIs(t, err, reqErr)
	assert.Equal(t, 3, store.Items()[0].Priority)
	assert.False(t, store.HasPending("i1"))
}

func TestStore_UpdateConfirmedTakesCanonicalState(t *testing.T) {
	store := NewStore([]issue{{Id: "i1", Title: "old"}})

	require.NoError(t, store.Update("i1", func(i issue) issue {
		i.Title = "new"
		return i
	}))

	canonical := issue{Id: "i1", Title: "new", Priority: 2}
	require.NoError(t, store.ResolveUpdate("i1", canonical, nil))

	assert.Equal(t, canonical, store.Items()[0])
}

func TestStore_SecondUpdateOverwritesSnapshot(t *testing.T) {
	store := NewStore([]issue{{Id: "i1", Priority: 3}})

	require.NoError(t, store.Update("i1", func(i issue) issue {
		i.Priority = 1
		return i
	}))
	require.NoError(t, store.Update("i1", func(i issue) issue {
		i.Priority = 2
		return i
	}))

	// Снапшот второй мутации — состояние после первой
	reqErr := errors.New("rejected")
	_ = store.ResolveUpdate("i1", issue{}, reqErr)

	assert.Equal(t, 1, store.Items()[0].Priority)
}

func TestStore_DeleteFailureReinsertsAtPosition(t *testing.T) {
	store := NewStore([]issue{{Id: "i1"}, {Id: "i2"}, {Id: "i3"}})

	require.NoError(t, store.Delete("i2"))
	assert.Equal(t, []string{"i1", "i3"}, ids(store.Items()))

	reqErr := errors.New("forbidden")
	err := store.ResolveDelete("i2", reqErr)

	assert.ErrorIs(t, err, reqErr)
	assert.Equal(t, []string{"i1", "i2", "i3"}, ids(store.Items()))
}

func TestStore_DeleteConfirmedStaysRemoved(t *testing.T) {
	store := NewStore([]issue{{Id: "i1"}, {Id: "i2"}})

	require.NoError(t, store.Delete("i2"))
	require.NoError(t, store.ResolveDelete("i2", nil))

	assert.Equal(t, []string{"i1"}, ids(store.Items()))
}

func TestStore_PushSuppressedWhilePending(t *testing.T) {
	store := NewStore([]issue{{Id: "i1", Title: "mine"}})

	require.NoError(t, store.Update("i1", func(i issue) issue {
		i.Title = "optimistic"
		return i
	}))

	// Эхо собственного изменения не перетирает оптимистичное состояние
	store.ApplyUpdated(issue{Id: "i1", Title: "echo"})
	assert.Equal(t, "optimistic", store.Items()[0].Title)

	// После resolve push снова применяется
	require.NoError(t, store.ResolveUpdate("i1", issue{Id: "i1", Title: "optimistic"}, nil))
	store.ApplyUpdated(issue{Id: "i1", Title: "from peer"})
	assert.Equal(t, "from peer", store.Items()[0].Title)
}

func TestStore_PushCreateIgnoresDuplicates(t *testing.T) {
	store := NewStore([]issue{{Id: "i1"}})

	store.ApplyCreated(issue{Id: "i2"})
	store.ApplyCreated(issue{Id: "i2"})

	assert.Equal(t, []string{"i2", "i1"}, ids(store.Items()))
}

func TestStore_PushDeleteRemoves(t *testing.T) {
	store := NewStore([]issue{{Id: "i1"}, {Id: "i2"}})

	store.ApplyDeleted("i1")

	assert.Equal(t, []string{"i2"}, ids(store.Items()))
}

func TestStore_ResolveStaleRollsBackOldPendings(t *testing.T) {
	store := NewStore([]issue{{Id: "i1", Priority: 3}})

	current := time.Now()
	store.now = func() time.Time { return current }

	require.NoError(t, store.Update("i1", func(i issue) issue {
		i.Priority = 1
		return i
	}))

	// Мутация моложе maxAge остается
	assert.Empty(t, store.ResolveStale(time.Minute))
	assert.True(t, store.HasPending("i1"))

	current = current.Add(2 * time.Minute)
	rolledBack := store.ResolveStale(time.Minute)

	assert.Equal(t, []string{"i1"}, rolledBack)
	assert.Equal(t, 3, store.Items()[0].Priority)
	assert.False(t, store.HasPending("i1"))
}

func TestStore_ResolveUnknownPending(t *testing.T) {
	store := NewStore([]issue{{Id: "i1"}})

	assert.ErrorIs(t, store.ResolveCreate("ghost", issue{}, nil), ErrUnknownPending)
	assert.ErrorIs(t, store.ResolveUpdate("i1", issue{}, nil), ErrUnknownPending)
	assert.ErrorIs(t, store.ResolveDelete("i1", nil), ErrUnknownPending)
}

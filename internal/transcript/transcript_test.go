package transcript

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendKeepsOrder(t *testing.T) {
	tr := New()

	u := tr.AppendUser("How often should I water a ficus?")
	a := tr.AppendAssistant("Roughly once a week, when the topsoil is dry.")

	entries := tr.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, u, entries[0])
	assert.Equal(t, a, entries[1])
	assert.Equal(t, RoleUser, entries[0].Role)
	assert.Equal(t, RoleAssistant, entries[1].Role)
}

func TestAppendAssignsUniqueIDs(t *testing.T) {
	tr := New()

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 50; i++ {
		e := tr.AppendUser("same text every time")
		assert.NotEqual(t, uuid.Nil, e.ID)
		assert.False(t, seen[e.ID], "IDs must be unique even for identical content")
		seen[e.ID] = true
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	tr := New()
	tr.AppendUser("original")

	entries := tr.Entries()
	entries[0].Content = "mutated"

	fresh := tr.Entries()
	assert.Equal(t, "original", fresh[0].Content)
}

// Rendering is a pure read: repeated calls without intervening appends
// observe identical state.
func TestEntriesIdempotent(t *testing.T) {
	tr := New()
	tr.AppendUser("hello")
	tr.AppendAssistant("hi there")

	first := tr.Entries()
	second := tr.Entries()
	third := tr.Entries()

	assert.Equal(t, first, second)
	assert.Equal(t, second, third)
	assert.Equal(t, 2, tr.Len())
}

func TestLast(t *testing.T) {
	tr := New()

	_, ok := tr.Last()
	assert.False(t, ok)

	tr.AppendUser("question")
	want := tr.AppendAssistant("answer")

	got, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestClear(t *testing.T) {
	tr := New()
	tr.AppendUser("one")
	tr.AppendAssistant("two")
	tr.AppendUser("three")
	tr.AppendAssistant("four")
	require.Equal(t, 4, tr.Len())

	tr.Clear()

	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.Entries())

	// The transcript stays usable after clearing.
	tr.AppendUser("fresh start")
	assert.Equal(t, 1, tr.Len())
}

func TestConcurrentAppendAndRead(t *testing.T) {
	tr := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tr.AppendUser(fmt.Sprintf("question %d", n))
		}(i)
		go func() {
			defer wg.Done()
			_ = tr.Entries()
			_ = tr.Len()
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, tr.Len())
}

package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayQueue(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("pops in due order", func(t *testing.T) {
		q := newDelayQueue()
		q.push("c", base.Add(3*time.Second))
		q.push("a", base.Add(1*time.Second))
		q.push("b", base.Add(2*time.Second))

		next, ok := q.peek()
		assert.True(t, ok)
		assert.Equal(t, base.Add(time.Second), next)

		assert.Empty(t, q.popDue(base))
		assert.Equal(t, []string{"a", "b"}, q.popDue(base.Add(2*time.Second)))
		assert.Equal(t, 1, q.len())
		assert.Equal(t, []string{"c"}, q.popDue(base.Add(time.Minute)))

		_, ok = q.peek()
		assert.False(t, ok)
	})

	t.Run("equal due times keep insertion order", func(t *testing.T) {
		q := newDelayQueue()
		q.push("first", base)
		q.push("second", base)
		q.push("third", base)

		assert.Equal(t, []string{"first", "second", "third"}, q.popDue(base))
	})

	t.Run("push reschedules an existing id", func(t *testing.T) {
		q := newDelayQueue()
		q.push("a", base.Add(time.Second))
		q.push("b", base.Add(2*time.Second))
		q.push("a", base.Add(3*time.Second))

		assert.Equal(t, 2, q.len())
		assert.Equal(t, []string{"b", "a"}, q.popDue(base.Add(time.Minute)))
	})

	t.Run("remove", func(t *testing.T) {
		q := newDelayQueue()
		q.push("a", base.Add(time.Second))
		q.push("b", base.Add(2*time.Second))
		q.push("c", base.Add(3*time.Second))

		assert.True(t, q.remove("b"))
		assert.False(t, q.remove("b"))
		assert.False(t, q.remove("unknown"))
		assert.Equal(t, []string{"a", "c"}, q.popDue(base.Add(time.Minute)))
	})
}

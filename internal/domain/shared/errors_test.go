package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError("NOT_FOUND", "Queue not found")
	wrapped := fmt.Errorf("loading queue: %w", err)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidState))

	var de *DomainError
	assert.True(t, errors.As(wrapped, &de))
	assert.Equal(t, "Queue not found", de.Message)
}

func TestPullEvents(t *testing.T) {
	a := NewBaseAggregateRoot()
	b := NewBaseAggregateRoot()
	a.AddDomainEvent(&sampleEvent{BaseDomainEvent: NewBaseDomainEvent("A", "X", a.ID, a.ID)})
	b.AddDomainEvent(&sampleEvent{BaseDomainEvent: NewBaseDomainEvent("B", "X", b.ID, b.ID)})

	events := PullEvents(&a, &b)

	assert.Len(t, events, 2)
	assert.Empty(t, a.GetDomainEvents())
	assert.Empty(t, b.GetDomainEvents())
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{PageSize: 500}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize)
	assert.Equal(t, "created_at", f.OrderBy)
	assert.Equal(t, "desc", f.OrderDir)
	assert.NotNil(t, f.Filters)
}

package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zeusync/remedy/internal/core/models"
)

func TestSingletonUnavailableUntilPublished(t *testing.T) {
	s := NewSingleton()
	_, ok := s.Prefab(models.CategoryAbandoned)
	assert.False(t, ok)
	assert.False(t, s.Available())

	s.Publish(&Table{models.CategoryAbandoned: 11, models.CategoryCollapsed: 13})
	p, ok := s.Prefab(models.CategoryAbandoned)
	assert.True(t, ok)
	assert.Equal(t, models.PrefabID(11), p)

	_, ok = s.Prefab(models.CategoryCondemned)
	assert.False(t, ok, "unregistered category")
}

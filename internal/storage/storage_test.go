// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/OCAP2/aoi/internal/storage"
	"github.com/OCAP2/aoi/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ storage.Backend = (*storage.Nop)(nil)

func TestNop_AssignsSessionIDs(t *testing.T) {
	var b storage.Nop
	require.NoError(t, b.Init())
	defer b.Close()

	s1 := &core.Session{Name: "one"}
	s2 := &core.Session{Name: "two"}
	require.NoError(t, b.StartSession(s1))
	require.NoError(t, b.StartSession(s2))

	assert.Equal(t, uint(1), s1.ID)
	assert.Equal(t, uint(2), s2.ID)
}

func TestNop_DiscardsEvents(t *testing.T) {
	var b storage.Nop
	assert.NoError(t, b.RecordEnter(&core.EnterEvent{EntityID: "a"}))
	assert.NoError(t, b.RecordMove(&core.MoveEvent{EntityID: "a"}))
	assert.NoError(t, b.RecordLeave(&core.LeaveEvent{EntityID: "a"}))
	assert.NoError(t, b.EndSession(&core.Session{}))
}

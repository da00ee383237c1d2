package pubsub

import (
	"sync"
	"testing"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	event := Event{
		Type:       EventTaskMoved,
		ProjectID:  uuid.New(),
		ResourceID: uuid.New(),
		ActorID:    uuid.New(),
		At:         time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC),
	}
	payload, err := json.MarshalString(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, event.ProjectID, decoded.ProjectID)
	assert.Equal(t, event.ResourceID, decoded.ResourceID)
	assert.True(t, event.At.Equal(decoded.At))
}

func TestDecodeEvent_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "project_created"},
		{"missing type", `{"project_id":"` + uuid.NewString() + `"}`},
		{"missing project", `{"type":"task.created"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent(tt.payload)
			assert.Error(t, err)
		})
	}
}

func TestPubSub_NotifiesEverySubscriber(t *testing.T) {
	ps := &PubSub{}

	var wg sync.WaitGroup
	var mu sync.Mutex
	received := 0
	for i := 0; i < 3; i++ {
		wg.Add(1)
		ps.Subscribe(func(event Event) {
			defer wg.Done()
			mu.Lock()
			received++
			mu.Unlock()
		})
	}

	ps.notifyHandlers(Event{Type: EventBoardCreated, ProjectID: uuid.New()})
	wg.Wait()
	assert.Equal(t, 3, received)
}

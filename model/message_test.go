package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQueueMessage(t *testing.T) {
	msg := NewQueueMessage("orders", []byte(`{"n":1}`))

	assert.Equal(t, "orders", msg.Queue)
	assert.Equal(t, []byte(`{"n":1}`), msg.Payload)
	assert.True(t, msg.ID.IsZero(), "ID is assigned by the store, not the constructor")
}

func TestQueueMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		queue   string
		payload []byte
		wantErr bool
	}{
		{
			name:    "valid message",
			queue:   "orders",
			payload: []byte("x"),
			wantErr: false,
		},
		{
			name:    "missing queue",
			queue:   "",
			payload: []byte("x"),
			wantErr: true,
		},
		{
			name:    "missing payload",
			queue:   "orders",
			payload: nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewQueueMessage(tt.queue, tt.payload)
			err := msg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQueueMessage_CollectionName(t *testing.T) {
	assert.Equal(t, "messages", QueueMessage{}.CollectionName())
}

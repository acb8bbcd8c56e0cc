package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyWorker_InvalidPayload(t *testing.T) {
	w := NewNotifyWorker(nil, "admin@example.com")
	err := w.Process(context.Background(), json.RawMessage(`{not json`))
	assert.Error(t, err)
}

func TestNotifyWorker_SkipsWithoutInbox(t *testing.T) {
	// No inbox configured: the job is consumed without touching SMTP.
	w := NewNotifyWorker(nil, "")
	payload, err := json.Marshal(NotifyJobPayload{Phone: "5550001", Device: "dev_A", Code: "ABC123"})
	require.NoError(t, err)
	assert.NoError(t, w.Process(context.Background(), payload))
}

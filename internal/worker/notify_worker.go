package worker

// notify_worker.go
// Processes approval-code relay jobs from QueueNotify: mails the code for a
// pending device binding to the configured admin inbox.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shoyaib4265a/st-shop-poss/internal/infra"
)

// NotifyJobPayload is the job envelope sent to QueueNotify.
type NotifyJobPayload struct {
	Phone  string `json:"phone"`
	Device string `json:"device"`
	Code   string `json:"code"`
}

// NotifyWorker mails approval codes to the admin inbox.
type NotifyWorker struct {
	mailer *infra.Mailer
	to     string
}

func NewNotifyWorker(mailer *infra.Mailer, to string) *NotifyWorker {
	return &NotifyWorker{mailer: mailer, to: to}
}

// Process sends one approval-code email.
func (w *NotifyWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload NotifyJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("notify_worker: invalid payload: %w", err)
	}
	if w.to == "" {
		log.Debug().Msg("notify_worker: no approval inbox configured — skipping")
		return nil
	}

	if err := w.mailer.SendApprovalCode(w.to, payload.Phone, payload.Device, payload.Code); err != nil {
		return err
	}
	log.Info().Str("to", w.to).Str("phone", payload.Phone).Msg("notify_worker: approval code relayed")
	return nil
}

package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeBrandImage = "brand:process"

// BrandImagePayload is the queued form of one async branding request. The
// result reaches the submitter by email; RequestID ties the run back to its
// stored record.
type BrandImagePayload struct {
	RequestID   string    `json:"request_id"`
	Image       string    `json:"image"`
	Email       string    `json:"email"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewBrandImageTask(payload BrandImagePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal brand payload: %w", err)
	}
	return asynq.NewTask(TypeBrandImage, body), nil
}

func ParseBrandImagePayload(task *asynq.Task) (BrandImagePayload, error) {
	var payload BrandImagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BrandImagePayload{}, fmt.Errorf("unmarshal brand payload: %w", err)
	}
	return payload, nil
}

package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypePixelRecount = "pixel:recount"
)

type PixelRecountPayload struct{}

func NewPixelRecountTask(uniqueWindow time.Duration, opts ...asynq.Option) (*asynq.Task, error) {
	payload := PixelRecountPayload{}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	uniqueOpt := asynq.Unique(uniqueWindow)
	allOpts := append(opts, uniqueOpt)

	return asynq.NewTask(TypePixelRecount, payloadBytes, allOpts...), nil
}

package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskPurgeMapImages = "markers.images.purge"

type PurgeMapImagesPayload struct {
	MapID string `json:"mapId"`
}

func NewPurgeMapImagesTask(payload PurgeMapImagesPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPurgeMapImages, data), nil
}

func ParsePurgeMapImagesPayload(task *asynq.Task) (PurgeMapImagesPayload, error) {
	var payload PurgeMapImagesPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return PurgeMapImagesPayload{}, err
	}
	return payload, nil
}

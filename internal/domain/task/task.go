package task

import (
	"encoding/json"
	"fmt"
)

// Task is anything that can be published on a redis stream
type Task interface {
	TaskType() string
	TaskValue() ([]byte, error)
}

// Types lists every task type the queue has a stream for.
var Types = []string{
	(&CommitReportTask{}).TaskType(),
}

func DefaultTaskValue(t any) ([]byte, error) {
	return json.Marshal(t)
}

func UnmarshalTask[T Task](data []byte) (T, error) {
	var t T
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to decode task: %w", err)
	}
	return t, nil
}

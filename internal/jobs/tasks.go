// Package jobs define las tareas en background del ledger: el fanout diario
// de snapshots y el cómputo por empresa, sobre asynq.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola por defecto de los jobs del ledger.
	QueueDefault = "default"
	// TaskSnapshotFanout enumera las empresas y encola un snapshot por cada una.
	TaskSnapshotFanout = "reports:snapshot_fanout"
	// TaskDailySnapshot computa y persiste el snapshot de una empresa.
	TaskDailySnapshot = "reports:daily_snapshot"
)

// DailySnapshotPayload parámetros del cómputo por empresa.
type DailySnapshotPayload struct {
	CompanyID string    `json:"company_id"`
	AsOf      time.Time `json:"as_of"`
}

// NewSnapshotFanoutTask tarea de fanout. Sin payload: el instante de corte se
// resuelve al ejecutarse.
func NewSnapshotFanoutTask() *asynq.Task {
	return asynq.NewTask(TaskSnapshotFanout, nil)
}

// NewDailySnapshotTask tarea de snapshot para una empresa.
func NewDailySnapshotTask(payload DailySnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailySnapshot, data), nil
}

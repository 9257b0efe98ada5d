package task

import "storefront/client/internal/domain"

// CommitReportTask carries the outcome of a bundle commit to the notifier
type CommitReportTask struct {
	CommitID         string              `json:"commit_id"`
	CurrentProductID string              `json:"current_product_id"`
	Status           domain.CommitStatus `json:"status"`
	Requested        int                 `json:"requested"`
	Added            int                 `json:"added"`
	FailedProducts   []string            `json:"failed_products,omitempty"`
}

func NewCommitReportTask(commit *domain.Commit) *CommitReportTask {
	t := &CommitReportTask{
		CommitID:         commit.ID,
		CurrentProductID: commit.CurrentProductID,
		Status:           commit.Status,
		Requested:        len(commit.Steps),
		Added:            commit.Added(),
	}
	for _, step := range commit.Failed() {
		t.FailedProducts = append(t.FailedProducts, step.ProductID)
	}
	return t
}

func (t *CommitReportTask) TaskType() string {
	return "CommitReportTask"
}

func (t *CommitReportTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

package domain

import "time"

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
)

type CommitStatus string

const (
	CommitRunning   CommitStatus = "running"
	CommitSucceeded CommitStatus = "succeeded"
	CommitPartial   CommitStatus = "partial"
)

// CommitStep is a single add-to-cart call of a bundle commit
type CommitStep struct {
	ProductID string     `json:"product_id"`
	Quantity  int        `json:"quantity"`
	Status    StepStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// Commit records how a bundle selection was turned into cart entries.
type Commit struct {
	ID               string       `json:"id"`
	CurrentProductID string       `json:"current_product_id"`
	Steps            []CommitStep `json:"steps"`
	Status           CommitStatus `json:"status"`
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
}

// Added returns the number of steps that landed in the cart
func (c *Commit) Added() int {
	n := 0
	for _, s := range c.Steps {
		if s.Status == StepSucceeded {
			n++
		}
	}
	return n
}

// Failed returns the steps that did not land
func (c *Commit) Failed() []CommitStep {
	var failed []CommitStep
	for _, s := range c.Steps {
		if s.Status == StepFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

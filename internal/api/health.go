package api

import "context"

// HealthStatus is the liveness probe response.
type HealthStatus struct {
	Status string `json:"status"`
}

// ComponentStatus reports one backing service inside the readiness probe.
type ComponentStatus struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ReadinessReport aggregates the backend's dependency checks. Status is
// "ok" when every component passes and "degraded" otherwise.
type ReadinessReport struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentStatus `json:"checks"`
}

// Health checks that the backend process is up.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Readiness reports the state of the backend's dependencies (database,
// vector store, object storage, model provider).
func (c *Client) Readiness(ctx context.Context) (*ReadinessReport, error) {
	var out ReadinessReport
	if err := c.getJSON(ctx, "/ready", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

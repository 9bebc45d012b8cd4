package stage

import "context"

// Health is a stage's answer to "could a run start right now?".
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

func Healthy(name string) Health { return Health{Name: name, Ready: true} }

func Unhealthy(name, detail string) Health { return Health{Name: name, Detail: detail} }

// CheckErr reports name as ready when err is nil and otherwise carries the
// error text as the detail.
func CheckErr(name string, err error) Health {
	if err != nil {
		return Unhealthy(name, err.Error())
	}
	return Healthy(name)
}

// Summary is "ready" for a ready stage and the detail (or "not ready") otherwise.
func (h Health) Summary() string {
	switch {
	case h.Ready:
		return "ready"
	case h.Detail != "":
		return h.Detail
	}
	return "not ready"
}

// HealthChecker is implemented by handlers that can probe their
// dependencies before a run.
type HealthChecker interface {
	HealthCheck(context.Context) Health
}

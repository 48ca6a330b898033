/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package admission

import "github.com/prometheus/client_golang/prometheus"

// Stats is the metrics collaborator the engine reports admission
// outcomes to. It is optional: a nil Stats (the default) disables
// metrics entirely, keeping the engine itself free of any particular
// metrics backend.
type Stats interface {
	IncAdmitted()
	IncRejected()
	IncCancelled()
}

// PrometheusStats is a Stats implementation backed by three Prometheus
// counters, registered against reg.
type PrometheusStats struct {
	admitted  prometheus.Counter
	rejected  prometheus.Counter
	cancelled prometheus.Counter
}

// NewPrometheusStats creates and registers the counters under name,
// e.g. "httpserver" yields "httpserver_admission_admitted_total" etc.
func NewPrometheusStats(reg prometheus.Registerer, name string) *PrometheusStats {
	s := &PrometheusStats{
		admitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: name + "_admission_admitted_total",
			Help: "Calls admitted under a concurrency policy.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: name + "_admission_rejected_total",
			Help: "Calls rejected with LimitExceeded.",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: name + "_admission_cancelled_total",
			Help: "Calls rejected with Cancelled while waiting for a slot.",
		}),
	}
	reg.MustRegister(s.admitted, s.rejected, s.cancelled)
	return s
}

// IncAdmitted implements Stats.
func (s *PrometheusStats) IncAdmitted() { s.admitted.Inc() }

// IncRejected implements Stats.
func (s *PrometheusStats) IncRejected() { s.rejected.Inc() }

// IncCancelled implements Stats.
func (s *PrometheusStats) IncCancelled() { s.cancelled.Inc() }

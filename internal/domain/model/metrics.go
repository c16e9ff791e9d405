package model

// CompositeMetrics holds the four derived statistics of a team.
type CompositeMetrics struct {
	Worth float64 `json:"worth"`
	Prime float64 `json:"prime"`
	Road  float64 `json:"road"`
	Nerve float64 `json:"nerve"`
}

// Advantage returns m - other, metric by metric.
func (m CompositeMetrics) Advantage(other CompositeMetrics) CompositeMetrics {
	return CompositeMetrics{
		Worth: m.Worth - other.Worth,
		Prime: m.Prime - other.Prime,
		Road:  m.Road - other.Road,
		Nerve: m.Nerve - other.Nerve,
	}
}

// OptionalMetrics is either a computed CompositeMetrics or Absent. Absent is
// distinct from a record of zeros.
type OptionalMetrics struct {
	metrics CompositeMetrics
	present bool
}

// Some wraps computed metrics.
func Some(m CompositeMetrics) OptionalMetrics {
	return OptionalMetrics{metrics: m, present: true}
}

// Absent is the value for a team whose metrics were never computed.
func Absent() OptionalMetrics { return OptionalMetrics{} }

// Get returns the metrics and whether they were present.
func (o OptionalMetrics) Get() (CompositeMetrics, bool) { return o.metrics, o.present }

// Available reports whether metrics were computed.
func (o OptionalMetrics) Available() bool { return o.present }

// OrZero returns the metrics, or all zeros when absent.
func (o OptionalMetrics) OrZero() CompositeMetrics { return o.metrics }

// MetricsLookup resolves a team's metrics. Unknown teams are Absent.
type MetricsLookup interface {
	Metrics(team string) OptionalMetrics
}

// SeasonLookup resolves a team's season row, case-insensitively.
type SeasonLookup interface {
	Lookup(team string) (SeasonSummary, error)
}

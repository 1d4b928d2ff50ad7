package port

type Metrics interface {
	// ObserveInteraction counts a handled interaction by action and outcome.
	ObserveInteraction(action, outcome string)
	// SetActiveRecords reports the number of live records of a kind.
	SetActiveRecords(kind string, n int)
}

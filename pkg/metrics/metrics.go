package metrics

/*
Labels and so on for metrics used in promotion.
*/

const (
	Namespace = "promote"

	LabelSuccess     = "success"
	LabelEnvironment = "environment"

	// Labels for change record metrics
	LabelAction  = "action"
	LabelOutcome = "outcome"
	LabelStage   = "stage"
)

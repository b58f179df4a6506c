package evaluator

// Budget holds optional resource limits for a program execution. Zero means
// unlimited.
type Budget struct {
	MaxIterations int64
}

// BudgetTracker tracks resource consumption during execution.
type BudgetTracker struct {
	Iterations int64
	FnCalls    int64
}

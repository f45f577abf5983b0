package main

// EvaluateThreshold applies a comparison operator between a metric value and
// a rule threshold. It is pure and total: an unrecognized operator never
// triggers. Callers are expected to log unknown operators themselves.
func EvaluateThreshold(value float64, operator string, threshold float64) bool {
	switch operator {
	case ">":
		return value > threshold
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	case "<=":
		return value <= threshold
	case "=":
		return value == threshold
	default:
		return false
	}
}

// knownOperator reports whether the operator is one the evaluator
// understands, so the caller can surface misconfigured rules in logs.
func knownOperator(operator string) bool {
	switch operator {
	case ">", "<", ">=", "<=", "=":
		return true
	default:
		return false
	}
}

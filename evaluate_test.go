package main

import "testing"

func TestEvaluateThreshold(t *testing.T) {
	testCases := []struct {
		name      string
		value     float64
		operator  string
		threshold float64
		expected  bool
	}{
		{name: "greater than true", value: 5, operator: ">", threshold: 0, expected: true},
		{name: "greater than false on equal", value: 5, operator: ">", threshold: 5, expected: false},
		{name: "less than true", value: 3, operator: "<", threshold: 10, expected: true},
		{name: "less than false", value: 10, operator: "<", threshold: 10, expected: false},
		{name: "greater or equal on equal", value: 10, operator: ">=", threshold: 10, expected: true},
		{name: "greater or equal above", value: 11, operator: ">=", threshold: 10, expected: true},
		{name: "greater or equal below", value: 9.99, operator: ">=", threshold: 10, expected: false},
		{name: "less or equal on equal", value: 10, operator: "<=", threshold: 10, expected: true},
		{name: "less or equal below", value: 2, operator: "<=", threshold: 10, expected: true},
		{name: "less or equal above", value: 10.01, operator: "<=", threshold: 10, expected: false},
		{name: "equality true", value: 42, operator: "=", threshold: 42, expected: true},
		{name: "equality false", value: 42, operator: "=", threshold: 42.5, expected: false},
		{name: "unknown operator never triggers", value: 100, operator: "!=", threshold: 0, expected: false},
		{name: "empty operator never triggers", value: 100, operator: "", threshold: 0, expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			result := EvaluateThreshold(testCase.value, testCase.operator, testCase.threshold)
			if result != testCase.expected {
				t.Errorf("EvaluateThreshold(%v, %q, %v) = %v, expected %v", testCase.value, testCase.operator, testCase.threshold, result, testCase.expected)
			}
		})
	}
}

func TestKnownOperator(t *testing.T) {
	for _, operator := range []string{">", "<", ">=", "<=", "="} {
		if !knownOperator(operator) {
			t.Errorf("expected operator %q to be known", operator)
		}
	}
	for _, operator := range []string{"!=", "==", "", "gt"} {
		if knownOperator(operator) {
			t.Errorf("expected operator %q to be unknown", operator)
		}
	}
}

package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// VectorToString renders a vector in the text form pgvector accepts for a
// ::vector cast, e.g. [0.25,-1,0.5].
func VectorToString(vector []float64) string {
	buf := make([]byte, 0, len(vector)*10+2)
	buf = append(buf, '[')
	for i, component := range vector {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendFloat(buf, component, 'f', -1, 64)
	}
	buf = append(buf, ']')
	return string(buf)
}

// StringToVector parses the text form back into a slice. The empty vector
// round-trips as [].
func StringToVector(vectorStr string) ([]float64, error) {
	inner := strings.TrimSpace(vectorStr)
	inner = strings.TrimPrefix(inner, "[")
	inner = strings.TrimSuffix(inner, "]")
	if inner == "" {
		return []float64{}, nil
	}

	parts := strings.Split(inner, ",")
	vector := make([]float64, len(parts))
	for i, part := range parts {
		component, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vector element %q: %w", part, err)
		}
		vector[i] = component
	}
	return vector, nil
}

package storage

import (
	"fmt"
	"strings"
)

// ExportObjectPath places a service-supplied relative export name under the configured prefix.
// Every directory segment and the final file name are validated against traversal.
func ExportObjectPath(prefix, name string) (string, error) {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return "", fmt.Errorf("storage: export name is required")
	}
	parts := strings.Split(name, "/")
	for i, part := range parts[:len(parts)-1] {
		segment, err := validateSegment(fmt.Sprintf("segment[%d]", i), part)
		if err != nil {
			return "", err
		}
		parts[i] = segment
	}
	fileName, err := validateFileName(parts[len(parts)-1])
	if err != nil {
		return "", err
	}
	parts[len(parts)-1] = fileName

	var segments []string
	for _, part := range strings.Split(strings.Trim(strings.TrimSpace(prefix), "/"), "/") {
		if part == "" {
			continue
		}
		segment, err := validateSegment("prefix", part)
		if err != nil {
			return "", err
		}
		segments = append(segments, segment)
	}
	return strings.Join(append(segments, parts...), "/"), nil
}

func validateSegment(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}

func validateFileName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("storage: fileName is required")
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: fileName contains invalid path characters")
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: fileName contains invalid traversal sequence")
	}
	return value, nil
}

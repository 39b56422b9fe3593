package task

import "strings"

func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ErrTitleRequired
	}
	return trimmed, nil
}

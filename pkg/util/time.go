package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses duration strings with day support, e.g. 7d / 24h / 30m
// ParseDuration 解析支持天单位的时长字符串，例如 7d、24h、30m
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}

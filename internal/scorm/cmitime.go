package scorm

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCMITime 解析 SCORM 1.2 时间串（HHHH:MM:SS.ss）为秒数。
// 宽容接受 HH:MM:SS 与 MM:SS，小时位最多四位。
func ParseCMITime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time string")
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid cmi time %q", s)
	}
	// MM:SS 补齐小时位
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || len(parts[0]) > 4 {
		return 0, fmt.Errorf("invalid hours in cmi time %q", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minutes in cmi time %q", s)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0, fmt.Errorf("invalid seconds in cmi time %q", s)
	}

	return float64(hours)*3600 + float64(minutes)*60 + seconds, nil
}

// FormatCMITime 将秒数格式化为 HH:MM:SS，超过 99 小时自然扩位
func FormatCMITime(secs float64) string {
	if secs < 0 {
		secs = 0
	}
	total := int(secs)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

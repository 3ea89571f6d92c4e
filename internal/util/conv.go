package util

import (
	"strconv"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// FormatFloat 紧凑浮点格式，SCORM 成绩元素统一用它回显
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package util

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Slugify 将标题转为 URL slug，非字母数字折叠为连字符
func Slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "package"
	}
	return out
}

// UniqueSlug 在 slug 冲突时追加短 UUID 后缀
func UniqueSlug(base string, exists func(string) bool) string {
	slug := Slugify(base)
	if !exists(slug) {
		return slug
	}
	return slug + "-" + uuid.New().String()[:8]
}

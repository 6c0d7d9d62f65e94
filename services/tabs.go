package services

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Tab is one button of the single-page tab bar.
type Tab struct {
	ID    string
	Label string
	Page  string
}

// TabPageID maps a tab button id ("tabReport") to its panel id ("pageReport").
func TabPageID(tabID string) string {
	return strings.Replace(tabID, "tab", "page", 1)
}

// NewTabs builds the tab bar from page keys in the given order.
func NewTabs(keys []string, labels map[string]string) []Tab {
	tabs := make([]Tab, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		first, size := utf8.DecodeRuneInString(k)
		id := "tab" + string(unicode.ToUpper(first)) + k[size:]
		label := labels[k]
		if label == "" {
			label = k
		}
		tabs = append(tabs, Tab{ID: id, Label: label, Page: k})
	}
	return tabs
}

// TodayDateString formats t as YYYY-MM-DD in its own location.
func TodayDateString(t time.Time) string {
	return t.Format("2006-01-02")
}

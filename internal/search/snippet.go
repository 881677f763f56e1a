package search

import "github.com/hyperjump/chatsearch/pkg/utils"

// Snippet flattens content to one line and truncates it to maxLen characters for display.
func Snippet(content string, maxLen int) string {
	return utils.Truncate(utils.SingleLine(content), maxLen)
}

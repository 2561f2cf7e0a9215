package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// PayloadInt64 parses callback payload as int64.
func PayloadInt64(c tele.Context) (int64, error) {
	p := CallbackPayload(c)
	return strconv.ParseInt(strings.TrimSpace(p), 10, 64)
}


package utils

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const flashCookie = "flash"

// FlashMessage is a one-shot notice carried across a redirect.
type FlashMessage struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Flash appends a message that the next page rendered for this client will show.
func Flash(ctx *gin.Context, level, text string) {
	msgs := readFlash(ctx)
	msgs = append(msgs, FlashMessage{Level: level, Text: text})
	b, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	encoded := base64.RawURLEncoding.EncodeToString(b)
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(flashCookie, encoded, 60, "/", "", false, true)
	// Make the message visible to anything else rendered in this request.
	ctx.Set(flashCookie, msgs)
}

// PopFlash returns pending messages and clears them.
func PopFlash(ctx *gin.Context) []FlashMessage {
	msgs := readFlash(ctx)
	if len(msgs) > 0 {
		ctx.SetCookie(flashCookie, "", -1, "/", "", false, true)
	}
	return msgs
}

func readFlash(ctx *gin.Context) []FlashMessage {
	if v, ok := ctx.Get(flashCookie); ok {
		if msgs, ok := v.([]FlashMessage); ok {
			return msgs
		}
	}
	raw, err := ctx.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var msgs []FlashMessage
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil
	}
	return msgs
}

package ingestion

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset" // registers non-UTF-8 charsets for decoding
	"github.com/emersion/go-message/mail"
)

// ReadEML parses an RFC 5322 message and renders it in the labelled-header plain form
// used by exported mail files:
//
//	Subject: ...
//	From: Name <address>
//	Date: Mon, 02 Jan 2006 15:04:05 -0700
//
//	<body>
//
// The text/plain part is preferred; the text/html part is used when no plain part exists.
func ReadEML(r io.Reader) (string, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return "", fmt.Errorf("failed to parse message: %w", err)
	}
	defer func() { _ = mr.Close() }()

	var sb strings.Builder
	if subject, err := mr.Header.Subject(); err == nil && subject != "" {
		sb.WriteString("Subject: " + subject + "\n")
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		sb.WriteString("From: " + formatAddress(from[0]) + "\n")
	}
	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		sb.WriteString("Date: " + date.Format(time.RFC1123Z) + "\n")
	}
	sb.WriteString("\n")

	var plain, htmlBody string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) || message.IsUnknownEncoding(err) {
				continue
			}
			return "", fmt.Errorf("failed to read message part: %w", err)
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch {
		case contentType == "text/plain" && plain == "":
			plain = DecodeText(body)
		case contentType == "text/html" && htmlBody == "":
			htmlBody = DecodeText(body)
		}
	}

	if plain != "" {
		sb.WriteString(plain)
	} else {
		sb.WriteString(htmlBody)
	}
	return sb.String(), nil
}

func formatAddress(a *mail.Address) string {
	if a.Name == "" {
		return a.Address
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Address)
}

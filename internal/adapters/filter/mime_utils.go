package filter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"regexp"
	"strings"
)

// maxMIMEDepth bounds nested multipart recursion.
const maxMIMEDepth = 5

var (
	htmlTag        = regexp.MustCompile(`(?s)<[^>]*>`)
	htmlScriptBody = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	headerDecoder  = &mime.WordDecoder{}
)

// decodeHeader decodes RFC 2047 encoded-words, returning value unchanged when
// it cannot be decoded.
func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// extractTextFromMessage returns the readable text of a message: all
// text/plain parts, or the tag-stripped text/html parts when there is no
// plain text.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	var plainText, htmlText bytes.Buffer
	if err := collectText(textproto.MIMEHeader(msg.Header), msg.Body, &plainText, &htmlText, 0); err != nil {
		return "", err
	}

	if plainText.Len() > 0 {
		return strings.TrimSpace(plainText.String()), nil
	}
	return stripHTML(htmlText.String()), nil
}

func collectText(header textproto.MIMEHeader, body io.Reader, plainText, htmlText *bytes.Buffer, depth int) error {
	contentType := header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || contentType == "" {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" || depth >= maxMIMEDepth {
			return nil
		}
		mr := multipart.NewReader(body, boundary)
		var partErr error
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				partErr = fmt.Errorf("failed to read multipart body: %w", err)
				break
			}
			// a part that fails to decode is skipped, its siblings still count
			if err := collectText(part.Header, part, plainText, htmlText, depth+1); err != nil && partErr == nil {
				partErr = err
			}
		}
		// keep whatever was readable around the broken parts
		if plainText.Len() > 0 || htmlText.Len() > 0 {
			return nil
		}
		return partErr
	}

	if disposition, _, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil && disposition == "attachment" {
		return nil
	}

	var target *bytes.Buffer
	switch mediaType {
	case "text/plain":
		target = plainText
	case "text/html":
		target = htmlText
	default:
		return nil
	}

	data, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return fmt.Errorf("failed to read %s part: %w", mediaType, err)
	}
	target.Write(data)
	target.WriteString("\n")
	return nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// newlineStripper drops CR and LF so wrapped base64 bodies decode.
type newlineStripper struct {
	r io.Reader
}

func (n newlineStripper) Read(p []byte) (int, error) {
	for {
		count, err := n.r.Read(p)
		kept := 0
		for _, b := range p[:count] {
			if b != '\r' && b != '\n' {
				p[kept] = b
				kept++
			}
		}
		if kept > 0 || err != nil {
			return kept, err
		}
	}
}

func stripHTML(s string) string {
	s = htmlScriptBody.ReplaceAllString(s, " ")
	s = htmlTag.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

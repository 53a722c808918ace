package telegram

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// InputFile describes a file part streamed into a multipart upload.
type InputFile struct {
	// Field is the form field name ("video", "audio" or "document").
	Field string
	// Name is the filename announced to the API.
	Name string
	// MIMEType is sent as the part's Content-Type.
	MIMEType string
	// Reader yields exactly Size bytes of file content.
	Reader io.Reader
	Size   int64
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// newMultipartBody builds a streaming multipart/form-data body made of a
// chat_id field and one file part. The framing is rendered up front so the
// exact content length is known without buffering the file.
func newMultipartBody(chatID string, file InputFile) (io.Reader, string, int64) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	// Writes to a bytes.Buffer cannot fail.
	_ = mw.WriteField("chat_id", chatID)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(file.Field), quoteEscaper.Replace(file.Name)))
	h.Set("Content-Type", file.MIMEType)
	_, _ = mw.CreatePart(h)

	headLen := buf.Len()
	_ = mw.Close()
	framing := buf.Bytes()
	head, tail := framing[:headLen], framing[headLen:]

	body := io.MultiReader(
		bytes.NewReader(head),
		io.LimitReader(file.Reader, file.Size),
		bytes.NewReader(tail),
	)
	length := int64(len(head)) + file.Size + int64(len(tail))
	return body, mw.FormDataContentType(), length
}

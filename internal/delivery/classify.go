package delivery

import (
	"path/filepath"
	"strings"
)

// Endpoint is the Bot API method used to upload a file.
type Endpoint string

// Upload endpoints.
const (
	EndpointVideo    Endpoint = "sendVideo"
	EndpointAudio    Endpoint = "sendAudio"
	EndpointDocument Endpoint = "sendDocument"
)

// Field is the multipart form field carrying the file.
type Field string

// Upload form fields.
const (
	FieldVideo    Field = "video"
	FieldAudio    Field = "audio"
	FieldDocument Field = "document"
)

// Classification routes and labels an upload.
type Classification struct {
	MIMEType string
	Endpoint Endpoint
	Field    Field
}

var videoExtensions = map[string]struct{}{
	"mp4":  {},
	"mkv":  {},
	"webm": {},
	"mov":  {},
	"avi":  {},
}

// Audio MIME types vary per extension; the endpoint and field do not.
var audioMIMETypes = map[string]string{
	"mp3":  "audio/mpeg",
	"m4a":  "audio/mp4",
	"opus": "audio/ogg",
	"flac": "audio/flac",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
}

var (
	videoClass    = Classification{MIMEType: "video/mp4", Endpoint: EndpointVideo, Field: FieldVideo}
	documentClass = Classification{MIMEType: "application/octet-stream", Endpoint: EndpointDocument, Field: FieldDocument}
)

// Classify maps a file extension (with or without the leading dot) to its
// upload classification. It is case-insensitive and total: unknown
// extensions are sent as documents.
func Classify(extension string) Classification {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))

	if _, ok := videoExtensions[ext]; ok {
		return videoClass
	}
	if mime, ok := audioMIMETypes[ext]; ok {
		return Classification{MIMEType: mime, Endpoint: EndpointAudio, Field: FieldAudio}
	}
	return documentClass
}

// Extension returns the extension of path without the leading dot.
func Extension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

package upstream

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
)

// FileField is a single file part of a multipart upload.
type FileField struct {
	// FieldName is the form field name, e.g. "file".
	FieldName string
	FileName  string
	// ContentType is sent as the part's Content-Type. When empty it is guessed
	// from the FileName extension, then falls back to application/octet-stream.
	ContentType string
	Data        []byte
}

// encodeMultipart writes the file into a multipart/form-data body and
// returns it with the matching Content-Type header value.
func encodeMultipart(f FileField) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	contentType := f.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(f.FileName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		`form-data; name="`+escapeQuotes(f.FieldName)+`"; filename="`+escapeQuotes(f.FileName)+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}

	if _, err := part.Write(f.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	var buf bytes.Buffer
	for _, b := range []byte(s) {
		if b == '"' || b == '\\' {
			buf.WriteByte('\\')
		}
		buf.WriteByte(b)
	}
	return buf.String()
}

package restclient

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
)

// sizeUnknown marks a body whose encoded length cannot be determined upfront.
const sizeUnknown int64 = -1

// Body is a request payload. Implementations form a closed set of tagged
// body kinds; the request builder dispatches on the concrete kind to pick the
// wire encoding and Content-Type, rather than inspecting arbitrary values.
type Body interface {
	encode() (io.Reader, string, int64, error)
}

// jsonBody carries a value serialized as JSON.
type jsonBody struct {
	v any
}

// JSON wraps a value to be sent as an application/json body.
func JSON(v any) Body {
	return jsonBody{v: v}
}

func (b jsonBody) encode() (io.Reader, string, int64, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", 0, err
	}
	return bytes.NewReader(data), "application/json", int64(len(data)), nil
}

// rawBody carries pre-encoded bytes with an explicit content type.
type rawBody struct {
	data        []byte
	contentType string
}

// Raw wraps pre-encoded bytes with an explicit content type, e.g. XML.
func Raw(data []byte, contentType string) Body {
	return rawBody{data: data, contentType: contentType}
}

func (b rawBody) encode() (io.Reader, string, int64, error) {
	return bytes.NewReader(b.data), b.contentType, int64(len(b.data)), nil
}

// textBody carries a plain-text payload.
type textBody struct {
	s string
}

// Text wraps a string to be sent as a text/plain body.
func Text(s string) Body {
	return textBody{s: s}
}

func (b textBody) encode() (io.Reader, string, int64, error) {
	return strings.NewReader(b.s), "text/plain", int64(len(b.s)), nil
}

// formBody carries URL-encoded form values.
type formBody struct {
	values url.Values
}

// Form wraps form values to be sent as an
// application/x-www-form-urlencoded body.
func Form(values url.Values) Body {
	return formBody{values: values}
}

func (b formBody) encode() (io.Reader, string, int64, error) {
	s := b.values.Encode()
	return strings.NewReader(s), "application/x-www-form-urlencoded", int64(len(s)), nil
}

// File describes a file to include in a multipart upload.
type File struct {
	// Name is the file name sent to the server.
	Name string
	// ContentType is the MIME type. If empty, application/octet-stream is used.
	ContentType string
	// Data is the file content. Used if Reader is nil.
	Data []byte
	// Reader is an alternative to Data for content that is not in memory.
	Reader io.Reader
}

// multipartBody is a multipart/form-data payload holding one file plus any
// number of scalar fields.
type multipartBody struct {
	fields    map[string]string
	fieldName string
	file      File
}

func (b multipartBody) encode() (io.Reader, string, int64, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range b.fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", 0, err
		}
	}

	fieldName := b.fieldName
	if fieldName == "" {
		fieldName = defaultFileField
	}

	var part io.Writer
	var err error
	if b.file.ContentType != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			`form-data; name="`+escapeQuotes(fieldName)+`"; filename="`+escapeQuotes(b.file.Name)+`"`)
		header.Set("Content-Type", b.file.ContentType)
		part, err = w.CreatePart(header)
	} else {
		part, err = w.CreateFormFile(fieldName, b.file.Name)
	}
	if err != nil {
		return nil, "", 0, err
	}

	if b.file.Data != nil {
		_, err = part.Write(b.file.Data)
	} else if b.file.Reader != nil {
		_, err = io.Copy(part, b.file.Reader)
	}
	if err != nil {
		return nil, "", 0, err
	}

	if err := w.Close(); err != nil {
		return nil, "", 0, err
	}

	return &buf, w.FormDataContentType(), int64(buf.Len()), nil
}

// escapeQuotes replaces special characters in header values.
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

package httpclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// PayloadKind says where a request body comes from.
type PayloadKind string

const (
	PayloadNone   PayloadKind = "none"
	PayloadInline PayloadKind = "inline"
	PayloadFile   PayloadKind = "file"
)

// Payload is the request body shared by every client. Each request reads it
// through its own reader.
type Payload struct {
	kind PayloadKind
	size int64
	data []byte
	path string
}

// LoadPayload resolves the body settings once. A body file is stat'ed here and
// re-opened per request; it must keep the size it had at load time because
// every request advertises that size as Content-Length.
func LoadPayload(body, bodyFile string) (*Payload, error) {
	bodyFile = strings.TrimSpace(bodyFile)
	switch {
	case body != "" && bodyFile != "":
		return nil, errors.New("body and body file cannot both be provided")
	case body != "":
		return &Payload{kind: PayloadInline, size: int64(len(body)), data: []byte(body)}, nil
	case bodyFile == "":
		return &Payload{kind: PayloadNone}, nil
	}

	info, err := os.Stat(bodyFile)
	if err != nil {
		return nil, fmt.Errorf("body file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("body file %q is a directory", bodyFile)
	}
	return &Payload{kind: PayloadFile, size: info.Size(), path: bodyFile}, nil
}

func (p *Payload) Kind() PayloadKind { return p.kind }

// Size is the Content-Length sent with every request.
func (p *Payload) Size() int64 { return p.size }

// String describes the payload for the run banner.
func (p *Payload) String() string {
	switch p.kind {
	case PayloadInline:
		return fmt.Sprintf("inline, %d bytes", p.size)
	case PayloadFile:
		return fmt.Sprintf("%s, %d bytes", p.path, p.size)
	default:
		return string(PayloadNone)
	}
}

// Open returns a reader positioned at the start of the payload.
func (p *Payload) Open() (io.ReadCloser, error) {
	switch p.kind {
	case PayloadInline:
		return io.NopCloser(bytes.NewReader(p.data)), nil
	case PayloadFile:
		return p.openFile()
	default:
		return http.NoBody, nil
	}
}

func (p *Payload) openFile() (io.ReadCloser, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.Size() != p.size {
		_ = f.Close()
		return nil, fmt.Errorf("body file %q changed size: %d bytes, loaded with %d", p.path, info.Size(), p.size)
	}
	return f, nil
}

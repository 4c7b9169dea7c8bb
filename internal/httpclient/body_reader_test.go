package httpclient

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func readPayload(t *testing.T, p *Payload) string {
	t.Helper()
	rc, err := p.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return string(got)
}

func TestLoadPayload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "body.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name     string
		body     string
		bodyFile string
		want     string
		kind     PayloadKind
		desc     string
		wantErr  bool
	}{
		{name: "both body and body file", body: "inline", bodyFile: path, wantErr: true},
		{name: "inline body", body: "hello world", want: "hello world", kind: PayloadInline, desc: "inline, 11 bytes"},
		{name: "file body", bodyFile: "  " + path + " ", want: `{"from":"file"}`, kind: PayloadFile, desc: path + ", 15 bytes"},
		{name: "missing file", bodyFile: filepath.Join(dir, "absent"), wantErr: true},
		{name: "directory as file", bodyFile: dir, wantErr: true},
		{name: "no body", want: "", kind: PayloadNone, desc: "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LoadPayload(tt.body, tt.bodyFile)
			if tt.wantErr {
				if err == nil {
					t.Fatal("LoadPayload() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadPayload() error = %v", err)
			}

			if p.Kind() != tt.kind {
				t.Errorf("Kind() = %q, want %q", p.Kind(), tt.kind)
			}
			if p.Size() != int64(len(tt.want)) {
				t.Errorf("Size() = %d, want %d", p.Size(), len(tt.want))
			}
			if p.String() != tt.desc {
				t.Errorf("String() = %q, want %q", p.String(), tt.desc)
			}
			// Every reader starts from the beginning.
			for i := 0; i < 2; i++ {
				if got := readPayload(t, p); got != tt.want {
					t.Errorf("read %d = %q, want %q", i, got, tt.want)
				}
			}
		})
	}
}

func TestPayloadOpenAfterRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	p, err := LoadPayload("", path)
	if err != nil {
		t.Fatalf("LoadPayload() error = %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := p.Open(); err == nil {
		t.Error("Open() after removal error = nil, want error")
	}
}

func TestPayloadOpenRejectsResizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.txt")
	if err := os.WriteFile(path, []byte("short"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	p, err := LoadPayload("", path)
	if err != nil {
		t.Fatalf("LoadPayload() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("much longer than before"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := p.Open(); err == nil {
		t.Error("Open() on a resized file error = nil, want error")
	}
}

package server

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"testing"
)

func TestSpool(t *testing.T) {
	content := strings.Repeat("It was the best of times. ", 1000)
	sf, err := spool(strings.NewReader(content))
	if err != nil {
		t.Fatalf("spool: %v", err)
	}
	name := sf.f.Name()

	sum := sha256.Sum256([]byte(content))
	if sf.sha256Hex != hex.EncodeToString(sum[:]) {
		t.Errorf("sha256 = %s", sf.sha256Hex)
	}
	if sf.size != int64(len(content)) {
		t.Errorf("size = %d, want %d", sf.size, len(content))
	}

	// Each Reader starts from the beginning.
	for i := 0; i < 2; i++ {
		b, err := io.ReadAll(sf.Reader())
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != content {
			t.Errorf("read %d returned %d bytes", i, len(b))
		}
	}

	if err := sf.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if _, err := os.Stat(name); !os.IsNotExist(err) {
		t.Errorf("Expected temp file removed, stat err = %v", err)
	}
}

package logging

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
)

func TestFromLogr(t *testing.T) {
	var lines []string
	l := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	log := FromLogr(l)
	log.Debug("polling", "address", 0x40000)
	log.Info("mounted", "blocks", 448)
	log.Error("probe failed", "source", "sdb", "error", errors.New("no card"))

	if len(lines) != 3 {
		t.Fatalf("got %d log lines, want 3: %v", len(lines), lines)
	}
	for i, want := range []string{`"address"=262144`, `"blocks"=448`, `"error"="no card"`} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %s, want substring %s", i, lines[i], want)
		}
	}
}

func TestSplitError(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		kv       []interface{}
		wantErr  string
		wantRest int
	}{
		{name: "no error key", kv: []interface{}{"a", 1}, wantErr: "unspecified error", wantRest: 2},
		{name: "error key", kv: []interface{}{"a", 1, "error", boom}, wantErr: "boom", wantRest: 2},
		{name: "error key not an error", kv: []interface{}{"error", "text"}, wantErr: "unspecified error", wantRest: 2},
		{name: "odd length", kv: []interface{}{"error"}, wantErr: "unspecified error", wantRest: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err, rest := splitError(tt.kv)
			if err.Error() != tt.wantErr {
				t.Errorf("err = %v, want %s", err, tt.wantErr)
			}
			if len(rest) != tt.wantRest {
				t.Errorf("len(rest) = %d, want %d", len(rest), tt.wantRest)
			}
		})
	}
}

func TestNop(t *testing.T) {
	var l Logger = Nop{}
	l.Debug("x")
	l.Info("x", "k", "v")
	l.Error("x", "error", errors.New("e"))
}

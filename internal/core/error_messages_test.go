package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/translocations/internal/importer"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil", nil, ""},
		{"not found wrapped", fmt.Errorf("update translocation abc: %w", ErrNotFound), "REC001"},
		{"validation", ValidationErrors{{Field: "year", Message: "must be a four digit year"}}, "REC002"},
		{"missing columns", &importer.MissingColumnsError{Missing: []string{"year"}}, "IMP001"},
		{"unsupported format", fmt.Errorf("%w: \"a.pdf\"", importer.ErrUnsupportedFormat), "IMP002"},
		{"too many imports", ErrTooManyImports, "IMP003"},
		{"empty file", importer.ErrEmptyFile, "IMP004"},
		{"file too large", importer.ErrFileTooLarge, "FILE001"},
		{"body too large", errors.New("http: request body too large"), "FILE001"},
		{"bad workbook", errors.New("read xls: malformed workbook: index out of range"), "FILE002"},
		{"bad xlsx", errors.New("read xlsx: zip: not a valid zip file"), "FILE002"},
		{"no file", errors.New("no file provided"), "FILE003"},
		{"multipart", errors.New("multipart: NextPart: EOF"), "FILE004"},
		{"duplicate id", errors.New("E11000 duplicate key error collection"), "DB001"},
		{"mongo down", errors.New("server selection error: context deadline exceeded"), "DB004"},
		{"pg down", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB004"},
		{"cancelled", fmt.Errorf("list translocations: %w", errors.New("context canceled")), "REQ001"},
		{"deadline", errors.New("context deadline exceeded"), "REQ002"},
		{"generic timeout", errors.New("i/o timeout"), "DB006"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"case insensitive", errors.New("TRANSLOCATION NOT FOUND"), "REC001"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Errorf("MapError(%v) has empty message", tt.err)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	want := "Translocation not found (Code: REC001). Refresh the list; the record may have been deleted or replaced by an import"
	if got := FormatUserError(ErrNotFound); got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrTooManyImports, true},
		{errors.New("segfault-ish"), false},
	}
	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestErrorPatternsHaveCodes(t *testing.T) {
	for _, ep := range errorPatterns {
		if ep.msg.Code == "" || ep.msg.Message == "" || ep.msg.Action == "" {
			t.Errorf("pattern %q has incomplete message %+v", ep.pattern, ep.msg)
		}
	}
}

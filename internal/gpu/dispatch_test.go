// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"testing"
)

// recordingEncoder counts the recording calls made on it.
type recordingEncoder struct {
	beginErr error
	begun    []string
	discards int
}

func (e *recordingEncoder) BeginEncoding(label string) error {
	e.begun = append(e.begun, label)
	return e.beginErr
}

func (e *recordingEncoder) DiscardEncoding() { e.discards++ }

func TestBeginEncodingDiscardsOnFailure(t *testing.T) {
	failure := errors.New("encoder pool exhausted")
	enc := &recordingEncoder{beginErr: failure}

	err := beginEncoding(enc, "reduce")
	if !errors.Is(err, failure) {
		t.Fatalf("beginEncoding() error = %v, want %v", err, failure)
	}
	if enc.discards != 1 {
		t.Errorf("DiscardEncoding called %d times after failed begin, want 1", enc.discards)
	}
}

func TestBeginEncodingKeepsOpenRecording(t *testing.T) {
	enc := &recordingEncoder{}

	if err := beginEncoding(enc, "reduce"); err != nil {
		t.Fatalf("beginEncoding() error = %v", err)
	}
	if len(enc.begun) != 1 || enc.begun[0] != "reduce" {
		t.Errorf("BeginEncoding labels = %v, want [reduce]", enc.begun)
	}
	if enc.discards != 0 {
		t.Errorf("DiscardEncoding called %d times on success, want 0", enc.discards)
	}
}

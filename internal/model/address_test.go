package model

import (
	"errors"
	"testing"
)

func TestCanonicalAddress(t *testing.T) {
	got, err := CanonicalAddress("0xd8da6bf26964af9d7eed9e03e53415d37aa96045")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
	if got != want {
		t.Fatalf("canonical mismatch: %s != %s", got, want)
	}
}

func TestCanonicalAddressIdempotent(t *testing.T) {
	first, err := CanonicalAddress("0XD8DA6BF26964AF9D7EED9E03E53415D37AA96045")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := CanonicalAddress(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("canonical form not stable: %s != %s", first, second)
	}
}

func TestCanonicalAddressInvalid(t *testing.T) {
	cases := []string{
		"",
		"0x123",
		"d8da6bf26964af9d7eed9e03e53415d37aa96045",
		"0xZZda6bf26964af9d7eed9e03e53415d37aa96045",
		"hello",
	}

	for _, raw := range cases {
		if _, err := CanonicalAddress(raw); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("expected ErrInvalidAddress for %q, got %v", raw, err)
		}
	}
}

func TestIsValidAddress(t *testing.T) {
	if !IsValidAddress("0xd8da6bf26964af9d7eed9e03e53415d37aa96045") {
		t.Fatalf("expected valid address")
	}
	if IsValidAddress("0x123") {
		t.Fatalf("expected invalid address")
	}
}

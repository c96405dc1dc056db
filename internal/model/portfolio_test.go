package model

import (
	"math"
	"testing"
)

func TestFinalizeTotals(t *testing.T) {
	s := &PortfolioSnapshot{
		EthBalance: 1.5,
		Holdings: []TokenHolding{
			{Contract: "0xB", Symbol: "BBB", EthValue: 0.25},
			{Contract: "0xA", Symbol: "AAA", EthValue: 2.0},
			{Contract: "0xC", Symbol: "CCC", EthValue: 0},
		},
	}
	s.Finalize()

	if math.Abs(s.TokenEthValue-2.25) > 1e-12 {
		t.Fatalf("token total mismatch: %f", s.TokenEthValue)
	}
	if math.Abs(s.TotalEth-3.75) > 1e-12 {
		t.Fatalf("portfolio total mismatch: %f", s.TotalEth)
	}
}

func TestFinalizeOrdering(t *testing.T) {
	s := &PortfolioSnapshot{
		Holdings: []TokenHolding{
			{Contract: "0xC", Symbol: "LOW", EthValue: 0.1},
			{Contract: "0xA", Symbol: "HIGH", EthValue: 5.0},
			{Contract: "0xB", Symbol: "MID", EthValue: 1.0},
		},
	}
	s.Finalize()

	want := []string{"HIGH", "MID", "LOW"}
	for i, symbol := range want {
		if s.Holdings[i].Symbol != symbol {
			t.Fatalf("position %d: got %s, want %s", i, s.Holdings[i].Symbol, symbol)
		}
	}
}

func TestFinalizeTiesKeepDiscoveryOrder(t *testing.T) {
	s := &PortfolioSnapshot{
		Holdings: []TokenHolding{
			{Contract: "0xZ", Symbol: "FIRST", EthValue: 0},
			{Contract: "0xA", Symbol: "SECOND", EthValue: 0},
		},
	}
	s.Finalize()

	if s.Holdings[0].Symbol != "FIRST" || s.Holdings[1].Symbol != "SECOND" {
		t.Fatalf("tie order changed: %+v", s.Holdings)
	}
}

// The token total must come out the same regardless of the order the
// holdings were discovered in.
func TestFinalizeTotalOrderIndependent(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 1e-9, 7.5}
	contracts := []string{"0xD", "0xB", "0xE", "0xA", "0xC"}

	forward := &PortfolioSnapshot{}
	for i := range values {
		forward.Holdings = append(forward.Holdings, TokenHolding{Contract: contracts[i], EthValue: values[i]})
	}
	forward.Finalize()

	reversed := &PortfolioSnapshot{}
	for i := len(values) - 1; i >= 0; i-- {
		reversed.Holdings = append(reversed.Holdings, TokenHolding{Contract: contracts[i], EthValue: values[i]})
	}
	reversed.Finalize()

	if forward.TokenEthValue != reversed.TokenEthValue {
		t.Fatalf("total depends on discovery order: %v != %v", forward.TokenEthValue, reversed.TokenEthValue)
	}
}

func TestFinalizeEmpty(t *testing.T) {
	s := &PortfolioSnapshot{EthBalance: 0.5}
	s.Finalize()

	if s.TokenEthValue != 0 {
		t.Fatalf("expected zero token total, got %f", s.TokenEthValue)
	}
	if s.TotalEth != 0.5 {
		t.Fatalf("expected total 0.5, got %f", s.TotalEth)
	}
}

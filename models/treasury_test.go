package models

import (
	"errors"
	"testing"
)

func TestStatusForSignatureCount(t *testing.T) {
	cases := []struct {
		signatures int
		required   int
		want       TreasuryTransactionStatus
	}{
		{0, 1, TreasuryTransactionStatusFullySigned},
		{1, 1, TreasuryTransactionStatusFullySigned},
		{1, 0, TreasuryTransactionStatusFullySigned},
		{1, 3, TreasuryTransactionStatusPending},
		{2, 3, TreasuryTransactionStatusPartiallySigned},
		{3, 3, TreasuryTransactionStatusFullySigned},
		{5, 3, TreasuryTransactionStatusFullySigned},
	}
	for _, c := range cases {
		if got := StatusForSignatureCount(c.signatures, c.required); got != c.want {
			t.Fatalf("signatures=%d required=%d: expected %s, got %s", c.signatures, c.required, c.want, got)
		}
	}
}

func TestCanExecute(t *testing.T) {
	txn := TreasuryTransaction{Status: TreasuryTransactionStatusPartiallySigned}
	if err := txn.CanExecute(); !errors.Is(err, ErrTransactionNotSigned) {
		t.Fatalf("partially signed: expected ErrTransactionNotSigned, got %v", err)
	}

	txn.Status = TreasuryTransactionStatusFullySigned
	if err := txn.CanExecute(); err != nil {
		t.Fatalf("fully signed: expected nil, got %v", err)
	}

	txn.Status = TreasuryTransactionStatusExecuted
	if err := txn.CanExecute(); !errors.Is(err, ErrTransactionTerminal) {
		t.Fatalf("executed: expected ErrTransactionTerminal, got %v", err)
	}

	txn.Status = TreasuryTransactionStatusRejected
	if err := txn.CanExecute(); !errors.Is(err, ErrTransactionTerminal) {
		t.Fatalf("rejected: expected ErrTransactionTerminal, got %v", err)
	}
}

func TestCanSign(t *testing.T) {
	wallet := TreasuryWallet{
		Signers: []TreasurySigner{
			{UserId: "alice"},
			{UserId: "bob"},
		},
	}
	txn := TreasuryTransaction{
		Status:     TreasuryTransactionStatusPending,
		Signatures: []TreasuryTransactionSignature{{SignerId: "alice"}},
	}

	if err := txn.CanSign(wallet, "bob"); err != nil {
		t.Fatalf("valid signer: expected nil, got %v", err)
	}
	if err := txn.CanSign(wallet, "mallory"); !errors.Is(err, ErrNotASigner) {
		t.Fatalf("non-signer: expected ErrNotASigner, got %v", err)
	}
	if err := txn.CanSign(wallet, "alice"); !errors.Is(err, ErrAlreadySigned) {
		t.Fatalf("duplicate signer: expected ErrAlreadySigned, got %v", err)
	}

	txn.Status = TreasuryTransactionStatusExecuted
	if err := txn.CanSign(wallet, "bob"); !errors.Is(err, ErrTransactionTerminal) {
		t.Fatalf("terminal transaction: expected ErrTransactionTerminal, got %v", err)
	}
}

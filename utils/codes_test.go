package utils

import (
	"errors"
	"testing"
)

func TestCreateCodeValidation(t *testing.T) {
	resetState()

	if err := CreateCode("BAD", 0, 1); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Zero-coin code should be ErrInvalidAmount, got %v", err)
	}
	if err := CreateCode("BAD", 100, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Zero-use code should be ErrInvalidAmount, got %v", err)
	}
}

func TestCreateCodeDuplicate(t *testing.T) {
	resetState()

	if err := CreateCode("LAUNCH", 100, 5); err != nil {
		t.Fatalf("CreateCode failed: %v", err)
	}
	if err := CreateCode("LAUNCH", 200, 1); !errors.Is(err, ErrDuplicateCode) {
		t.Errorf("Expected ErrDuplicateCode, got %v", err)
	}
}

func TestRedeemCreditsOnce(t *testing.T) {
	resetState()
	seedAccount(t, "alice", 0)

	if err := CreateCode("WELCOME", 500, 10); err != nil {
		t.Fatalf("CreateCode failed: %v", err)
	}

	coins, acct, err := Redeem("alice", "WELCOME")
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if coins != 500 {
		t.Errorf("Expected 500 coins, got %d", coins)
	}
	if acct.Balance != 500 {
		t.Errorf("Expected balance 500, got %.2f", acct.Balance)
	}

	// The same identity cannot redeem twice
	if _, _, err := Redeem("alice", "WELCOME"); !errors.Is(err, ErrCodeAlreadyUsed) {
		t.Errorf("Expected ErrCodeAlreadyUsed, got %v", err)
	}
	acct, _ = GetAccount("alice", "")
	if acct.Balance != 500 {
		t.Errorf("Rejected redeem changed balance: got %.2f", acct.Balance)
	}
}

func TestRedeemExhausted(t *testing.T) {
	resetState()
	seedAccount(t, "bob", 0)
	seedAccount(t, "carol", 0)

	if err := CreateCode("RARE", 50, 1); err != nil {
		t.Fatalf("CreateCode failed: %v", err)
	}

	if _, _, err := Redeem("bob", "RARE"); err != nil {
		t.Fatalf("First redeem failed: %v", err)
	}
	if _, _, err := Redeem("carol", "RARE"); !errors.Is(err, ErrCodeExhausted) {
		t.Errorf("Expected ErrCodeExhausted, got %v", err)
	}

	code, err := GetCode("RARE")
	if err != nil {
		t.Fatalf("GetCode failed: %v", err)
	}
	if code.CurrentUses != 1 {
		t.Errorf("Expected 1 use recorded, got %d", code.CurrentUses)
	}
}

func TestRedeemUnknownCode(t *testing.T) {
	resetState()
	seedAccount(t, "dave", 0)

	if _, _, err := Redeem("dave", "NOPE"); !errors.Is(err, ErrCodeNotFound) {
		t.Errorf("Expected ErrCodeNotFound, got %v", err)
	}
}

func TestListCodes(t *testing.T) {
	resetState()

	if err := CreateCode("A", 10, 1); err != nil {
		t.Fatalf("CreateCode failed: %v", err)
	}
	if err := CreateCode("B", 20, 2); err != nil {
		t.Fatalf("CreateCode failed: %v", err)
	}

	codes, err := ListCodes()
	if err != nil {
		t.Fatalf("ListCodes failed: %v", err)
	}
	if len(codes) != 2 {
		t.Errorf("Expected 2 codes, got %d", len(codes))
	}
}

package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseSpendingType(t *testing.T) {
	cases := []struct {
		in   string
		want SpendingType
		ok   bool
	}{
		{"EarningMoney", EarningMoney, true},
		{"Earning Money", EarningMoney, true},
		{"earningmoney", EarningMoney, true},
		{" Investment ", Investment, true},
		{"Spending", Spending, true},
		{"bills", Bills, true},
		{"Gift", "", false},
		{"Spend ing", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseSpendingType(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidSpendingType) {
			t.Fatalf("%q expected ErrInvalidSpendingType, got %v", tc.in, err)
		}
	}
}

func TestSpendingTypeSign(t *testing.T) {
	amt := decimal.NewFromInt(50)
	if got := EarningMoney.Sign(amt); !got.Equal(amt) {
		t.Fatalf("earning should stay positive, got %s", got)
	}
	for _, st := range []SpendingType{Investment, Spending, Bills} {
		if got := st.Sign(amt); !got.Equal(amt.Neg()) {
			t.Fatalf("%s should be negated, got %s", st, got)
		}
	}
	if err := SpendingType("Gift").Validate(); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestTransactionRequestValidate(t *testing.T) {
	good := TransactionRequest{SpendingType: "Bills", Amount: decimal.NewFromInt(10)}
	if st, err := good.Validate(); err != nil || st != Bills {
		t.Fatalf("expected ok, got %s %v", st, err)
	}

	bads := []struct {
		req  TransactionRequest
		want error
	}{
		{TransactionRequest{SpendingType: "Gift", Amount: decimal.NewFromInt(1)}, ErrInvalidSpendingType},
		{TransactionRequest{SpendingType: "Bills", Amount: decimal.Zero}, ErrInvalidAmount},
		{TransactionRequest{SpendingType: "Bills", Amount: decimal.NewFromInt(-3)}, ErrInvalidAmount},
	}
	for i, tc := range bads {
		if _, err := tc.req.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestAccountFields(t *testing.T) {
	var a Account
	v := decimal.RequireFromString("12.34")
	for f := FieldBalance; f <= FieldCurrentInvestments; f++ {
		if _, ok := f.Column(); !ok {
			t.Fatalf("field %d has no column", f)
		}
		if !a.Set(f, v) {
			t.Fatalf("set %s failed", f)
		}
		got, ok := a.Get(f)
		if !ok || !got.Equal(v) {
			t.Fatalf("get %s = %s", f, got)
		}
	}
	if _, ok := AccountField(99).Column(); ok {
		t.Fatalf("unknown field should not map to a column")
	}
	if a.Set(AccountField(0), v) {
		t.Fatalf("unknown field should not be settable")
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &ProcessingError{Step: StepApply, Err: &StorageError{Op: "insert transaction", Err: cause}}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable")
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "insert transaction" {
		t.Fatalf("expected StorageError in chain")
	}
}

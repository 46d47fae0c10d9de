package validation

import "testing"

func validRequest() CheckoutRequest {
	return CheckoutRequest{
		Items: []CheckoutItem{
			{ProductID: "p1", ProductName: "VIP Rank", Quantity: 1, Price: 49.90, Commands: []string{"lp user {player} parent set vip"}},
		},
		PlayerNickname: "Steve",
		Email:          "steve@example.com",
	}
}

func TestCheckoutRequest_Valid(t *testing.T) {
	v := New()
	if err := v.Struct(validRequest()); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestCheckoutRequest_EmptyItems(t *testing.T) {
	v := New()
	req := validRequest()
	req.Items = nil
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for empty items")
	}
}

func TestCheckoutRequest_WhitespaceNickname(t *testing.T) {
	v := New()
	req := validRequest()
	req.PlayerNickname = "   "
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for whitespace-only nickname")
	}
}

func TestCheckoutRequest_WhitespaceEmail(t *testing.T) {
	v := New()
	req := validRequest()
	req.Email = "\t "
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for whitespace-only email")
	}
}

func TestCheckoutRequest_NonEmptyEmailAccepted(t *testing.T) {
	// the contract only demands non-empty; no format validation
	v := New()
	req := validRequest()
	req.Email = "not-an-email"
	if err := v.Struct(req); err != nil {
		t.Fatalf("format validation is out of contract: %v", err)
	}
}

func TestCheckoutRequest_ZeroQuantity(t *testing.T) {
	v := New()
	req := validRequest()
	req.Items[0].Quantity = 0
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for zero quantity")
	}
}

func TestCheckoutRequest_ItemWithoutCommands(t *testing.T) {
	v := New()
	req := validRequest()
	req.Items[0].Commands = nil
	if err := v.Struct(req); err == nil {
		t.Fatal("expected validation error for item without commands")
	}
}

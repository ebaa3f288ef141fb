package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hextract/parking-net/internal/domain"
	ucassert "github.com/hextract/parking-net/internal/usecase/assert"
	"github.com/hextract/parking-net/internal/usecase/scenario"
)

const (
	promoAmount  = 1000
	promoMaxUses = 5
	// generateAmount is what the driver moves into a self-generated code.
	generateAmount = 10
)

type codeBody struct {
	Code string `json:"code"`
}

type amountBody struct {
	Amount int64 `json:"amount"`
}

func promoCodeName(sc *scenario.Scope) string {
	return "E2E" + strings.ToUpper(sc.Fake.LetterN(8))
}

func balanceWithoutToken(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	res := sc.Services.Payment.Anonymous().Get(ctx, "/payment/balance", nil)
	if !sc.ExpectOneOf("Get Balance Without Token", res, ucassert.MissingCredential) {
		return sc.Failure()
	}
	return sc.Passf("Balance without token correctly rejected with %d", res.Status)
}

func driverBalance(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	res := sc.Services.Payment.As(sc.State.Driver.Token).Get(ctx, "/payment/balance", nil)
	if !sc.Expect("Get Driver Balance", res, 200) {
		return sc.Failure()
	}
	if !sc.ExpectPaths(res, ucassert.Exists("$.currency")) {
		return sc.Failure()
	}
	b, _ := domain.DecodeAs[domain.Balance](res)
	return sc.Passf("Driver balance: %s %s", money(b.Balance), b.Currency)
}

func createPromocode(ctx context.Context, sc *scenario.Scope, in domain.PromocodeInput) (domain.Promocode, domain.Result) {
	res := sc.Services.Payment.As(sc.State.Admin.Token).Post(ctx, "/payment/promocode/create", in)
	p, _ := domain.DecodeAs[domain.Promocode](res)
	return p, res
}

func adminCreatesPromocode(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	in := domain.PromocodeInput{
		Code:    promoCodeName(sc),
		Amount:  promoAmount,
		MaxUses: promoMaxUses,
	}
	p, res := createPromocode(ctx, sc, in)
	if !sc.Expect("Admin Create Promocode", res, 200) {
		return sc.Failure()
	}
	if p.Code == "" {
		return sc.Failf("No code in response. Response: %s", res.Diagnostic())
	}
	if !p.Amount.Equal(decimal.NewFromInt(in.Amount)) {
		return sc.Failf("Expected amount %d, got %s", in.Amount, p.Amount)
	}
	if p.MaxUses != in.MaxUses {
		return sc.Failf("Expected max_uses %d, got %d", in.MaxUses, p.MaxUses)
	}
	sc.State.AddPromoCode(p.Code, p.Amount)
	return sc.Passf("Promocode %s created: amount %s, max uses %d", p.Code, money(p.Amount), p.MaxUses)
}

func promocodeInfo(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	code, _ := sc.State.FirstPromoCode()
	res := sc.Services.Payment.As(sc.State.Admin.Token).Get(ctx, "/payment/promocode/"+code, nil)
	if !sc.Expect("Get Promocode Info", res, 200) {
		return sc.Failure()
	}
	p, _ := domain.DecodeAs[domain.Promocode](res)
	if p.Code != code {
		return sc.Failf("Expected code %q, got %q", code, p.Code)
	}
	if p.RemainingUses != p.MaxUses-p.UsedCount {
		return sc.Failf("remaining_uses %d != max_uses %d - used_count %d", p.RemainingUses, p.MaxUses, p.UsedCount)
	}
	if !p.IsActive {
		return sc.Failf("Expected promocode %s to be active", code)
	}
	return sc.Passf("Promocode %s: %d of %d uses remaining", code, p.RemainingUses, p.MaxUses)
}

func driverCannotCreatePromocode(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	res := sc.Services.Payment.As(sc.State.Driver.Token).Post(ctx, "/payment/promocode/create", domain.PromocodeInput{
		Amount:  promoAmount,
		MaxUses: 1,
	})
	if !sc.Expect("Driver Create Promocode Forbidden", res, 403) {
		return sc.Failure()
	}
	return sc.Passf("Driver correctly forbidden from creating promocodes")
}

func activateUnknownPromocode(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	code := "NOPE" + strings.ToUpper(sc.Fake.LetterN(10))
	res := sc.Services.Payment.As(sc.State.Driver.Token).Post(ctx, "/payment/promocode/activate", codeBody{Code: code})
	if !sc.ExpectOneOf("Activate Unknown Promocode", res, ucassert.UnknownCode) {
		return sc.Failure()
	}
	return sc.Passf("Unknown promocode correctly rejected with %d", res.Status)
}

// activatePromocode redeems the first minted code and checks the credit is
// applied exactly once.
func activatePromocode(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	d := &sc.State.Driver
	pay := sc.Services.Payment.As(d.Token)
	code, _ := sc.State.FirstPromoCode()
	amount := sc.State.PromoAmount(code)

	before, res, ok := balanceOf(ctx, sc, d.Token)
	if !ok {
		sc.Expect("Get Balance Before Activation", res, 200)
		return sc.Failure()
	}

	res = pay.Post(ctx, "/payment/promocode/activate", codeBody{Code: code})
	if !sc.Expect("Activate Promocode", res, 200) {
		return sc.Failure()
	}

	after, res, ok := balanceOf(ctx, sc, d.Token)
	if !ok {
		sc.Expect("Get Balance After Activation", res, 200)
		return sc.Failure()
	}
	if !after.Equal(before.Add(amount)) {
		return sc.Failf("Expected balance %s + %s = %s, got %s", money(before), money(amount), money(before.Add(amount)), money(after))
	}

	second := pay.Post(ctx, "/payment/promocode/activate", codeBody{Code: code})
	if second.Unavailable() {
		sc.Expect("Activate Promocode Again", second, 400)
		return sc.Failure()
	}
	again, res, ok := balanceOf(ctx, sc, d.Token)
	if !ok {
		sc.Expect("Get Balance After Second Activation", res, 200)
		return sc.Failure()
	}
	if !again.Equal(after) {
		return sc.Failf("Second activation changed balance from %s to %s", money(after), money(again))
	}
	return sc.Passf("Promocode %s credited %s once (second activation: %d)", code, money(amount), second.Status)
}

func activateExpiredPromocode(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	in := domain.PromocodeInput{
		Code:      promoCodeName(sc),
		Amount:    promoAmount,
		MaxUses:   1,
		ExpiresAt: sc.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	}
	p, res := createPromocode(ctx, sc, in)
	if res.Status != 200 {
		return sc.Skipf("Could not create an expired promocode (status %d: %s)", res.Status, res.Diagnostic())
	}
	code := p.Code
	if code == "" {
		code = in.Code
	}

	res = sc.Services.Payment.As(sc.State.Driver.Token).Post(ctx, "/payment/promocode/activate", codeBody{Code: code})
	if !sc.ExpectOneOf("Activate Expired Promocode", res, ucassert.UnknownCode) {
		return sc.Failure()
	}
	return sc.Passf("Expired promocode correctly rejected with %d", res.Status)
}

// driverGeneratesPromocode moves part of the driver's balance into a new code
// and checks a request above the balance is refused.
func driverGeneratesPromocode(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	d := &sc.State.Driver
	pay := sc.Services.Payment.As(d.Token)

	bal, res, ok := balanceOf(ctx, sc, d.Token)
	if !ok {
		sc.Expect("Get Balance Before Generate", res, 200)
		return sc.Failure()
	}
	if bal.LessThan(decimal.NewFromInt(generateAmount)) {
		return sc.Skipf("Driver balance %s is below %d", money(bal), generateAmount)
	}

	res = pay.Post(ctx, "/payment/promocode/generate", amountBody{Amount: generateAmount})
	if !sc.Expect("Driver Generate Promocode", res, 200) {
		return sc.Failure()
	}
	p, _ := domain.DecodeAs[domain.Promocode](res)
	if p.Code == "" {
		return sc.Failf("No code in response. Response: %s", res.Diagnostic())
	}
	sc.State.AddPromoCode(p.Code, decimal.NewFromInt(generateAmount))
	sc.State.GeneratedCodes = append(sc.State.GeneratedCodes, p.Code)

	over := bal.IntPart() + 1_000_000
	res = pay.Post(ctx, "/payment/promocode/generate", amountBody{Amount: over})
	if !sc.Expect("Driver Generate Promocode Above Balance", res, 400) {
		return sc.Failure()
	}
	if !sc.ExpectPaths(res, ucassert.ContainsText("$.error_message", "insufficient funds")) {
		return sc.Failure()
	}
	return sc.Passf("Driver generated promocode %s", p.Code)
}

func transactionsHistory(ctx context.Context, sc *scenario.Scope) domain.Outcome {
	res := sc.Services.Payment.As(sc.State.Driver.Token).Get(ctx, "/payment/transactions", nil)
	if !sc.Expect("Get Transactions", res, 200) {
		return sc.Failure()
	}
	list, ok := domain.DecodeAs[[]domain.Transaction](res)
	if !ok {
		return sc.Failf("Expected transactions list, got %s", res.Diagnostic())
	}

	counts := map[string]int{}
	for _, tx := range list {
		counts[tx.TransactionType]++
	}
	if counts[domain.TransactionPromocodeActivate] == 0 {
		if len(sc.State.PromoCodes) == 0 {
			return sc.Skipf("No promocode was activated in this run")
		}
		return sc.Failf("Expected a %s transaction among %d, got types %v", domain.TransactionPromocodeActivate, len(list), counts)
	}
	if n := len(sc.State.GeneratedCodes); n > counts[domain.TransactionPromocodeGenerate] {
		return sc.Failf("Expected %d %s transaction(s), got %d", n, domain.TransactionPromocodeGenerate, counts[domain.TransactionPromocodeGenerate])
	}
	return sc.Passf("%d transactions: %s", len(list), formatCounts(counts))
}

func formatCounts(counts map[string]int) string {
	parts := make([]string, 0, len(counts))
	for _, t := range []string{domain.TransactionPromocodeActivate, domain.TransactionPromocodeGenerate} {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", t, n))
		}
	}
	if len(parts) == 0 {
		return "none of interest"
	}
	return strings.Join(parts, ", ")
}

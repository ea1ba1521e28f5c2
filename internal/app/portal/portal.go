// Package portal собирает клиентское консольное приложение портала:
// сессию, клиент бэкенда, сервисы и воркфлоу регистрации и оформления
// подписки.
package portal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cfaprotection/portal/internal/api"
	"github.com/cfaprotection/portal/internal/config"
	"github.com/cfaprotection/portal/internal/gateway"
	"github.com/cfaprotection/portal/internal/gateway/razorpay"
	"github.com/cfaprotection/portal/internal/models"
	"github.com/cfaprotection/portal/internal/services/auth"
	mediaservice "github.com/cfaprotection/portal/internal/services/media"
	subservice "github.com/cfaprotection/portal/internal/services/subscription"
	"github.com/cfaprotection/portal/internal/session"
	"github.com/cfaprotection/portal/internal/workflow/checkout"
	"github.com/cfaprotection/portal/internal/workflow/signup"
)

// App — клиентская поверхность портала.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	session *session.Store
	auth    *auth.Service
	subs    *subservice.Service
	media   *mediaservice.Service
	gw      gateway.Gateway

	in  *bufio.Reader
	out io.Writer
}

// New собирает приложение. Ответ 401 на любом клиентском эндпоинте
// очищает клиентскую сессию и отправляет пользователя на страницу входа;
// администраторская сессия при этом не затрагивается.
func New(cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) *App {
	store := session.NewCustomer(cfg.CustomerFile)
	store.SetOnLogout(func() {
		fmt.Fprintln(out, "Session ended. Sign in again: /auth/signin")
	})

	client := api.New(cfg.BaseURL, cfg.API.Timeout, store, logger)
	client.SetOnUnauthorized(func() {
		_ = store.Logout()
	})

	app := &App{
		cfg:     cfg,
		log:     logger,
		session: store,
		auth:    auth.New(client, logger),
		subs:    subservice.New(client, logger),
		media:   mediaservice.New(client, logger),
		in:      bufio.NewReader(in),
		out:     out,
	}
	app.gw = razorpay.NewHostedCheckout(cfg.CallbackAddress, func(url string) {
		fmt.Fprintf(out, "Open the payment page in your browser: %s\n", url)
	}, logger)
	return app
}

// Run восстанавливает сессию и выполняет команду.
func (a *App) Run(ctx context.Context, args []string) error {
	if err := a.session.Restore(); err != nil {
		return err
	}
	if len(args) == 0 {
		a.usage()
		return nil
	}

	switch args[0] {
	case "signup":
		return a.runSignup(ctx)
	case "signin":
		return a.runSignin(ctx)
	case "signout":
		return a.session.Logout()
	case "profile":
		return a.runProfile(ctx)
	case "plans":
		return a.runPlans(ctx)
	case "subscribe":
		return a.runSubscribe(ctx)
	case "status":
		return a.runStatus(ctx)
	case "payments":
		return a.runPayments(ctx)
	case "cancel":
		return a.runCancel(ctx)
	case "media":
		return a.runMedia(ctx)
	default:
		a.usage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "commands: signup | signin | signout | profile | plans | subscribe | status | payments | cancel | media")
}

func (a *App) prompt(label string) string {
	fmt.Fprintf(a.out, "%s: ", label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (a *App) runSignup(ctx context.Context) error {
	wf := signup.New(a.log, a.auth, a.session, signup.WithPlanSelection())
	defer wf.Close()

	for wf.Step() == signup.StepDetails {
		form := signup.Details{
			FullName:        a.prompt("Full name"),
			Email:           a.prompt("Email"),
			MobileNumber:    a.prompt("Mobile (optional)"),
			Password:        a.prompt("Password"),
			ConfirmPassword: a.prompt("Confirm password"),
		}
		if err := wf.SubmitDetails(ctx, form); err != nil {
			var verr *signup.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintln(a.out, verr.Message)
				continue
			}
			fmt.Fprintln(a.out, api.Message(err, "Failed to send verification code."))
			continue
		}
		fmt.Fprintln(a.out, "Verification code sent to your email")
	}

	for wf.Step() == signup.StepOTP {
		code := a.prompt("Enter 6-digit OTP (or 'r' to resend)")
		if code == "r" {
			if err := wf.Resend(ctx); err != nil {
				if errors.Is(err, signup.ErrResendNotReady) {
					fmt.Fprintf(a.out, "Resend available in %ds\n", wf.ResendIn())
					continue
				}
				fmt.Fprintln(a.out, api.Message(err, "Failed to resend code."))
			}
			continue
		}
		if err := wf.SubmitOTP(ctx, code); err != nil {
			if errors.Is(err, signup.ErrInvalidOTP) {
				fmt.Fprintln(a.out, "Enter valid 6-digit OTP")
				continue
			}
			fmt.Fprintln(a.out, api.Message(err, "Invalid or expired OTP."))
			continue
		}
	}

	fmt.Fprintln(a.out, "Account verified! You are signed in.")

	if wf.Step() == signup.StepPlan {
		if a.prompt("Pick a subscription plan now? (y/n)") == "y" {
			if err := a.runSubscribe(ctx); err != nil {
				fmt.Fprintln(a.out, api.Message(err, "Checkout failed"))
			}
		}
		if err := wf.CompletePlanSelection(); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.out, "Welcome to the dashboard: /dashboard")
	return nil
}

func (a *App) runSignin(ctx context.Context) error {
	login := a.prompt("Email or mobile")
	req := auth.LoginRequest{Password: a.prompt("Password")}
	if strings.Contains(login, "@") {
		req.Email = login
	} else {
		req.MobileNumber = login
	}

	result, err := a.auth.Login(ctx, req)
	if err != nil {
		fmt.Fprintln(a.out, api.Message(err, "Invalid credentials"))
		return err
	}
	if err := a.session.Login(result.User, result.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", result.User.FullName)
	return nil
}

func (a *App) runProfile(ctx context.Context) error {
	user, err := a.auth.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> customer %s verified=%t\n",
		user.FullName, user.Email, user.CustomerID, user.IsVerified)
	return nil
}

func (a *App) runPlans(ctx context.Context) error {
	plans, err := a.subs.Plans(ctx)
	if err != nil {
		return err
	}
	a.printPlans(plans)
	return nil
}

func (a *App) printPlans(plans []models.SubscriptionPlan) {
	for i, plan := range plans {
		price := fmt.Sprintf("₹%d", plan.Price)
		if plan.SpecialPrice != nil {
			price = fmt.Sprintf("₹%d (was ₹%d)", *plan.SpecialPrice, plan.Price)
		}
		fmt.Fprintf(a.out, "%d. %s — %s, %d months, up to %d members\n",
			i+1, plan.PlanName, price, plan.Duration, plan.MaxMembers)
	}
}

func (a *App) runSubscribe(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		fmt.Fprintln(a.out, "Sign in first: /auth/signin")
		return session.ErrNotAuthenticated
	}

	plans, err := a.subs.Plans(ctx)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Fprintln(a.out, "No plans available")
		return nil
	}
	a.printPlans(plans)

	idx, err := strconv.Atoi(a.prompt("Plan number"))
	if err != nil || idx < 1 || idx > len(plans) {
		return fmt.Errorf("invalid plan number")
	}
	plan := plans[idx-1]

	// Форма участников всегда показывает ровно MaxMembers-1 строк;
	// пустые строки отбрасываются воркфлоу.
	members := make([]models.Member, 0, plan.MemberSlots())
	for i := 0; i < plan.MemberSlots(); i++ {
		name := a.prompt(fmt.Sprintf("Member %d name (blank to skip)", i+1))
		var email string
		if name != "" {
			email = a.prompt(fmt.Sprintf("Member %d email", i+1))
		}
		members = append(members, models.Member{Name: name, Email: email})
	}

	var user models.User
	if err := a.session.Principal(&user); err != nil {
		return err
	}

	wf := checkout.New(a.log, a.subs, a.gw, a.cfg.KeyID, checkout.Payer{
		Name:  user.FullName,
		Email: user.Email,
	})

	if err := wf.SelectPlan(ctx, plan, members); err != nil {
		fmt.Fprintln(a.out, api.Message(err, "Checkout failed"))
		return err
	}
	if err := wf.CompletePayment(ctx); err != nil {
		if errors.Is(err, gateway.ErrDismissed) {
			fmt.Fprintln(a.out, wf.Message())
			return err
		}
		fmt.Fprintln(a.out, api.Message(err, "Checkout failed"))
		return err
	}

	active := wf.Subscription()
	fmt.Fprintf(a.out, "Subscription %s is %s until %s\n",
		active.Subscription.PlanName, active.Subscription.Status, active.Subscription.EndDate)
	return nil
}

func (a *App) runStatus(ctx context.Context) error {
	active, err := a.subs.MySubscription(ctx)
	if err != nil {
		return err
	}
	sub := active.Subscription
	fmt.Fprintf(a.out, "%s — %s, %s to %s, ₹%d\n",
		sub.PlanName, sub.Status, sub.StartDate, sub.EndDate, sub.Amount)
	for _, member := range active.AdditionalMembers {
		fmt.Fprintf(a.out, "  member: %s <%s>\n", member.Name, member.Email)
	}
	return nil
}

func (a *App) runPayments(ctx context.Context) error {
	payments, err := a.subs.Payments(ctx)
	if err != nil {
		return err
	}
	for _, p := range payments {
		fmt.Fprintf(a.out, "%s ₹%d %s %s\n", p.RazorpayOrderID, p.Amount, p.Status, p.CreatedAt)
	}
	return nil
}

func (a *App) runCancel(ctx context.Context) error {
	if a.prompt("Cancel your subscription? (y/n)") != "y" {
		return nil
	}
	if err := a.subs.Cancel(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Subscription cancelled")
	return nil
}

func (a *App) runMedia(ctx context.Context) error {
	page, err := a.media.List(ctx, mediaservice.Filter{Limit: 20})
	if err != nil {
		return err
	}
	for _, item := range page.Media {
		fmt.Fprintf(a.out, "[%s] %s — %s\n", item.Type, item.Title, item.Description)
	}
	updates, err := a.media.BroadcastUpdates(ctx)
	if err != nil {
		return err
	}
	for _, item := range updates {
		fmt.Fprintf(a.out, "update: %s\n", item.Title)
	}
	return nil
}

// Package admincli собирает администраторскую консоль: отдельную сессию,
// клиент бэкенда и сервис администрирования.
package admincli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cfaprotection/portal/internal/api"
	"github.com/cfaprotection/portal/internal/config"
	"github.com/cfaprotection/portal/internal/models"
	"github.com/cfaprotection/portal/internal/services/admin"
	"github.com/cfaprotection/portal/internal/session"
)

// App — администраторская поверхность портала.
type App struct {
	log     *slog.Logger
	session *session.Store
	admin   *admin.Service

	in  *bufio.Reader
	out io.Writer
}

// New собирает консоль. Администраторская сессия хранится отдельно от
// клиентской: 401 на администраторском эндпоинте очищает только её.
func New(cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) *App {
	store := session.NewAdmin(cfg.AdminFile)
	store.SetOnLogout(func() {
		fmt.Fprintln(out, "Admin session ended. Sign in again: /admin/login")
	})

	client := api.New(cfg.BaseURL, cfg.API.Timeout, store, logger)
	client.SetOnUnauthorized(func() {
		_ = store.Logout()
	})

	return &App{
		log:     logger,
		session: store,
		admin:   admin.New(client, logger),
		in:      bufio.NewReader(in),
		out:     out,
	}
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
	case "login":
		return a.runLogin(ctx)
	case "logout":
		return a.session.Logout()
	case "whoami":
		return a.runWhoami(ctx)
	case "dashboard":
		return a.runDashboard(ctx)
	case "users":
		return a.runUsers(ctx, args[1:])
	case "user":
		return a.runUser(ctx, args[1:])
	case "set-subscription":
		return a.runSetSubscription(ctx, args[1:])
	case "plans":
		return a.runPlans(ctx, args[1:])
	case "media":
		return a.runMedia(ctx, args[1:])
	default:
		a.usage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "commands: login | logout | whoami | dashboard | users [search] | user <id> | set-subscription <id> <status> | plans list|create|update <id> | media list|create|update <id>|delete <id>|upload <file>")
}

func (a *App) prompt(label string) string {
	fmt.Fprintf(a.out, "%s: ", label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (a *App) runLogin(ctx context.Context) error {
	email := a.prompt("Email")
	password := a.prompt("Password")

	result, err := a.admin.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintln(a.out, api.Message(err, "Invalid credentials"))
		return err
	}
	if err := a.session.Login(result.Admin, result.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", result.Admin.Username, result.Admin.Role)
	return nil
}

func (a *App) runWhoami(ctx context.Context) error {
	adm, err := a.admin.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> role %s\n", adm.Username, adm.Email, adm.Role)
	return nil
}

func (a *App) runDashboard(ctx context.Context) error {
	dash, err := a.admin.Dashboard(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "users: %d, active subscriptions: %d, payments: %d, revenue: ₹%d\n",
		dash.Stats.TotalUsers, dash.Stats.ActiveSubscriptions,
		dash.Stats.TotalPayments, dash.Stats.TotalRevenue)
	for _, u := range dash.RecentUsers {
		fmt.Fprintf(a.out, "  new user: %s <%s> %s\n", u.FullName, u.Email, u.CustomerID)
	}
	for _, p := range dash.RecentPayments {
		fmt.Fprintf(a.out, "  payment: ₹%d %s %s\n", p.Amount, p.Status, p.CreatedAt)
	}
	return nil
}

func (a *App) runUsers(ctx context.Context, args []string) error {
	filter := admin.UserFilter{Limit: 20}
	if len(args) > 0 {
		filter.Search = args[0]
	}
	page, err := a.admin.ListUsers(ctx, filter)
	if err != nil {
		return err
	}
	for _, u := range page.Users {
		status := "no subscription"
		if u.Subscription != nil {
			status = fmt.Sprintf("%s (%s)", u.Subscription.PlanName, u.Subscription.Status)
		}
		fmt.Fprintf(a.out, "%s %s <%s> %s — %s\n", u.ID, u.FullName, u.Email, u.CustomerID, status)
	}
	fmt.Fprintf(a.out, "page %d of %d, %d total\n", page.CurrentPage, page.TotalPages, page.Total)
	return nil
}

func (a *App) runUser(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: user <id>")
	}
	detail, err := a.admin.GetUser(ctx, args[0])
	if err != nil {
		return err
	}
	u := detail.User
	fmt.Fprintf(a.out, "%s <%s> customer %s\n", u.FullName, u.Email, u.CustomerID)
	if u.Subscription != nil {
		fmt.Fprintf(a.out, "subscription: %s %s, %s to %s\n",
			u.Subscription.PlanName, u.Subscription.Status,
			u.Subscription.StartDate, u.Subscription.EndDate)
	}
	for _, m := range u.AdditionalMembers {
		fmt.Fprintf(a.out, "member: %s <%s>\n", m.Name, m.Email)
	}
	for _, p := range detail.Payments {
		fmt.Fprintf(a.out, "payment: %s ₹%d %s %s\n", p.RazorpayOrderID, p.Amount, p.Status, p.CreatedAt)
	}
	return nil
}

func (a *App) runSetSubscription(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set-subscription <id> <active|inactive|expired>")
	}
	status := models.SubscriptionStatus(args[1])
	switch status {
	case models.StatusActive, models.StatusInactive, models.StatusExpired:
	default:
		return fmt.Errorf("unknown status: %s", args[1])
	}
	if err := a.admin.UpdateUserSubscription(ctx, args[0], admin.SubscriptionPatch{Status: &status}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Subscription updated")
	return nil
}

func (a *App) runPlans(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		plans, err := a.admin.ListPlans(ctx)
		if err != nil {
			return err
		}
		for _, plan := range plans {
			fmt.Fprintf(a.out, "%s %s ₹%d %dmo max %d active=%t\n",
				plan.PlanID, plan.PlanName, plan.Price, plan.Duration, plan.MaxMembers, plan.IsActive)
		}
		return nil
	case "create":
		req, err := a.promptPlan()
		if err != nil {
			return err
		}
		if err := a.admin.CreatePlan(ctx, req); err != nil {
			fmt.Fprintln(a.out, api.Message(err, "Failed to create plan"))
			return err
		}
		fmt.Fprintln(a.out, "Plan created")
		return nil
	case "update":
		if len(args) < 2 {
			return fmt.Errorf("usage: plans update <id>")
		}
		req, err := a.promptPlan()
		if err != nil {
			return err
		}
		if err := a.admin.UpdatePlan(ctx, args[1], req); err != nil {
			fmt.Fprintln(a.out, api.Message(err, "Failed to update plan"))
			return err
		}
		fmt.Fprintln(a.out, "Plan updated")
		return nil
	default:
		return fmt.Errorf("unknown plans command: %s", args[0])
	}
}

func (a *App) promptPlan() (admin.PlanRequest, error) {
	req := admin.PlanRequest{
		PlanID:      a.prompt("Plan code"),
		PlanName:    a.prompt("Plan name"),
		Description: a.prompt("Description"),
	}
	var err error
	if req.Price, err = strconv.Atoi(a.prompt("Price")); err != nil {
		return req, fmt.Errorf("invalid price: %w", err)
	}
	if req.Duration, err = strconv.Atoi(a.prompt("Duration, months")); err != nil {
		return req, fmt.Errorf("invalid duration: %w", err)
	}
	if req.MaxMembers, err = strconv.Atoi(a.prompt("Max members")); err != nil {
		return req, fmt.Errorf("invalid max members: %w", err)
	}
	if features := a.prompt("Features (comma-separated)"); features != "" {
		for _, f := range strings.Split(features, ",") {
			req.Features = append(req.Features, strings.TrimSpace(f))
		}
	}
	if special := a.prompt("Special price (blank for none)"); special != "" {
		price, err := strconv.Atoi(special)
		if err != nil {
			return req, fmt.Errorf("invalid special price: %w", err)
		}
		req.SpecialPrice = &price
		req.IsSpecialOffer = true
	}
	return req, nil
}

func (a *App) runMedia(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		page, err := a.admin.ListAllMedia(ctx, "", "", 1, 20)
		if err != nil {
			return err
		}
		for _, item := range page.Media {
			fmt.Fprintf(a.out, "%s [%s] %s published=%t broadcast=%t views=%d\n",
				item.ID, item.Type, item.Title, item.IsPublished, item.IsBroadcast, item.ViewCount)
		}
		return nil
	case "create":
		media, err := a.admin.CreateMedia(ctx, a.promptMedia())
		if err != nil {
			fmt.Fprintln(a.out, api.Message(err, "Failed to create media"))
			return err
		}
		fmt.Fprintf(a.out, "Created %s\n", media.ID)
		return nil
	case "update":
		if len(args) < 2 {
			return fmt.Errorf("usage: media update <id>")
		}
		if err := a.admin.UpdateMedia(ctx, args[1], a.promptMedia()); err != nil {
			fmt.Fprintln(a.out, api.Message(err, "Failed to update media"))
			return err
		}
		fmt.Fprintln(a.out, "Media updated")
		return nil
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: media delete <id>")
		}
		if err := a.admin.DeleteMedia(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Media deleted")
		return nil
	case "upload":
		if len(args) < 2 {
			return fmt.Errorf("usage: media upload <file>")
		}
		file, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer file.Close()

		result, err := a.admin.UploadMedia(ctx, file.Name(), file)
		if err != nil {
			fmt.Fprintln(a.out, api.Message(err, "Upload failed"))
			return err
		}
		fmt.Fprintf(a.out, "Uploaded %s (%d bytes): %s\n", result.OriginalName, result.Size, result.FileURL)
		return nil
	default:
		return fmt.Errorf("unknown media command: %s", args[0])
	}
}

func (a *App) promptMedia() admin.MediaRequest {
	req := admin.MediaRequest{
		Title:       a.prompt("Title"),
		Description: a.prompt("Description"),
		Type:        a.prompt("Type (article|video|banner|update|alert)"),
		Content:     a.prompt("Content"),
	}
	if tags := a.prompt("Tags (comma-separated)"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			req.Tags = append(req.Tags, strings.TrimSpace(tag))
		}
	}
	req.IsPublished = a.prompt("Publish now? (y/n)") == "y"
	req.IsBroadcast = a.prompt("Broadcast? (y/n)") == "y"
	return req
}

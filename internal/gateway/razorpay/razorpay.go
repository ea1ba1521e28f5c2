// Package razorpay реализует платежный шлюз через hosted-страницу
// виджета Razorpay Checkout.
//
// На время оплаты поднимается одноразовый локальный HTTP-сервер: он
// отдает страницу с встроенным checkout.js и принимает поля обратного
// вызова (razorpay_order_id, razorpay_payment_id, razorpay_signature)
// на callback-маршруте. Полученные поля возвращаются вызывающей стороне
// как есть — проверка подписи выполняется только бэкендом.
package razorpay

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/cfaprotection/portal/internal/gateway"
	"github.com/cfaprotection/portal/internal/lib/sl"
)

// OpenFunc получает URL страницы оплаты, когда сервер готов.
// Обычно печатает адрес пользователю или открывает браузер.
type OpenFunc func(url string)

// HostedCheckout — реализация gateway.Gateway поверх локального callback-сервера.
type HostedCheckout struct {
	addr string
	open OpenFunc
	log  *slog.Logger
}

// NewHostedCheckout создает шлюз, слушающий addr на время каждой оплаты.
func NewHostedCheckout(addr string, open OpenFunc, log *slog.Logger) *HostedCheckout {
	return &HostedCheckout{addr: addr, open: open, log: log}
}

type outcome struct {
	completion *gateway.Completion
	dismissed  bool
}

// Checkout отдает страницу виджета и блокируется до обратного вызова,
// закрытия виджета или отмены контекста.
func (h *HostedCheckout) Checkout(ctx context.Context, opts gateway.Options) (*gateway.Completion, error) {
	const op = "razorpay.Checkout"

	listener, err := net.Listen("tcp", h.addr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results := make(chan outcome, 1)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/", h.servePage(opts))
	router.Post("/callback", h.serveCallback(results))
	router.Post("/dismiss", h.serveDismiss(results))

	srv := &http.Server{Handler: router}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer srv.Close()

	url := "http://" + listener.Addr().String() + "/"
	h.log.Info("checkout page ready",
		slog.String("url", url),
		slog.String("order_id", opts.OrderID))
	if h.open != nil {
		h.open(url)
	}

	select {
	case res := <-results:
		if res.dismissed {
			return nil, fmt.Errorf("%s: %w", op, gateway.ErrDismissed)
		}
		return res.completion, nil
	case err := <-serveErr:
		return nil, fmt.Errorf("%s: %w", op, err)
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

var pageTemplate = template.Must(template.New("checkout").Parse(`<!doctype html>
<html>
<head><title>{{.Name}} — Checkout</title></head>
<body>
<script src="https://checkout.razorpay.com/v1/checkout.js"></script>
<script>
var rzp = new Razorpay({
  key: "{{.Key}}",
  amount: {{.Amount}},
  currency: "{{.Currency}}",
  name: "{{.Name}}",
  order_id: "{{.OrderID}}",
  prefill: { name: "{{.PrefillName}}", email: "{{.PrefillEmail}}" },
  handler: function (resp) {
    fetch("/callback", {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify(resp)
    }).then(function () { document.body.innerText = "Payment received, you can close this page."; });
  },
  modal: {
    ondismiss: function () { fetch("/dismiss", { method: "POST" }); }
  }
});
rzp.open();
</script>
</body>
</html>`))

func (h *HostedCheckout) servePage(opts gateway.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, opts); err != nil {
			h.log.Error("failed to render checkout page", sl.Err(err))
		}
	}
}

func (h *HostedCheckout) serveCallback(results chan<- outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			OrderID   string `json:"razorpay_order_id"`
			PaymentID string `json:"razorpay_payment_id"`
			Signature string `json:"razorpay_signature"`
		}
		if err := render.DecodeJSON(r.Body, &payload); err != nil {
			h.log.Error("failed to decode gateway callback", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"status": "error"})
			return
		}
		select {
		case results <- outcome{completion: &gateway.Completion{
			OrderID:   payload.OrderID,
			PaymentID: payload.PaymentID,
			Signature: payload.Signature,
		}}:
		default:
		}
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}

func (h *HostedCheckout) serveDismiss(results chan<- outcome) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case results <- outcome{dismissed: true}:
		default:
		}
		render.JSON(w, r, map[string]string{"status": "dismissed"})
	}
}

// Package dashboardhttp serves the sales dashboard pages and JSON endpoints.
package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/sales-dashboard/internal/dashboard"
	"github.com/odyssey-erp/sales-dashboard/internal/dashboard/export"
	"github.com/odyssey-erp/sales-dashboard/internal/dashboard/ui"
	"github.com/odyssey-erp/sales-dashboard/internal/platform/httpx"
	"github.com/odyssey-erp/sales-dashboard/internal/shared"
	"github.com/odyssey-erp/sales-dashboard/internal/view"
)

const (
	defaultSettleTimeout = 2 * time.Second
	defaultRefresh       = 1
)

var filenameUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ViewSource hands out the dashboard view owned by a session.
type ViewSource interface {
	View(id string) *dashboard.View
}

// Options tunes the handler.
type Options struct {
	// SettleTimeout bounds how long a page render waits for in-flight loads.
	SettleTimeout time.Duration
	// RefreshSeconds is the reload interval of a page rendered while loading.
	RefreshSeconds int
}

// Handler coordinates HTTP requests for the sales dashboard.
type Handler struct {
	logger    *slog.Logger
	views     ViewSource
	templates *view.Engine
	renderers ui.Renderers
	csrf      *shared.CSRFManager
	validate  *validator.Validate
	settle    time.Duration
	refresh   int
	csvPool   sync.Pool
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, views ViewSource, templates *view.Engine, renderers ui.Renderers, csrf *shared.CSRFManager, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		views:     views,
		templates: templates,
		renderers: renderers,
		csrf:      csrf,
		validate:  validator.New(),
		settle:    opts.SettleTimeout,
		refresh:   opts.RefreshSeconds,
	}
	if h.settle <= 0 {
		h.settle = defaultSettleTimeout
	}
	if h.refresh <= 0 {
		h.refresh = defaultRefresh
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

type selectionForm struct {
	Company   string `validate:"required,max=200"`
	StartDate string `validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.handleServerError(w, "load session", shared.ErrSessionMissing)
		return
	}
	v := h.views.View(sess.ID)

	ctx, cancel := context.WithTimeout(r.Context(), h.settle)
	defer cancel()
	state := v.WaitIdle(ctx)

	vm, err := ui.BuildViewModel(state, h.renderers)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}

	csrfToken, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.handleServerError(w, "issue csrf token", err)
		return
	}

	refresh := 0
	if vm.Loading {
		refresh = h.refresh
	}
	viewData := view.TemplateData{
		Title:          "Sales Analysis Dashboard",
		CSRFToken:      csrfToken,
		Flash:          sess.PopFlash(),
		CurrentPath:    r.URL.Path,
		RefreshSeconds: refresh,
		Data:           vm,
	}
	w.Header().Set("Cache-Control", "no-store")
	if err := h.templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.handleServerError(w, "load session", shared.ErrSessionMissing)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.respondValidation(w, r, sess, validationError{field: "form"})
		return
	}
	form := selectionForm{
		Company:   strings.TrimSpace(r.PostFormValue("company")),
		StartDate: strings.TrimSpace(r.PostFormValue("start_date")),
		EndDate:   strings.TrimSpace(r.PostFormValue("end_date")),
	}
	if err := h.validate.Struct(form); err != nil {
		h.respondValidation(w, r, sess, toValidationError(err))
		return
	}

	v := h.views.View(sess.ID)
	ctx, cancel := context.WithTimeout(r.Context(), h.settle)
	v.WaitDirectory(ctx)
	cancel()

	err := v.Select(dashboard.Selection{
		Company: form.Company,
		Start:   form.StartDate,
		End:     form.EndDate,
	})
	if errors.Is(err, dashboard.ErrUnknownCompany) {
		h.respondValidation(w, r, sess, validationError{field: "company"})
		return
	}
	if err != nil {
		h.handleServerError(w, "apply selection", err)
		return
	}

	if wantsJSON(r) {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.handleServerError(w, "load session", shared.ErrSessionMissing)
		return
	}
	httpx.JSON(w, http.StatusOK, h.views.View(sess.ID).Snapshot())
}

type chartsResponse struct {
	Loading bool         `json:"loading"`
	Error   string       `json:"error,omitempty"`
	Charts  *ui.ChartSet `json:"charts"`
}

func (h *Handler) handleCharts(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.handleServerError(w, "load session", shared.ErrSessionMissing)
		return
	}
	state := h.views.View(sess.ID).Snapshot()
	resp := chartsResponse{Loading: state.Pending(), Error: state.Error}
	if state.Aggregate != nil {
		set := ui.Charts(state.Aggregate)
		resp.Charts = &set
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.handleServerError(w, "load session", shared.ErrSessionMissing)
		return
	}
	state := h.views.View(sess.ID).Snapshot()
	if state.Aggregate == nil {
		httpx.RespondError(w, fmt.Errorf("no dashboard data loaded: %w", httpx.ErrConflict))
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteAggregateCSV(buf, state.Selected, state.Range, state.Aggregate); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportFilename(state)))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func exportFilename(state dashboard.State) string {
	parts := []string{"sales", state.Selected, state.Range.Start, state.Range.End}
	name := filenameUnsafe.ReplaceAllString(strings.Join(parts, "-"), "_")
	return strings.Trim(name, "-_") + ".csv"
}

func (h *Handler) respondValidation(w http.ResponseWriter, r *http.Request, sess *shared.Session, err validationError) {
	if wantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: err.Message()})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

func (v validationError) Unwrap() error {
	return httpx.ErrValidation
}

// Message is the flash text shown on the dashboard.
func (v validationError) Message() string {
	switch v.field {
	case "company":
		return "Please choose a company."
	case "start_date", "end_date":
		return fmt.Sprintf("Invalid %s: expected YYYY-MM-DD.", strings.ReplaceAll(v.field, "_", " "))
	default:
		return "Invalid selection."
	}
}

var formFields = map[string]string{
	"Company":   "company",
	"StartDate": "start_date",
	"EndDate":   "end_date",
}

func toValidationError(err error) validationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if name, ok := formFields[fieldErrs[0].Field()]; ok {
			return validationError{field: name}
		}
	}
	return validationError{field: "form"}
}

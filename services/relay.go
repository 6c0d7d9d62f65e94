package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"liff-gateway/internal/logger"
	"liff-gateway/internal/telemetry"
	"liff-gateway/models"
)

const (
	SubmitSuccessText = "✅ 資料已成功送出！"
	SubmitFailureText = "❌ 送出失敗！錯誤: "
	SubmitNetworkText = "❌ 提交時發生錯誤，請檢查網路連線或服務。"

	// ActionField is the discriminator the remote script dispatches on.
	ActionField = "action"

	maxErrorBody = 64 << 10
)

type FormField struct {
	Name  string
	Value string
}

type FormFile struct {
	Field    string
	Filename string
	Data     []byte
}

// Form is an HTML form's field set in submission order.
type Form struct {
	Fields []FormField
	Files  []FormFile
}

// NewForm flattens url.Values with keys sorted so the body is deterministic.
func NewForm(values url.Values) Form {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var form Form
	for _, k := range keys {
		for _, v := range values[k] {
			form.Fields = append(form.Fields, FormField{Name: k, Value: v})
		}
	}
	return form
}

// Get returns the first value of name.
func (f Form) Get(name string) string {
	for _, field := range f.Fields {
		if field.Name == name {
			return field.Value
		}
	}
	return ""
}

// Without returns a copy of the form with every field called name removed.
func (f Form) Without(name string) Form {
	out := Form{Files: f.Files}
	for _, field := range f.Fields {
		if field.Name != name {
			out.Fields = append(out.Fields, field)
		}
	}
	return out
}

// SubmitHooks are the optional success and failure callbacks.
type SubmitHooks struct {
	OnSuccess func()
	OnError   func(detail string)
}

type RelayOptions struct {
	Endpoint   string
	HTTPClient *http.Client
	// AutoHide is how long the success message stays visible.
	AutoHide time.Duration
	// RPS caps outbound calls to the remote script. Zero disables the cap.
	RPS     float64
	Metrics *telemetry.Metrics
}

// Relay forwards form submissions to the remote script endpoint.
type Relay struct {
	endpoint   string
	httpClient *http.Client
	autoHide   time.Duration
	limiter    *rate.Limiter
	metrics    *telemetry.Metrics
}

func NewRelay(opts RelayOptions) *Relay {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	autoHide := opts.AutoHide
	if autoHide <= 0 {
		autoHide = DefaultStatusDuration
	}

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	return &Relay{
		endpoint:   opts.Endpoint,
		httpClient: httpClient,
		autoHide:   autoHide,
		limiter:    limiter,
		metrics:    opts.Metrics,
	}
}

// Submit posts form to the remote endpoint and reports the outcome through
// ui. The returned error is non-nil only when nothing was sent: the control
// was busy (ErrSubmitInFlight) or no endpoint is configured (ErrConfig).
func (r *Relay) Submit(ctx context.Context, form Form, actionName string, ui *UIState, hooks SubmitHooks) (models.FormSubmissionResult, error) {
	if strings.TrimSpace(r.endpoint) == "" {
		return models.FormSubmissionResult{}, &ConfigError{Field: "GAS_SCRIPT_URL", Message: "relay endpoint is not configured"}
	}

	control := ui.Control(actionName)
	if err := control.Begin(); err != nil {
		return models.FormSubmissionResult{}, err
	}
	defer control.Complete()

	ctx, span := otel.Tracer("liff-gateway").Start(ctx, "relay.submit")
	defer span.End()
	span.SetAttributes(attribute.String("relay.action", actionName))

	start := time.Now()
	err := r.post(ctx, form, actionName)
	duration := time.Since(start).Seconds()

	if err == nil {
		ui.Status.Show(SubmitSuccessText, models.StatusSuccess, true, r.autoHide)
		r.metrics.RecordSubmission(actionName, "success", duration)
		if hooks.OnSuccess != nil {
			hooks.OnSuccess()
		}
		return models.FormSubmissionResult{OK: true}, nil
	}

	span.RecordError(err)

	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		subErr = &SubmissionError{Err: err}
	}

	var detail string
	if subErr.Status != 0 {
		detail = subErr.Detail
		ui.Status.Show(SubmitFailureText+detail, models.StatusError, false, 0)
		logger.Error("remote endpoint rejected submission", "action", actionName, "status", subErr.Status, "body", detail)
		r.metrics.RecordSubmission(actionName, "rejected", duration)
	} else {
		detail = subErr.Err.Error()
		ui.Status.Show(SubmitNetworkText, models.StatusError, false, 0)
		logger.Error("submission transport failure", "action", actionName, "error", subErr.Err)
		r.metrics.RecordSubmission(actionName, "transport_error", duration)
	}

	if hooks.OnError != nil {
		hooks.OnError(detail)
	}
	return models.FormSubmissionResult{OK: false, ErrorDetail: detail}, nil
}

func (r *Relay) post(ctx context.Context, form Form, actionName string) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return &SubmissionError{Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	body, contentType, err := encodeMultipart(form, actionName)
	if err != nil {
		return &SubmissionError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return &SubmissionError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &SubmissionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil
	}

	text, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &SubmissionError{Err: fmt.Errorf("failed to read error body: %w", err)}
	}
	return &SubmissionError{Status: resp.StatusCode, Detail: string(text)}
}

func encodeMultipart(form Form, actionName string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, field := range form.Fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", field.Name, err)
		}
	}

	for _, file := range form.Files {
		fw, err := writer.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := fw.Write(file.Data); err != nil {
			return nil, "", fmt.Errorf("failed to copy file data: %w", err)
		}
	}

	if actionName != "" {
		if err := writer.WriteField(ActionField, actionName); err != nil {
			return nil, "", fmt.Errorf("failed to write action: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

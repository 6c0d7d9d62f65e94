package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liff-gateway/models"
)

func newTestUI(t *testing.T, sched Scheduler) *UIState {
	t.Helper()
	states, err := NewUIStates(10, sched, 3*time.Second)
	require.NoError(t, err)
	return states.Get("user:U1")
}

func TestRelaySubmitSuccess(t *testing.T) {
	var got *http.Request
	var files map[string][]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got = r
		files = map[string][]byte{}
		for field, headers := range r.MultipartForm.File {
			f, err := headers[0].Open()
			require.NoError(t, err)
			data, _ := io.ReadAll(f)
			f.Close()
			files[field] = data
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	sched := newManualScheduler()
	ui := newTestUI(t, sched)
	relay := NewRelay(RelayOptions{Endpoint: srv.URL, AutoHide: 3 * time.Second})

	form := NewForm(url.Values{"name": {"王小明"}, "date": {"2025-10-01"}})
	form.Files = []FormFile{{Field: "photo", Filename: "a.jpg", Data: []byte{0xff, 0xd8}}}

	var succeeded bool
	result, err := relay.Submit(context.Background(), form, "vocationSubmit", ui, SubmitHooks{
		OnSuccess: func() { succeeded = true },
		OnError:   func(string) { t.Fatal("OnError must not run on success") },
	})

	require.NoError(t, err)
	assert.Equal(t, models.FormSubmissionResult{OK: true}, result)
	assert.True(t, succeeded)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "王小明", got.MultipartForm.Value["name"][0])
	assert.Equal(t, "2025-10-01", got.MultipartForm.Value["date"][0])
	assert.Equal(t, []string{"vocationSubmit"}, got.MultipartForm.Value[ActionField])
	assert.Equal(t, []byte{0xff, 0xd8}, files["photo"])

	status := ui.Status.Current()
	assert.Equal(t, SubmitSuccessText, status.Text)
	assert.Equal(t, models.StatusSuccess, status.Kind)
	assert.True(t, status.Visible)

	sched.Advance(3 * time.Second)
	assert.False(t, ui.Status.Current().Visible)
}

func TestRelaySubmitWithoutActionOmitsField(t *testing.T) {
	var values url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		values = r.MultipartForm.Value
	}))
	defer srv.Close()

	relay := NewRelay(RelayOptions{Endpoint: srv.URL})
	_, err := relay.Submit(context.Background(), NewForm(url.Values{"a": {"1"}}), "", newTestUI(t, newManualScheduler()), SubmitHooks{})

	require.NoError(t, err)
	_, ok := values[ActionField]
	assert.False(t, ok)
	assert.Equal(t, "1", values.Get("a"))
}

func TestRelaySubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("DB locked"))
	}))
	defer srv.Close()

	sched := newManualScheduler()
	ui := newTestUI(t, sched)
	relay := NewRelay(RelayOptions{Endpoint: srv.URL})

	var detail string
	result, err := relay.Submit(context.Background(), Form{}, "reportSubmit", ui, SubmitHooks{
		OnSuccess: func() { t.Fatal("OnSuccess must not run on failure") },
		OnError:   func(d string) { detail = d },
	})

	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "DB locked", result.ErrorDetail)
	assert.Equal(t, "DB locked", detail)

	status := ui.Status.Current()
	assert.Equal(t, SubmitFailureText+"DB locked", status.Text)
	assert.Equal(t, models.StatusError, status.Kind)

	sched.Advance(time.Minute)
	assert.True(t, ui.Status.Current().Visible, "errors stay until replaced")
}

func TestRelaySubmitTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	ui := newTestUI(t, newManualScheduler())
	relay := NewRelay(RelayOptions{Endpoint: endpoint})

	var called bool
	result, err := relay.Submit(context.Background(), Form{}, "x", ui, SubmitHooks{
		OnError: func(string) { called = true },
	})

	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.NotEmpty(t, result.ErrorDetail)
	assert.True(t, called)
	assert.Equal(t, SubmitNetworkText, ui.Status.Current().Text)
	assert.Equal(t, models.StatusError, ui.Status.Current().Kind)
}

func TestRelayCooldownAfterCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	sched := newManualScheduler()
	ui := newTestUI(t, sched)
	relay := NewRelay(RelayOptions{Endpoint: srv.URL})

	_, err := relay.Submit(context.Background(), Form{}, "a", ui, SubmitHooks{})
	require.NoError(t, err)

	control := ui.Control("a")
	assert.True(t, control.Disabled())
	assert.Equal(t, BusyLabel, control.Label())

	_, err = relay.Submit(context.Background(), Form{}, "a", ui, SubmitHooks{})
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	sched.Advance(3 * time.Second)
	assert.False(t, control.Disabled())
	assert.Equal(t, IdleLabel, control.Label())

	_, err = relay.Submit(context.Background(), Form{}, "a", ui, SubmitHooks{})
	assert.NoError(t, err)
}

func TestRelayRejectsConcurrentSubmission(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
	}))
	defer srv.Close()

	ui := newTestUI(t, newManualScheduler())
	relay := NewRelay(RelayOptions{Endpoint: srv.URL})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		relay.Submit(context.Background(), Form{}, "a", ui, SubmitHooks{})
	}()
	<-entered

	_, err := relay.Submit(context.Background(), Form{}, "a", ui, SubmitHooks{})
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	wg.Wait()
}

func TestRelayRequiresEndpoint(t *testing.T) {
	ui := newTestUI(t, newManualScheduler())

	_, err := NewRelay(RelayOptions{}).Submit(context.Background(), Form{}, "a", ui, SubmitHooks{})

	assert.ErrorIs(t, err, ErrConfig)
	assert.False(t, ui.Control("a").Disabled())
}

func TestFormGetAndWithout(t *testing.T) {
	form := NewForm(url.Values{"b": {"2"}, "action": {"x"}, "a": {"1", "3"}})

	assert.Equal(t, []FormField{{"a", "1"}, {"a", "3"}, {"action", "x"}, {"b", "2"}}, form.Fields)
	assert.Equal(t, "x", form.Get("action"))
	assert.Equal(t, "", form.Get("missing"))

	stripped := form.Without("action")
	assert.Equal(t, "", stripped.Get("action"))
	assert.Len(t, stripped.Fields, 3)
	assert.Len(t, form.Fields, 4)
}

package services

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liff-gateway/models"
)

const testBase = "http://220.133.248.150:81/WebCRM/Metec/"

func TestBuildTargetURL(t *testing.T) {
	got := BuildTargetURL(testBase, "Home.aspx", models.Identity{UserID: "U1", DisplayName: "Jane Doe"})
	assert.Equal(t, testBase+"Home.aspx?userId=U1&displayName=Jane%20Doe", got)
}

func TestBuildTargetURLRoundTrip(t *testing.T) {
	identities := []models.Identity{
		{UserID: "Uabc123", DisplayName: "王小明"},
		{UserID: "U&x=1", DisplayName: "a+b c"},
		{UserID: "U?#", DisplayName: "100% sure / maybe"},
		{UserID: "U1", DisplayName: ""},
	}
	for _, id := range identities {
		target := BuildTargetURL(testBase, "Report.aspx", id)
		u, err := url.Parse(target)
		require.NoError(t, err)

		q := u.Query()
		assert.Equal(t, id.UserID, q.Get("userId"))
		assert.Equal(t, id.DisplayName, q.Get("displayName"))
		assert.Regexp(t, `^userId=[^&]*&displayName=`, u.RawQuery)
	}
}

func TestRedirectWithoutIdentityShowsWaitNotice(t *testing.T) {
	view := &recordingRenderer{}
	win := &fakeSDK{inClient: true}

	err := NewRedirector(testBase, false).Redirect(nil, "Home.aspx", win, view)

	require.NoError(t, err)
	assert.Equal(t, 1, view.waits)
	assert.Empty(t, view.navigated)
	assert.Empty(t, win.opened)
}

func TestRedirectNavigatesTopLevel(t *testing.T) {
	view := &recordingRenderer{}
	id := &models.Identity{UserID: "U1", DisplayName: "Jane Doe"}

	err := NewRedirector(testBase, false).Redirect(id, "Home.aspx", &fakeSDK{}, view)

	require.NoError(t, err)
	assert.Equal(t, []string{testBase + "Home.aspx?userId=U1&displayName=Jane%20Doe"}, view.navigated)
}

func TestRedirectInClientOpensWindow(t *testing.T) {
	view := &recordingRenderer{}
	win := &fakeSDK{inClient: true}
	id := &models.Identity{UserID: "U1", DisplayName: "Jane"}

	err := NewRedirector(testBase, false).Redirect(id, "Approval.aspx", win, view)

	require.NoError(t, err)
	require.Len(t, win.opened, 1)
	assert.Equal(t, testBase+"Approval.aspx?userId=U1&displayName=Jane", win.opened[0].URL)
	assert.False(t, win.opened[0].External)
	assert.Empty(t, view.navigated)
}

func TestRedirectDebugModeDoesNotNavigate(t *testing.T) {
	view := &recordingRenderer{}
	win := &fakeSDK{inClient: true}
	id := &models.Identity{UserID: "U1", DisplayName: "Jane Doe"}

	err := NewRedirector(testBase, true).Redirect(id, "Home.aspx", win, view)

	require.NoError(t, err)
	require.NotNil(t, view.debugID)
	assert.Equal(t, *id, *view.debugID)
	assert.Equal(t, testBase+"Home.aspx?userId=U1&displayName=Jane%20Doe", view.debugURL)
	assert.Empty(t, view.navigated)
	assert.Empty(t, win.opened)
}

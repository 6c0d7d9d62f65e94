package routes

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"liff-gateway/internal/config"
	"liff-gateway/models"
	"liff-gateway/services"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

// LoadTemplates installs the embedded page templates on the router.
func LoadTemplates(router *gin.Engine) {
	funcs := template.FuncMap{
		"tabPage": services.TabPageID,
		"today":   func() string { return services.TodayDateString(time.Now()) },
	}
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))
	router.SetHTMLTemplate(tmpl)
}

// HomeURL is the "return home" target: the LIFF app opened on the home page.
func HomeURL(cfg *config.Config) string {
	return "https://liff.line.me/" + cfg.LIFFID + "?page=home"
}

// htmlRenderer draws the flows' UI states as full HTML pages.
type htmlRenderer struct {
	c       *gin.Context
	homeURL string
}

func newHTMLRenderer(c *gin.Context, cfg *config.Config) *htmlRenderer {
	return &htmlRenderer{c: c, homeURL: HomeURL(cfg)}
}

func (r *htmlRenderer) ShowFailure(kind services.FailureKind, detail string) {
	status := http.StatusBadGateway
	message := "無法初始化 LINE LIFF，請重新開啟。"
	if kind == services.FailureConfig {
		status = http.StatusInternalServerError
		message = "系統設定錯誤，請聯絡管理員。"
	}
	r.c.HTML(status, "failure.html", gin.H{
		"Title":   "載入失敗",
		"Message": message,
		"Detail":  detail,
		"HomeURL": r.homeURL,
	})
}

func (r *htmlRenderer) ShowNotFound(pageKey string) {
	r.c.HTML(http.StatusNotFound, "notfound.html", gin.H{
		"Page":    pageKey,
		"HomeURL": r.homeURL,
	})
}

func (r *htmlRenderer) ShowWaitNotice() {
	r.c.HTML(http.StatusConflict, "wait.html", gin.H{
		"HomeURL": r.homeURL,
	})
}

func (r *htmlRenderer) ShowDebug(identity models.Identity, target string) {
	r.c.HTML(http.StatusOK, "debug.html", gin.H{
		"UserID":      identity.UserID,
		"DisplayName": identity.DisplayName,
		"Target":      target,
	})
}

func (r *htmlRenderer) Navigate(target string) {
	r.c.Redirect(http.StatusFound, target)
}

package services

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"cfss-backend/models"
	"cfss-backend/storage"
	"cfss-backend/utils"

	"golang.org/x/net/html"
)

const reportReadyTemplate = `<h2>Report ready: {{project_name}}</h2>
<p>A {{report_type}} report was generated for project {{project_number}} ({{client_name}}).</p>
<table>
<tr><th>Generated by</th><td>{{user_email}}</td></tr>
<tr><th>Pages</th><td>{{page_count}}</td></tr>
<tr><th>Link expires</th><td>{{expires_at}}</td></tr>
</table>
<p>Download: {{report_url}}</p>`

// convertHTMLToText converts HTML content to plain text for email sending
func convertHTMLToText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var text strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(strings.TrimRight(n.Data, "\n"))
		case html.ElementNode:
			switch n.Data {
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr":
				text.WriteString("\n")
			case "li":
				text.WriteString("\n- ")
			case "td", "th":
				text.WriteString(" | ")
			}
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}

	extractText(doc)

	result := text.String()
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(result)
}

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService sends report-ready notifications over SMTP.
type EmailService struct {
	host     string
	port     string
	user     string
	password string
	notify   string
	send     sendMailFunc
}

// NewEmailService returns nil when no SMTP host is configured.
func NewEmailService(cfg *utils.Config) *EmailService {
	if cfg.SMTPHost == "" {
		return nil
	}
	return &EmailService{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		notify:   cfg.NotifyEmail,
		send:     smtp.SendMail,
	}
}

// ReportReady carries the values of the report-ready message.
type ReportReady struct {
	Project    *models.Project
	User       models.UserInfo
	ReportType string
	PageCount  int
	Upload     *storage.ReportUpload
}

// NotifyReportReady mails the requester, copying NOTIFY_EMAIL when set.
func (es *EmailService) NotifyReportReady(r ReportReady) error {
	if es == nil {
		return nil
	}
	to := []string{}
	if r.User.Email != "" {
		to = append(to, r.User.Email)
	}
	if es.notify != "" && !strings.EqualFold(es.notify, r.User.Email) {
		to = append(to, es.notify)
	}
	if len(to) == 0 {
		return nil
	}

	subject := processTemplate("Report ready: {{project_name}}", reportVariables(r))
	body := convertHTMLToText(processTemplate(reportReadyTemplate, reportVariables(r)))
	return es.sendEmail(to, subject, body)
}

func reportVariables(r ReportReady) map[string]string {
	vars := map[string]string{
		"report_type": r.ReportType,
		"user_email":  r.User.Email,
		"page_count":  fmt.Sprint(r.PageCount),
	}
	if r.Project != nil {
		vars["project_name"] = r.Project.Name
		vars["project_number"] = r.Project.ProjectNumber
		vars["client_name"] = r.Project.ClientName
	}
	if r.Upload != nil {
		vars["report_url"] = r.Upload.URL
		vars["expires_at"] = r.Upload.ExpiresAt.UTC().Format(time.RFC1123)
	}
	return vars
}

// processTemplate replaces {{name}} placeholders.
func processTemplate(templateStr string, variables map[string]string) string {
	result := templateStr
	for key, value := range variables {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

func (es *EmailService) sendEmail(to []string, subject, body string) error {
	var auth smtp.Auth
	if es.user != "" {
		auth = smtp.PlainAuth("", es.user, es.password, es.host)
	}

	from := es.user
	if from == "" {
		from = es.notify
	}

	headers := []string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n")

	if err := es.send(es.host+":"+es.port, auth, from, to, msg); err != nil {
		return fmt.Errorf("send report mail: %w", err)
	}
	return nil
}

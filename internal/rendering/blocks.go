package rendering

import (
	"fmt"
	"strings"
)

// Styles stay minimal so mail clients inherit the reader's default font.

// BulletList renders non-blank items as an unordered list. No items yields "".
func BulletList(items []string) string {
	var lis []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		lis = append(lis, fmt.Sprintf(`<li style="margin:6px 0;">%s</li>`, EscapeHTML(item)))
	}
	if len(lis) == 0 {
		return ""
	}
	return `<ul style="margin:8px 0 0 20px;padding:0;">` + "\n" + strings.Join(lis, "\n") + "\n</ul>"
}

// SectionBlock wraps already-rendered body HTML under a title. An empty body
// renders nothing so no orphan headings appear.
func SectionBlock(title, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf(`<div style="margin:0 0 12px 0;">
  <div style="font-weight:700;margin:0 0 6px 0;">%s</div>
  <div style="margin:0;">%s</div>
</div>`, EscapeHTML(title), body)
}

// ImageBlock references an inline image by content ID with an optional caption.
func ImageBlock(cid, caption string) string {
	captionHTML := ""
	if c := strings.TrimSpace(caption); c != "" {
		captionHTML = "\n  " + fmt.Sprintf(`<div style="font-size:10.5pt;color:#374151;margin-top:6px;line-height:1.35;">%s</div>`, EscapeHTML(c))
	}
	return fmt.Sprintf(`<div style="margin:10px 0 12px 0;">
  <img src="cid:%s" alt="" style="width:100%%;height:auto;max-width:900px;border:1px solid #e5e7eb;display:block;" />%s
</div>`, EscapeHTML(cid), captionHTML)
}

// GreetingBlock opens the email, addressing the contact by name when known.
func GreetingBlock(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return `<p style="margin:0 0 12px 0;">Hi there,</p>`
	}
	return fmt.Sprintf(`<p style="margin:0 0 12px 0;">Hi %s,</p>`, EscapeHTML(name))
}

// Sender identifies who signs the email
type Sender struct {
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`
	Email string `json:"email,omitempty"`
}

// SignatureBlock closes the email. Blank sender fields are skipped.
func SignatureBlock(sender Sender) string {
	lines := []string{"Thanks,"}
	for _, s := range []string{sender.Name, sender.Title, sender.Email} {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, EscapeHTML(s))
		}
	}
	return `<p style="margin:16px 0 0 0;">` + strings.Join(lines, "<br />") + "</p>"
}

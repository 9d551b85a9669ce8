package handlers

import (
	"github.com/gofiber/fiber/v2"
)

const pageStyle = `<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>`

type LegalHandler struct {
	appName string
}

func NewLegalHandler(appName string) *LegalHandler {
	if appName == "" {
		appName = "NyayNow Confessions"
	}
	return &LegalHandler{appName: appName}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - ` + h.appName + `</title>
` + pageStyle + `
</head><body>
<h1>Privacy Policy</h1>
<h2>Anonymity</h2>
<p>Confessions, replies, upvotes and helpful marks are shown without any account identifier. Other users see only counts and a generic label such as "Community Member".</p>
<h2>What We Keep</h2>
<p>We store your account reference with each post so moderators can act on abuse reports. It is never included in public responses.</p>
<h2>AI Analysis</h2>
<p>The title, body and category of a confession are sent to an AI provider to draft a preliminary analysis. Your account reference is never sent.</p>
<h2>Contact Details</h2>
<p>Posts containing phone numbers, email addresses, links, Aadhaar or PAN numbers are rejected so you cannot identify yourself by mistake.</p>
</body></html>`)
}

func (h *LegalHandler) Disclaimer(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Disclaimer - ` + h.appName + `</title>
` + pageStyle + `
</head><body>
<h1>Disclaimer</h1>
<p>Replies from "NyayNow AI" are automated, preliminary and not legal advice. Replies from advocates on ` + h.appName + ` are general information and do not create a lawyer-client relationship.</p>
<p>For advice on your situation, consult a lawyer.</p>
</body></html>`)
}

package notify

import (
	"bytes"
	"html/template"
	"time"
)

const otpSubject = "Your Jarvis password reset code"

var otpTemplate = template.Must(template.New("otp").Parse(`<html>
<body style="font-family: Arial, sans-serif; background: #f4f4f4; padding: 20px;">
  <div style="max-width: 480px; margin: auto; background: #ffffff; border-radius: 8px; padding: 24px;">
    <h2 style="color: #333333;">Password reset</h2>
    <p>Hello {{.Username}},</p>
    <p>Use the code below to reset your password:</p>
    <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px; color: #1a73e8;">{{.Code}}</p>
    <p>This code expires in {{.Minutes}} minutes. If you did not ask for a reset you can ignore this email.</p>
  </div>
</body>
</html>`))

// RenderOTPEmail returns the subject and HTML body of a reset code email
func RenderOTPEmail(username, code string, ttl time.Duration) (string, string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Username string
		Code     string
		Minutes  int
	}{username, code, int(ttl.Minutes())})
	if err != nil {
		return "", "", err
	}
	return otpSubject, buf.String(), nil
}

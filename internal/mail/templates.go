package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// The three notification emails. Each builder returns a complete Message
// (text and HTML parts) ready for the router.

const (
	verificationSubject = "🎓 Welcome to AIHUB-VVIT! Verify Your Email"
	welcomeSubject      = "🎉 Welcome to AIHub Family – Registration Successful!"
	resetSubject        = "🔐 Reset Your AIHUB-VVIT Password"
)

var (
	verificationTmpl = template.Must(template.New("verification").Parse(verificationHTML))
	welcomeTmpl      = template.Must(template.New("welcome").Parse(welcomeHTML))
	resetTmpl        = template.Must(template.New("reset").Parse(resetHTML))
)

// Verification is the signup email carrying the 24-hour verification link.
func Verification(to, name, verifyURL string) Message {
	return Message{
		To:      to,
		Subject: verificationSubject,
		Text: fmt.Sprintf(
			"Hi %s,\n\nWelcome to AIHUB-VVIT! Please verify your email address by visiting:\n\n%s\n\nThis link expires in 24 hours. If you didn't create an account, you can ignore this email.\n\n— The AIHUB-VVIT Team",
			name, verifyURL,
		),
		HTML: render(verificationTmpl, map[string]any{
			"Name":      name,
			"VerifyURL": verifyURL,
			"Year":      time.Now().Year(),
		}),
	}
}

// PasswordReset carries the 1-hour reset link.
func PasswordReset(to, name, resetURL string) Message {
	return Message{
		To:      to,
		Subject: resetSubject,
		Text: fmt.Sprintf(
			"Hi %s,\n\nWe received a request to reset your AIHUB-VVIT password. Visit the link below to choose a new one:\n\n%s\n\nThis link expires in 1 hour. If you didn't request a reset, you can safely ignore this email — your password is unchanged.\n\n— The AIHUB-VVIT Team",
			name, resetURL,
		),
		HTML: render(resetTmpl, map[string]any{
			"Name":     name,
			"ResetURL": resetURL,
			"Year":     time.Now().Year(),
		}),
	}
}

// Welcome is sent once the account becomes a full member: after email
// verification, or immediately for OAuth signups.
func Welcome(to, name, method string) Message {
	return Message{
		To:      to,
		Subject: welcomeSubject,
		Text: fmt.Sprintf(
			"Hi %s,\n\nYour AIHUB-VVIT registration is complete — welcome to the AIHub family! You signed up with %s as %s.\n\nJump in, explore the events, and say hello to the community.\n\n— The AIHUB-VVIT Team",
			name, method, to,
		),
		HTML: render(welcomeTmpl, map[string]any{
			"Name":   name,
			"Email":  to,
			"Method": method,
			"Year":   time.Now().Year(),
		}),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	// Templates are compile-time constants; execution cannot fail on
	// map[string]any data.
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

const verificationHTML = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f6fb;font-family:Segoe UI,Roboto,Arial,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:32px 16px;">
      <table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:12px;overflow:hidden;">
        <tr><td style="background:linear-gradient(135deg,#4f46e5,#7c3aed);padding:28px 32px;color:#ffffff;">
          <h1 style="margin:0;font-size:22px;">🎓 AIHUB-VVIT</h1>
          <p style="margin:6px 0 0;font-size:14px;opacity:.9;">Student AI Community, VVIT</p>
        </td></tr>
        <tr><td style="padding:32px;color:#1f2937;">
          <h2 style="margin:0 0 12px;font-size:18px;">Hi {{.Name}}, verify your email</h2>
          <p style="margin:0 0 20px;font-size:14px;line-height:1.6;">
            Thanks for joining AIHUB-VVIT! Click the button below to confirm your
            email address and activate your account.
          </p>
          <p style="margin:0 0 24px;" align="center">
            <a href="{{.VerifyURL}}" style="display:inline-block;background:#4f46e5;color:#ffffff;text-decoration:none;padding:12px 28px;border-radius:8px;font-size:14px;font-weight:600;">Verify Email</a>
          </p>
          <p style="margin:0 0 8px;font-size:12px;color:#6b7280;">
            The button not working? Paste this link into your browser:
          </p>
          <p style="margin:0 0 20px;font-size:12px;word-break:break-all;">
            <a href="{{.VerifyURL}}" style="color:#4f46e5;">{{.VerifyURL}}</a>
          </p>
          <p style="margin:0;font-size:12px;color:#6b7280;">
            This link expires in <strong>24 hours</strong>. If you didn't create
            an account, you can safely ignore this email.
          </p>
        </td></tr>
        <tr><td style="padding:20px 32px;background:#f9fafb;color:#9ca3af;font-size:12px;" align="center">
          © {{.Year}} AIHUB-VVIT · Vasireddy Venkatadri Institute of Technology
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

const resetHTML = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f6fb;font-family:Segoe UI,Roboto,Arial,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:32px 16px;">
      <table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:12px;overflow:hidden;">
        <tr><td style="background:linear-gradient(135deg,#0f172a,#334155);padding:28px 32px;color:#ffffff;">
          <h1 style="margin:0;font-size:22px;">🔐 Password Reset</h1>
          <p style="margin:6px 0 0;font-size:14px;opacity:.9;">AIHUB-VVIT Account Security</p>
        </td></tr>
        <tr><td style="padding:32px;color:#1f2937;">
          <h2 style="margin:0 0 12px;font-size:18px;">Hi {{.Name}},</h2>
          <p style="margin:0 0 20px;font-size:14px;line-height:1.6;">
            We received a request to reset your password. Click the button below
            to choose a new one.
          </p>
          <p style="margin:0 0 24px;" align="center">
            <a href="{{.ResetURL}}" style="display:inline-block;background:#0f172a;color:#ffffff;text-decoration:none;padding:12px 28px;border-radius:8px;font-size:14px;font-weight:600;">Reset Password</a>
          </p>
          <p style="margin:0 0 8px;font-size:12px;color:#6b7280;">
            The button not working? Paste this link into your browser:
          </p>
          <p style="margin:0 0 20px;font-size:12px;word-break:break-all;">
            <a href="{{.ResetURL}}" style="color:#0f172a;">{{.ResetURL}}</a>
          </p>
          <p style="margin:0;font-size:12px;color:#6b7280;">
            This link expires in <strong>1 hour</strong>. If you didn't request a
            reset, ignore this email — your password is unchanged.
          </p>
        </td></tr>
        <tr><td style="padding:20px 32px;background:#f9fafb;color:#9ca3af;font-size:12px;" align="center">
          © {{.Year}} AIHUB-VVIT · Vasireddy Venkatadri Institute of Technology
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

const welcomeHTML = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f6fb;font-family:Segoe UI,Roboto,Arial,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:32px 16px;">
      <table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:12px;overflow:hidden;">
        <tr><td style="background:linear-gradient(135deg,#059669,#10b981);padding:28px 32px;color:#ffffff;">
          <h1 style="margin:0;font-size:22px;">🎉 Welcome Aboard!</h1>
          <p style="margin:6px 0 0;font-size:14px;opacity:.9;">You're part of the AIHub family now</p>
        </td></tr>
        <tr><td style="padding:32px;color:#1f2937;">
          <h2 style="margin:0 0 12px;font-size:18px;">Hi {{.Name}},</h2>
          <p style="margin:0 0 20px;font-size:14px;line-height:1.6;">
            Your registration is complete. Here's a quick summary of your account:
          </p>
          <table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#f9fafb;border-radius:8px;">
            <tr><td style="padding:16px 20px;font-size:13px;color:#374151;">
              <p style="margin:0 0 6px;"><strong>Email:</strong> {{.Email}}</p>
              <p style="margin:0;"><strong>Sign-in method:</strong> {{.Method}}</p>
            </td></tr>
          </table>
          <p style="margin:20px 0 0;font-size:14px;line-height:1.6;">
            Jump in, explore upcoming events, and say hello to the community. We
            are glad to have you!
          </p>
        </td></tr>
        <tr><td style="padding:20px 32px;background:#f9fafb;color:#9ca3af;font-size:12px;" align="center">
          © {{.Year}} AIHUB-VVIT · Vasireddy Venkatadri Institute of Technology
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

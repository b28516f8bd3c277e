package email

import "strings"

type Content struct {
	Subject string
	Text    string
	HTML    string
}

func VerificationEmail(link string) Content {
	return render(Content{
		Subject: "Verify your email - AI Podcast Generator",
		Text: "Welcome to AI Podcast Generator!\n\n" +
			"Thank you for signing up. Please verify your email address by clicking the link below:\n\n" +
			"{link}\n\n" +
			"This link will expire in 24 hours.\n\n" +
			"If you did not create an account, please ignore this email.",
		HTML: "<p>Welcome to AI Podcast Generator!</p>" +
			"<p>Thank you for signing up. Please verify your email address:</p>" +
			"<p><a href=\"{link}\">Verify Email Address</a></p>" +
			"<p>Or copy and paste this link into your browser:</p>" +
			"<p>{link}</p>" +
			"<p>This link will expire in 24 hours.</p>" +
			"<p>If you did not create an account, please ignore this email.</p>",
	}, "{link}", link)
}

func PasswordResetEmail(link string) Content {
	return render(Content{
		Subject: "Password Reset - AI Podcast Generator",
		Text: "Password Reset Request\n\n" +
			"We received a request to reset your password. Click the link below to create a new password:\n\n" +
			"{link}\n\n" +
			"This link will expire in 1 hour.\n\n" +
			"If you did not request a password reset, please ignore this email. Your password will remain unchanged.",
		HTML: "<p>Password Reset Request</p>" +
			"<p>We received a request to reset your password. Click the link to create a new password:</p>" +
			"<p><a href=\"{link}\">Reset Password</a></p>" +
			"<p>Or copy and paste this link into your browser:</p>" +
			"<p>{link}</p>" +
			"<p><strong>This link will expire in 1 hour.</strong></p>" +
			"<p>If you did not request a password reset, please ignore this email. Your password will remain unchanged.</p>",
	}, "{link}", link)
}

func ExternalSignInNoticeEmail() Content {
	return Content{
		Subject: "Sign-in help - AI Podcast Generator",
		Text: "This account signs in with Google and has no password, so there is nothing to reset.\n" +
			"Please use the Google sign-in button to access your account.",
		HTML: "<p>This account signs in with Google and has no password, so there is nothing to reset.</p>" +
			"<p>Please use the Google sign-in button to access your account.</p>",
	}
}

func AdminNoticeEmail(newAccountEmail, registeredAt string) Content {
	c := Content{
		Subject: "New User Registration - AI Podcast Generator",
		Text: "New User Registration\n\n" +
			"A new user has registered for the AI Podcast Generator application.\n\n" +
			"Email: {email}\n" +
			"Registration Date: {date}\n\n" +
			"This is an automated notification.",
		HTML: "<p>New User Registration</p>" +
			"<p>A new user has registered for the AI Podcast Generator application.</p>" +
			"<p><strong>Email:</strong> {email}<br>" +
			"<strong>Registration Date:</strong> {date}</p>" +
			"<p>This is an automated notification.</p>",
	}
	c = render(c, "{email}", newAccountEmail)
	return render(c, "{date}", registeredAt)
}

func render(c Content, placeholder, value string) Content {
	c.Text = strings.ReplaceAll(c.Text, placeholder, value)
	c.HTML = strings.ReplaceAll(c.HTML, placeholder, value)
	return c
}

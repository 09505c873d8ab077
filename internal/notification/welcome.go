package notification

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Captainsparrow404/neuvii-backend/internal/identity"
)

// WelcomeMessage is the composed message for a newly provisioned user.
type WelcomeMessage struct {
	To      string
	Subject string
	Body    string
}

var roleCapabilitySummaries = map[identity.Role]string{
	identity.RoleClinicAdmin: `As a clinic admin, you'll be able to:
- Manage therapists and clients in your clinic
- Register children and link them to therapists
- Review therapy activity across your clinic`,
	identity.RoleTherapist: `As a therapist, you'll have access to:
- Manage your assigned clients and children
- Create and track therapy goals and tasks
- Review completed assignments`,
	identity.RoleParent: `As a parent, you'll be able to:
- View your child's therapy progress
- Track completed assignments and goals
- Review tasks shared with you`,
}

var roleSubjects = map[identity.Role]string{
	identity.RoleSystemAdmin: "Welcome to Neuvii - Your Account Details",
	identity.RoleClinicAdmin: "Welcome to Neuvii - Clinic Admin Account Created",
	identity.RoleTherapist:   "Welcome to Neuvii - Therapist Account Created",
	identity.RoleParent:      "Welcome to Neuvii - Parent Account Created",
}

// ComposeWelcome renders the welcome message for a provisioned account.
// The reset link carries the emailed credential so the recipient lands
// directly on the set-password form.
func ComposeWelcome(baseURL string, role identity.Role, email, firstName, tempPassword string) WelcomeMessage {
	baseURL = strings.TrimRight(baseURL, "/")
	resetLink := fmt.Sprintf("%s/auth/reset-password/?email=%s&temp_password=%s",
		baseURL, url.QueryEscape(email), url.QueryEscape(tempPassword))
	loginLink := baseURL + "/auth/login/"

	subject, ok := roleSubjects[role]
	if !ok {
		subject = "Welcome to Neuvii - Your Account Details"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Welcome to Neuvii, %s!\n\n", firstName)
	fmt.Fprintf(&b, "Your %s account has been created successfully. Here are your login details:\n\n", strings.ToLower(string(role)))
	fmt.Fprintf(&b, "Email: %s\nTemporary Password: %s\n\n", email, tempPassword)
	fmt.Fprintf(&b, "Please click the link below to set your new password:\n%s\n\n", resetLink)
	fmt.Fprintf(&b, "Alternatively, you can login at: %s\n\n", loginLink)
	b.WriteString("IMPORTANT: You will be required to change your password upon first login for security reasons.\n")
	if summary, ok := roleCapabilitySummaries[role]; ok {
		b.WriteString("\n" + summary + "\n")
	}
	b.WriteString("\nIf you have any questions, please contact our support team.\n\nBest regards,\nNeuvii Team\n")

	return WelcomeMessage{To: email, Subject: subject, Body: b.String()}
}

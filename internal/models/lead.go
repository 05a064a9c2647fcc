// internal/models/lead.go
package models

// FormType identifies which website form a submission came from.
type FormType string

const (
	FormNewsletter  FormType = "newsletter"
	FormPartnership FormType = "partnership"
	FormFunding     FormType = "funding"
)

// ContactRecord is the contact submitted to the CRM. Email is the
// unique key upstream; the record is never stored locally.
type ContactRecord struct {
	Email      string            `json:"email"`
	Attributes map[string]string `json:"attributes,omitempty"`
	ListIDs    []int64           `json:"listIds,omitempty"`
}

// Address is an email participant.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// NotificationEmail is a rendered transactional email ready for a transport.
type NotificationEmail struct {
	Sender   Address   `json:"sender"`
	To       []Address `json:"to"`
	Subject  string    `json:"subject"`
	HTMLBody string    `json:"htmlContent"`
}

// Recipients returns the bare addresses of every To entry.
func (n *NotificationEmail) Recipients() []string {
	out := make([]string, 0, len(n.To))
	for _, a := range n.To {
		out = append(out, a.Email)
	}
	return out
}

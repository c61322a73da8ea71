package models

import "strings"

// DefaultCron fires every two minutes.
const DefaultCron = "*/2 * * * *"

// Draft is the unsaved job request being composed on the form page.
// It is a value: Reduce returns a new Draft and never mutates its input.
type Draft struct {
	Subject        string   `json:"subject"`
	FromEmail      string   `json:"from_email"`
	FromName       string   `json:"from_name"`
	Recipients     []string `json:"recipients"`
	RecipientInput string   `json:"recipient_input"`
	Prompt         string   `json:"prompt"`
	Cron           string   `json:"cron"`
	Loading        bool     `json:"loading"`
	Status         string   `json:"status,omitempty"`
}

// NewDraft returns the state of a freshly loaded form.
func NewDraft() Draft {
	return Draft{
		Recipients: []string{},
		Cron:       DefaultCron,
	}
}

// Field names a user-editable text field of a Draft.
type Field string

const (
	FieldSubject        Field = "subject"
	FieldFromEmail      Field = "from_email"
	FieldFromName       Field = "from_name"
	FieldRecipientInput Field = "recipient_input"
	FieldPrompt         Field = "prompt"
	FieldCron           Field = "cron"

	// FieldRecipients is only reported by Missing; use AddRecipient to edit it.
	FieldRecipients Field = "recipients"
)

// Action is a state transition accepted by Reduce.
type Action interface {
	isAction()
}

// SetField replaces the value of a single text field.
type SetField struct {
	Field Field
	Value string
}

// AddRecipient moves the trimmed recipient input into the recipient list.
type AddRecipient struct{}

// RemoveRecipient drops Email from the recipient list.
type RemoveRecipient struct {
	Email string
}

// BeginSubmit marks the draft busy and clears the previous status.
type BeginSubmit struct{}

// EndSubmit releases the busy flag.
type EndSubmit struct{}

// RejectSubmit records a validation message without touching the busy flag.
type RejectSubmit struct {
	Message string
}

// ResolveSuccess records a successful submission.
type ResolveSuccess struct {
	JobID   string
	Message string
}

// ResolveFailure records a failed submission.
type ResolveFailure struct {
	Message string
}

func (SetField) isAction()        {}
func (AddRecipient) isAction()    {}
func (RemoveRecipient) isAction() {}
func (BeginSubmit) isAction()     {}
func (EndSubmit) isAction()       {}
func (RejectSubmit) isAction()    {}
func (ResolveSuccess) isAction()  {}
func (ResolveFailure) isAction()  {}

// Reduce applies a to d and returns the resulting draft.
func Reduce(d Draft, a Action) Draft {
	switch a := a.(type) {
	case SetField:
		return d.withField(a.Field, a.Value)

	case AddRecipient:
		email := strings.TrimSpace(d.RecipientInput)
		if email == "" {
			return d
		}
		d.RecipientInput = ""
		if d.HasRecipient(email) {
			return d
		}
		recipients := make([]string, len(d.Recipients), len(d.Recipients)+1)
		copy(recipients, d.Recipients)
		d.Recipients = append(recipients, email)
		return d

	case RemoveRecipient:
		idx := -1
		for i, r := range d.Recipients {
			if r == a.Email {
				idx = i
				break
			}
		}
		if idx < 0 {
			return d
		}
		recipients := make([]string, 0, len(d.Recipients)-1)
		recipients = append(recipients, d.Recipients[:idx]...)
		d.Recipients = append(recipients, d.Recipients[idx+1:]...)
		return d

	case BeginSubmit:
		d.Loading = true
		d.Status = ""
		return d

	case EndSubmit:
		d.Loading = false
		return d

	case RejectSubmit:
		d.Status = a.Message
		return d

	case ResolveSuccess:
		d.Status = a.Message
		return d

	case ResolveFailure:
		d.Status = a.Message
		return d
	}
	return d
}

func (d Draft) withField(f Field, v string) Draft {
	switch f {
	case FieldSubject:
		d.Subject = v
	case FieldFromEmail:
		d.FromEmail = v
	case FieldFromName:
		d.FromName = v
	case FieldRecipientInput:
		d.RecipientInput = v
	case FieldPrompt:
		d.Prompt = v
	case FieldCron:
		d.Cron = v
	}
	return d
}

// HasRecipient reports whether email is already in the recipient list.
func (d Draft) HasRecipient(email string) bool {
	for _, r := range d.Recipients {
		if r == email {
			return true
		}
	}
	return false
}

// Missing lists the required fields that are still empty.
func (d Draft) Missing() []Field {
	var missing []Field
	if d.FromEmail == "" {
		missing = append(missing, FieldFromEmail)
	}
	if len(d.Recipients) == 0 {
		missing = append(missing, FieldRecipients)
	}
	if d.Prompt == "" {
		missing = append(missing, FieldPrompt)
	}
	return missing
}

// Payload maps the draft to the scheduling request wire shape.
func (d Draft) Payload() ScheduleRequest {
	var fromName *string
	if d.FromName != "" {
		name := d.FromName
		fromName = &name
	}
	recipients := make([]string, len(d.Recipients))
	copy(recipients, d.Recipients)

	return ScheduleRequest{
		FromEmail:  d.FromEmail,
		FromName:   fromName,
		Subject:    d.Subject,
		Recipients: recipients,
		Prompt:     d.Prompt,
		Cron:       d.Cron,
	}
}

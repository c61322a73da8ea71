package utils

import "github.com/nicksnyder/go-i18n/v2/i18n"

// Status messages shown under the form.
var (
	MsgMissingFields = &i18n.Message{
		ID:    "status_missing_fields",
		Other: "Please fill in From Email, at least one recipient, and a prompt.",
	}
	MsgJobScheduled = &i18n.Message{
		ID:    "status_job_scheduled",
		Other: "Job scheduled! Job ID: {{.JobID}}",
	}
	MsgError = &i18n.Message{
		ID:    "status_error",
		Other: "Error: {{.Message}}",
	}
	MsgScheduleFailed = &i18n.Message{
		ID:    "error_schedule_failed",
		Other: "Failed to schedule email job",
	}
	MsgSomethingWrong = &i18n.Message{
		ID:    "error_generic",
		Other: "Something went wrong.",
	}
	MsgNotFound = &i18n.Message{
		ID:    "error_404",
		Other: "Page not found",
	}
	MsgRateLimited = &i18n.Message{
		ID:    "error_rate_limited",
		Other: "Rate limit exceeded. Please try again later.",
	}
	MsgRecipientCount = &i18n.Message{
		ID:    "recipient_count",
		One:   "{{.Count}} recipient",
		Other: "{{.Count}} recipients",
	}
)

// Page copy, keyed by the name templates use.
var pageMessages = map[string]*i18n.Message{
	"Title":              {ID: "page_title", Other: "Rads Automatic Email sender"},
	"Subtitle":           {ID: "page_subtitle", Other: "Configure a prompt, recipients, and schedule to let Rad's bot handle your emails automatically."},
	"CardHeader":         {ID: "card_header", Other: "Schedule a staggered email job"},
	"CardDescription":    {ID: "card_description", Other: "Each run sends to the next recipient in the list until all have received an email."},
	"SubjectLabel":       {ID: "label_subject", Other: "Email subject (optional)"},
	"SubjectHint":        {ID: "hint_subject", Other: "e.g. Weekly sales update"},
	"FromEmailLabel":     {ID: "label_from_email", Other: "Email you are sending from"},
	"FromEmailHint":      {ID: "hint_from_email", Other: "yourgmail@gmail.com"},
	"FromNameLabel":      {ID: "label_from_name", Other: "Your name (shown in the email 'From' field)"},
	"FromNameHint":       {ID: "hint_from_name", Other: "Rad"},
	"RecipientsLabel":    {ID: "label_recipients", Other: "Recipients"},
	"RecipientHint":      {ID: "hint_recipient", Other: "Add recipient email"},
	"AddButton":          {ID: "button_add", Other: "Add"},
	"RemoveButton":       {ID: "button_remove", Other: "Remove"},
	"PromptLabel":        {ID: "label_prompt", Other: "Prompt for the email body"},
	"PromptHint":         {ID: "hint_prompt", Other: "Explain what the email should say and how it should sound."},
	"CronLabel":          {ID: "label_cron", Other: "Cron schedule expression"},
	"CronHint":           {ID: "hint_cron", Other: "*/2 * * * *  (every 2 minutes)"},
	"CronExampleEvery2":  {ID: "cron_example_every_2", Other: "every 2 minutes"},
	"CronExampleDaily9":  {ID: "cron_example_daily_9", Other: "every day at 9:00"},
	"SubmitButton":       {ID: "button_submit", Other: "Schedule job"},
	"SubmittingButton":   {ID: "button_submitting", Other: "Scheduling..."},
	"ErrorHeading":       {ID: "error_heading", Other: "Something went wrong"},
	"BackToForm":         {ID: "back_to_form", Other: "Back to the form"},
}

// PageLabels resolves all page copy for one request.
func PageLabels(localizer *i18n.Localizer) map[string]string {
	labels := make(map[string]string, len(pageMessages))
	for key, msg := range pageMessages {
		labels[key] = T(localizer, msg)
	}
	return labels
}

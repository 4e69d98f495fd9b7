package bento

// Resource is one record in Bento's JSON:API style envelope.
type Resource[A any] struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes A      `json:"attributes"`
}

// listEnvelope wraps listing responses: {"data": [...]}
type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

// itemEnvelope wraps single-record responses: {"data": {...}}
type itemEnvelope[T any] struct {
	Data *T `json:"data"`
}

// BatchResponse is returned by the batch and command endpoints
type BatchResponse struct {
	Results int `json:"results"`
	Failed  int `json:"failed"`
}

// =============================================================================
// Subscribers
// =============================================================================

// SubscriberAttributes holds a visitor's profile
type SubscriberAttributes struct {
	UUID           string         `json:"uuid"`
	Email          string         `json:"email"`
	Fields         map[string]any `json:"fields,omitempty"`
	CachedTagIDs   []string       `json:"cached_tag_ids,omitempty"`
	UnsubscribedAt *string        `json:"unsubscribed_at,omitempty"`
	NavigationURL  string         `json:"navigation_url,omitempty"`
}

// Subscriber is a Bento visitor record
type Subscriber = Resource[SubscriberAttributes]

// ImportSubscriber is one row of a batch subscriber import.
// Tags and RemoveTags are comma separated tag names.
type ImportSubscriber struct {
	Email      string         `json:"email" jsonschema:"Subscriber email address"`
	FirstName  string         `json:"first_name,omitempty" jsonschema:"First name"`
	LastName   string         `json:"last_name,omitempty" jsonschema:"Last name"`
	Tags       string         `json:"tags,omitempty" jsonschema:"Comma separated tags to add"`
	RemoveTags string         `json:"remove_tags,omitempty" jsonschema:"Comma separated tags to remove"`
	Fields     map[string]any `json:"fields,omitempty" jsonschema:"Custom field values keyed by field key"`
}

// payload flattens custom fields next to the fixed columns, which is the
// shape the import endpoint expects.
func (s ImportSubscriber) payload() map[string]any {
	out := make(map[string]any, len(s.Fields)+5)
	for k, v := range s.Fields {
		out[k] = v
	}
	out["email"] = s.Email
	if s.FirstName != "" {
		out["first_name"] = s.FirstName
	}
	if s.LastName != "" {
		out["last_name"] = s.LastName
	}
	if s.Tags != "" {
		out["tags"] = s.Tags
	}
	if s.RemoveTags != "" {
		out["remove_tags"] = s.RemoveTags
	}
	return out
}

// Command names accepted by /fetch/commands
const (
	CommandAddTag      = "add_tag"
	CommandRemoveTag   = "remove_tag"
	CommandSubscribe   = "subscribe"
	CommandUnsubscribe = "unsubscribe"
)

type command struct {
	Command string `json:"command"`
	Email   string `json:"email"`
	Query   string `json:"query,omitempty"`
}

// =============================================================================
// Events
// =============================================================================

// Event is a custom event tracked against a subscriber
type Event struct {
	Type    string         `json:"type"`
	Email   string         `json:"email"`
	Fields  map[string]any `json:"fields,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// =============================================================================
// Tags and fields
// =============================================================================

// TagAttributes describes a tag
type TagAttributes struct {
	Name        string  `json:"name"`
	CreatedAt   string  `json:"created_at,omitempty"`
	DiscardedAt *string `json:"discarded_at,omitempty"`
}

// Tag is a Bento tag record
type Tag = Resource[TagAttributes]

// FieldAttributes describes a custom subscriber field
type FieldAttributes struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	Whitelisted *bool  `json:"whitelisted,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Field is a Bento custom field record
type Field = Resource[FieldAttributes]

// =============================================================================
// Broadcasts
// =============================================================================

// Broadcast content types
const (
	BroadcastPlain    = "plain"
	BroadcastHTML     = "html"
	BroadcastMarkdown = "markdown"
)

// BroadcastAttributes describes a broadcast
type BroadcastAttributes struct {
	Name      string      `json:"name"`
	Subject   string      `json:"subject,omitempty"`
	Content   string      `json:"content,omitempty"`
	Type      string      `json:"type,omitempty"`
	CreatedAt string      `json:"created_at,omitempty"`
	SendAt    string      `json:"send_at,omitempty"`
	Stats     *EmailStats `json:"stats,omitempty"`
}

// Broadcast is a Bento broadcast record
type Broadcast = Resource[BroadcastAttributes]

// Sender is a broadcast's from address
type Sender struct {
	Email string `json:"email" jsonschema:"Verified sender email address"`
	Name  string `json:"name,omitempty" jsonschema:"Sender display name"`
}

// NewBroadcast is the body of a broadcast creation request
type NewBroadcast struct {
	Name             string  `json:"name"`
	Subject          string  `json:"subject"`
	Content          string  `json:"content"`
	Type             string  `json:"type"`
	From             *Sender `json:"from,omitempty"`
	InclusiveTags    string  `json:"inclusive_tags,omitempty"`
	ExclusiveTags    string  `json:"exclusive_tags,omitempty"`
	SegmentID        string  `json:"segment_id,omitempty"`
	BatchSizePerHour int     `json:"batch_size_per_hour,omitempty"`
}

// EmailStats are delivery counters reported for broadcasts and templates
type EmailStats struct {
	Recipients  int     `json:"recipients,omitempty"`
	TotalOpens  int     `json:"total_opens,omitempty"`
	OpenRate    float64 `json:"open_rate,omitempty"`
	TotalClicks int     `json:"total_clicks,omitempty"`
	ClickRate   float64 `json:"click_rate,omitempty"`
}

// =============================================================================
// Sequences, workflows and templates
// =============================================================================

// TemplateRef is an email template embedded in a sequence or workflow listing
type TemplateRef struct {
	ID      int         `json:"id"`
	Subject string      `json:"subject,omitempty"`
	Stats   *EmailStats `json:"stats,omitempty"`
}

// AutomationAttributes describes a sequence or workflow
type AutomationAttributes struct {
	Name           string        `json:"name"`
	CreatedAt      string        `json:"created_at,omitempty"`
	EmailTemplates []TemplateRef `json:"email_templates,omitempty"`
}

// Sequence is a drip sequence
type Sequence Resource[AutomationAttributes]

// EntityID implements resolve.Named
func (s Sequence) EntityID() string { return s.ID }

// EntityName implements resolve.Named
func (s Sequence) EntityName() string { return s.Attributes.Name }

// Workflow is an automation workflow
type Workflow Resource[AutomationAttributes]

// EntityID implements resolve.Named
func (w Workflow) EntityID() string { return w.ID }

// EntityName implements resolve.Named
func (w Workflow) EntityName() string { return w.Attributes.Name }

// EmailTemplateAttributes describes an email template
type EmailTemplateAttributes struct {
	Name      string      `json:"name,omitempty"`
	Subject   string      `json:"subject,omitempty"`
	HTML      string      `json:"html,omitempty"`
	CreatedAt string      `json:"created_at,omitempty"`
	Stats     *EmailStats `json:"stats,omitempty"`
}

// EmailTemplate is a Bento email template
type EmailTemplate = Resource[EmailTemplateAttributes]

// SequenceEmail is the body for adding an email to a sequence
type SequenceEmail struct {
	Subject            string `json:"subject"`
	HTML               string `json:"html"`
	DelayInterval      string `json:"delay_interval,omitempty"`
	DelayIntervalCount int    `json:"delay_interval_count,omitempty"`
	InboxSnippet       string `json:"inbox_snippet,omitempty"`
}

// TemplateUpdate is the body for patching an email template
type TemplateUpdate struct {
	Subject string `json:"subject,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// =============================================================================
// Stats and validation
// =============================================================================

// SiteStats are account wide subscriber counts
type SiteStats struct {
	UserCount         int `json:"user_count"`
	SubscriberCount   int `json:"subscriber_count"`
	UnsubscriberCount int `json:"unsubscriber_count"`
}

// ValidationRequest asks Bento whether an address looks deliverable
type ValidationRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	IP        string `json:"ip,omitempty"`
}

type validationResponse struct {
	Valid bool `json:"valid"`
}

package bento

// =============================================================================
// Subscribers
// =============================================================================

// GetSubscriberArgs contains parameters for looking up a subscriber
type GetSubscriberArgs struct {
	Email string `json:"email,omitempty" jsonschema:"Subscriber email address. Provide email or uuid."`
	UUID  string `json:"uuid,omitempty" jsonschema:"Subscriber UUID. Provide email or uuid."`
}

// GetSubscriberResult is the result of a subscriber lookup
type GetSubscriberResult struct {
	Found      bool               `json:"found"`
	Subscriber *SubscriberSummary `json:"subscriber,omitempty"`
	Message    string             `json:"message,omitempty"`
}

// SubscriberSummary is a simplified subscriber representation
type SubscriberSummary struct {
	ID             string         `json:"id"`
	UUID           string         `json:"uuid,omitempty"`
	Email          string         `json:"email"`
	Subscribed     bool           `json:"subscribed"`
	UnsubscribedAt string         `json:"unsubscribed_at,omitempty"`
	TagIDs         []string       `json:"tag_ids,omitempty"`
	Fields         map[string]any `json:"fields,omitempty"`
}

// CreateSubscriberArgs contains parameters for creating a subscriber
type CreateSubscriberArgs struct {
	Email string `json:"email" jsonschema:"Email address of the new subscriber"`
}

// CreateSubscriberResult is the result of creating a subscriber
type CreateSubscriberResult struct {
	Subscriber SubscriberSummary `json:"subscriber"`
}

// ImportSubscribersArgs contains parameters for a batch import
type ImportSubscribersArgs struct {
	Subscribers []ImportSubscriber `json:"subscribers" jsonschema:"Subscribers to create or update (1 to 1000)"`
}

// BatchResult reports how many items a batch endpoint accepted
type BatchResult struct {
	Results int    `json:"results"`
	Failed  int    `json:"failed"`
	Message string `json:"message,omitempty"`
}

// SubscriberTagArgs contains parameters for adding or removing a tag
type SubscriberTagArgs struct {
	Email string `json:"email" jsonschema:"Subscriber email address"`
	Tag   string `json:"tag" jsonschema:"Tag name"`
}

// SubscriptionArgs contains parameters for subscribing or unsubscribing
type SubscriptionArgs struct {
	Email string `json:"email" jsonschema:"Subscriber email address"`
}

// CommandResult is the result of a subscriber command
type CommandResult struct {
	Command string `json:"command"`
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Failed  int    `json:"failed,omitempty"`
}

// TrackEventArgs contains parameters for tracking a custom event
type TrackEventArgs struct {
	Email   string         `json:"email" jsonschema:"Subscriber email address"`
	Type    string         `json:"type" jsonschema:"Event type, for example $purchase or signed_up"`
	Fields  map[string]any `json:"fields,omitempty" jsonschema:"Subscriber fields to set alongside the event"`
	Details map[string]any `json:"details,omitempty" jsonschema:"Arbitrary event details"`
}

// =============================================================================
// Tags and fields
// =============================================================================

// ListTagsArgs has no parameters
type ListTagsArgs struct{}

// TagSummary is a simplified tag representation
type TagSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
	Discarded bool   `json:"discarded,omitempty"`
}

// ListTagsResult is the result of listing tags
type ListTagsResult struct {
	Tags  []TagSummary `json:"tags"`
	Count int          `json:"count"`
}

// CreateTagArgs contains parameters for creating a tag
type CreateTagArgs struct {
	Name string `json:"name" jsonschema:"Tag name"`
}

// CreateTagResult is the result of creating a tag
type CreateTagResult struct {
	Tag TagSummary `json:"tag"`
}

// ListFieldsArgs has no parameters
type ListFieldsArgs struct{}

// FieldSummary is a simplified custom field representation
type FieldSummary struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ListFieldsResult is the result of listing custom fields
type ListFieldsResult struct {
	Fields []FieldSummary `json:"fields"`
	Count  int            `json:"count"`
}

// CreateFieldArgs contains parameters for creating a custom field
type CreateFieldArgs struct {
	Key string `json:"key" jsonschema:"Field key: letters, digits and underscores, starting with a letter"`
}

// CreateFieldResult is the result of creating a custom field
type CreateFieldResult struct {
	Field FieldSummary `json:"field"`
}

// =============================================================================
// Broadcasts and stats
// =============================================================================

// ListBroadcastsArgs contains parameters for listing broadcasts
type ListBroadcastsArgs struct {
	Page int `json:"page,omitempty" jsonschema:"Page number, starting at 1 (default 1)"`
}

// BroadcastSummary is a simplified broadcast representation
type BroadcastSummary struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Subject   string      `json:"subject,omitempty"`
	Type      string      `json:"type,omitempty"`
	CreatedAt string      `json:"created_at,omitempty"`
	SendAt    string      `json:"send_at,omitempty"`
	Stats     *EmailStats `json:"stats,omitempty"`
}

// ListBroadcastsResult is the result of listing broadcasts
type ListBroadcastsResult struct {
	Broadcasts []BroadcastSummary `json:"broadcasts"`
	Page       int                `json:"page"`
	Count      int                `json:"count"`
}

// CreateBroadcastArgs contains parameters for creating a draft broadcast
type CreateBroadcastArgs struct {
	Name             string `json:"name" jsonschema:"Internal broadcast name"`
	Subject          string `json:"subject" jsonschema:"Email subject line"`
	Content          string `json:"content" jsonschema:"Email body"`
	Type             string `json:"type,omitempty" jsonschema:"Content type: plain, html or markdown (default plain)"`
	FromEmail        string `json:"from_email,omitempty" jsonschema:"Verified sender email address"`
	FromName         string `json:"from_name,omitempty" jsonschema:"Sender display name"`
	InclusiveTags    string `json:"inclusive_tags,omitempty" jsonschema:"Comma separated tags a recipient must have"`
	ExclusiveTags    string `json:"exclusive_tags,omitempty" jsonschema:"Comma separated tags that exclude a recipient"`
	SegmentID        string `json:"segment_id,omitempty" jsonschema:"Segment to send to"`
	BatchSizePerHour int    `json:"batch_size_per_hour,omitempty" jsonschema:"Sending throttle in emails per hour"`
}

// GetSiteStatsArgs has no parameters
type GetSiteStatsArgs struct{}

// GetSiteStatsResult is the result of fetching site statistics
type GetSiteStatsResult struct {
	Stats SiteStats `json:"stats"`
}

// =============================================================================
// Sequences and workflows
// =============================================================================

// AutomationSummary is a simplified sequence or workflow representation
type AutomationSummary struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	CreatedAt  string            `json:"created_at,omitempty"`
	EmailCount int               `json:"email_count"`
	Emails     []TemplateSummary `json:"emails,omitempty"`
}

// TemplateSummary is a simplified email template representation
type TemplateSummary struct {
	ID      string      `json:"id"`
	Name    string      `json:"name,omitempty"`
	Subject string      `json:"subject,omitempty"`
	HTML    string      `json:"html,omitempty"`
	Stats   *EmailStats `json:"stats,omitempty"`
}

// ListSequencesArgs contains parameters for listing sequences
type ListSequencesArgs struct {
	Page int `json:"page,omitempty" jsonschema:"Page number, starting at 1 (default 1)"`
}

// ListSequencesResult is the result of listing sequences
type ListSequencesResult struct {
	Sequences []AutomationSummary `json:"sequences"`
	Page      int                 `json:"page"`
	Count     int                 `json:"count"`
}

// GetSequenceArgs contains parameters for finding a sequence
type GetSequenceArgs struct {
	SequenceID   string `json:"sequence_id,omitempty" jsonschema:"Sequence id. Takes precedence over sequence_name."`
	SequenceName string `json:"sequence_name,omitempty" jsonschema:"Exact sequence name, case insensitive"`
}

// GetSequenceResult is the result of finding a sequence
type GetSequenceResult struct {
	Found         bool               `json:"found"`
	ResolvedBy    string             `json:"resolved_by,omitempty"`
	PagesSearched int                `json:"pages_searched,omitempty"`
	Sequence      *AutomationSummary `json:"sequence,omitempty"`
	Message       string             `json:"message,omitempty"`
}

// CreateSequenceEmailArgs contains parameters for adding an email to a sequence
type CreateSequenceEmailArgs struct {
	SequenceID         string `json:"sequence_id,omitempty" jsonschema:"Sequence id. Takes precedence over sequence_name."`
	SequenceName       string `json:"sequence_name,omitempty" jsonschema:"Exact sequence name, case insensitive"`
	Subject            string `json:"subject" jsonschema:"Email subject line"`
	HTML               string `json:"html" jsonschema:"HTML body"`
	DelayInterval      string `json:"delay_interval,omitempty" jsonschema:"Delay unit: minutes, hours, days or months"`
	DelayIntervalCount int    `json:"delay_interval_count,omitempty" jsonschema:"Number of delay units after the previous email"`
	InboxSnippet       string `json:"inbox_snippet,omitempty" jsonschema:"Preview text shown in the inbox"`
}

// CreateSequenceEmailResult is the result of adding an email to a sequence
type CreateSequenceEmailResult struct {
	Found      bool             `json:"found"`
	SequenceID string           `json:"sequence_id,omitempty"`
	ResolvedBy string           `json:"resolved_by,omitempty"`
	Template   *TemplateSummary `json:"template,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// ListWorkflowsArgs contains parameters for listing workflows
type ListWorkflowsArgs struct {
	Page int `json:"page,omitempty" jsonschema:"Page number, starting at 1 (default 1)"`
}

// ListWorkflowsResult is the result of listing workflows
type ListWorkflowsResult struct {
	Workflows []AutomationSummary `json:"workflows"`
	Page      int                 `json:"page"`
	Count     int                 `json:"count"`
}

// GetWorkflowArgs contains parameters for finding a workflow
type GetWorkflowArgs struct {
	WorkflowID   string `json:"workflow_id,omitempty" jsonschema:"Workflow id. Takes precedence over workflow_name."`
	WorkflowName string `json:"workflow_name,omitempty" jsonschema:"Exact workflow name, case insensitive"`
}

// GetWorkflowResult is the result of finding a workflow
type GetWorkflowResult struct {
	Found         bool               `json:"found"`
	ResolvedBy    string             `json:"resolved_by,omitempty"`
	PagesSearched int                `json:"pages_searched,omitempty"`
	Workflow      *AutomationSummary `json:"workflow,omitempty"`
	Message       string             `json:"message,omitempty"`
}

// =============================================================================
// Templates and validation
// =============================================================================

// GetEmailTemplateArgs contains parameters for fetching an email template
type GetEmailTemplateArgs struct {
	TemplateID string `json:"template_id" jsonschema:"Email template id"`
}

// EmailTemplateResult is the result of fetching or updating an email template
type EmailTemplateResult struct {
	Found    bool             `json:"found"`
	Template *TemplateSummary `json:"template,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// UpdateEmailTemplateArgs contains parameters for editing an email template
type UpdateEmailTemplateArgs struct {
	TemplateID string `json:"template_id" jsonschema:"Email template id"`
	Subject    string `json:"subject,omitempty" jsonschema:"New subject line"`
	HTML       string `json:"html,omitempty" jsonschema:"New HTML body"`
}

// ValidateEmailArgs contains parameters for email validation
type ValidateEmailArgs struct {
	Email     string `json:"email" jsonschema:"Email address to check"`
	Name      string `json:"name,omitempty" jsonschema:"Name given at signup, used for spam heuristics"`
	UserAgent string `json:"user_agent,omitempty" jsonschema:"Browser user agent at signup"`
	IP        string `json:"ip,omitempty" jsonschema:"IP address at signup"`
}

// ValidateEmailResult is the result of email validation
type ValidateEmailResult struct {
	Email string `json:"email"`
	Valid bool   `json:"valid"`
}

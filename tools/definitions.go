package tools

// AllTools contains all tool specifications for the Bento MCP server.
// Tool descriptions follow a structured format for LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// SUBSCRIBER TOOLS
	// ==========================================================================
	{
		Name:     "bento_get_subscriber",
		Method:   "GetSubscriber",
		Title:    "Get Subscriber",
		Category: "subscribers",
		Resource: "subscribers",
		Description: `Look up one subscriber by email address or UUID.

USE WHEN: User asks "is X subscribed", "what tags does X have", "show me the profile for X".

NOT FOR: Creating subscribers (use bento_create_subscriber).

PARAMETERS:
- email: Subscriber email (provide email or uuid)
- uuid: Subscriber UUID (provide email or uuid)

RETURNS: found flag, subscription status, tag ids and custom fields. A missing subscriber returns found=false, not an error.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_create_subscriber",
		Method:   "CreateSubscriber",
		Title:    "Create Subscriber",
		Category: "subscribers",
		Resource: "subscribers",
		Description: `Create a single subscriber. Returns the existing record if the email is already known.

USE WHEN: User says "add X to Bento", "create a subscriber for X".

NOT FOR: Adding many people at once (use bento_import_subscribers).

PARAMETERS:
- email: Email address (required)

RETURNS: The subscriber's id, UUID and status.`,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_import_subscribers",
		Method:   "ImportSubscribers",
		Title:    "Import Subscribers",
		Category: "subscribers",
		Resource: "subscribers",
		Description: `Create or update up to 1000 subscribers in one call, with names, tags and custom fields.

USE WHEN: User has a list of contacts to load, or wants to set fields/tags on many subscribers.

NOT FOR: One-off tag changes (use bento_tag_subscriber).

PARAMETERS:
- subscribers: Array of {email, first_name, last_name, tags, remove_tags, fields} (1 to 1000)

RETURNS: Count of accepted and failed rows.`,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_tag_subscriber",
		Method:   "TagSubscriber",
		Title:    "Tag Subscriber",
		Category: "subscribers",
		Resource: "commands",
		Description: `Add a tag to a subscriber. The tag is created if it does not exist.

USE WHEN: User says "tag X as VIP", "add the beta tag to X".

NOT FOR: Removing tags (use bento_remove_subscriber_tag).

PARAMETERS:
- email: Subscriber email (required)
- tag: Tag name (required)

RETURNS: Whether Bento accepted the command.`,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_remove_subscriber_tag",
		Method:   "RemoveSubscriberTag",
		Title:    "Remove Subscriber Tag",
		Category: "subscribers",
		Resource: "commands",
		Description: `Remove a tag from a subscriber.

USE WHEN: User says "untag X", "take X out of the beta group".

PARAMETERS:
- email: Subscriber email (required)
- tag: Tag name (required)

RETURNS: Whether Bento accepted the command.`,
		Destructive: true,
		Idempotent:  true,
		OpenWorld:   true,
	},
	{
		Name:     "bento_subscribe",
		Method:   "Subscribe",
		Title:    "Subscribe",
		Category: "subscribers",
		Resource: "commands",
		Description: `Resubscribe someone to marketing email.

USE WHEN: User says "resubscribe X", "X wants emails again".

NOT FOR: Creating a brand new subscriber (use bento_create_subscriber).

PARAMETERS:
- email: Subscriber email (required)

RETURNS: Whether Bento accepted the command.`,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_unsubscribe",
		Method:   "Unsubscribe",
		Title:    "Unsubscribe",
		Category: "subscribers",
		Resource: "commands",
		Description: `Unsubscribe someone from all marketing email. They stop receiving broadcasts and automations.

USE WHEN: User says "unsubscribe X", "stop emailing X".

PARAMETERS:
- email: Subscriber email (required)

RETURNS: Whether Bento accepted the command.`,
		Destructive: true,
		Idempotent:  true,
		OpenWorld:   true,
	},
	{
		Name:     "bento_track_event",
		Method:   "TrackEvent",
		Title:    "Track Event",
		Category: "events",
		Resource: "events",
		Description: `Record a custom event for a subscriber. Events can trigger automations.

USE WHEN: User asks to "log a purchase for X", "fire the signed_up event", "trigger the onboarding flow for X".

PARAMETERS:
- email: Subscriber email (required)
- type: Event name, e.g. $purchase (required)
- fields: Subscriber fields to update (optional)
- details: Event payload (optional)

RETURNS: Count of accepted events.`,
		OpenWorld: true,
	},

	// ==========================================================================
	// TAG AND FIELD TOOLS
	// ==========================================================================
	{
		Name:     "bento_list_tags",
		Method:   "ListTags",
		Title:    "List Tags",
		Category: "tags",
		Resource: "tags",
		Description: `List every tag on the account.

USE WHEN: User asks "what tags do we have", or before tagging to check spelling.

RETURNS: Tag ids, names and whether each is discarded.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_create_tag",
		Method:   "CreateTag",
		Title:    "Create Tag",
		Category: "tags",
		Resource: "tags",
		Description: `Create a tag.

USE WHEN: User wants a new tag before any subscriber carries it.

NOT FOR: Tagging a subscriber (use bento_tag_subscriber, which creates missing tags).

PARAMETERS:
- name: Tag name (required)

RETURNS: The created tag.`,
		OpenWorld: true,
	},
	{
		Name:     "bento_list_fields",
		Method:   "ListFields",
		Title:    "List Custom Fields",
		Category: "fields",
		Resource: "fields",
		Description: `List custom subscriber fields.

USE WHEN: User asks "what fields do subscribers have", or before importing data with custom fields.

RETURNS: Field ids, keys and display names.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_create_field",
		Method:   "CreateField",
		Title:    "Create Custom Field",
		Category: "fields",
		Resource: "fields",
		Description: `Create a custom subscriber field.

PARAMETERS:
- key: Field key, letters/digits/underscores starting with a letter (required)

RETURNS: The created field.`,
		OpenWorld: true,
	},

	// ==========================================================================
	// BROADCAST AND STATS TOOLS
	// ==========================================================================
	{
		Name:     "bento_list_broadcasts",
		Method:   "ListBroadcasts",
		Title:    "List Broadcasts",
		Category: "broadcasts",
		Resource: "broadcasts",
		Description: `List broadcasts (one-off campaigns), one page at a time.

USE WHEN: User asks "what campaigns have we sent", "show recent broadcasts".

PARAMETERS:
- page: Page number (default 1)

RETURNS: Broadcast names, subjects, send times and stats.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_create_broadcast",
		Method:   "CreateBroadcast",
		Title:    "Create Broadcast",
		Category: "broadcasts",
		Resource: "broadcasts",
		Description: `Create a draft broadcast. Nothing is sent until it is scheduled in Bento.

USE WHEN: User says "draft a newsletter", "set up a campaign to the VIP tag".

PARAMETERS:
- name, subject, content: Required
- type: plain, html or markdown (default plain)
- from_email, from_name: Sender (optional)
- inclusive_tags, exclusive_tags, segment_id: Audience (optional)
- batch_size_per_hour: Throttle (optional)

RETURNS: Count of accepted broadcasts.`,
		OpenWorld: true,
	},
	{
		Name:     "bento_get_site_stats",
		Method:   "GetSiteStats",
		Title:    "Get Site Stats",
		Category: "stats",
		Resource: "stats",
		Description: `Get account totals: users, subscribers and unsubscribers.

USE WHEN: User asks "how many subscribers do we have", "what's our list size".

RETURNS: user_count, subscriber_count, unsubscriber_count.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// AUTOMATION TOOLS
	// ==========================================================================
	{
		Name:     "bento_list_sequences",
		Method:   "ListSequences",
		Title:    "List Sequences",
		Category: "automation",
		Resource: "sequences",
		Description: `List email sequences (drip campaigns), one page at a time.

USE WHEN: User asks "what sequences do we have", "show page 2 of sequences".

NOT FOR: Finding one sequence by name (use bento_get_sequence, which searches all pages).

PARAMETERS:
- page: Page number (default 1)

RETURNS: Sequence ids, names and email counts. An empty page means there are no more.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_get_sequence",
		Method:   "GetSequence",
		Title:    "Get Sequence",
		Category: "automation",
		Resource: "sequences",
		Description: `Find one sequence by id or by exact name and show its emails.

USE WHEN: User says "show me the Onboarding sequence", "what emails are in sequence X".

PARAMETERS:
- sequence_id: Sequence id (takes precedence)
- sequence_name: Exact name, case-insensitive, surrounding spaces ignored. Partial names do not match.

RETURNS: found flag, how it was resolved (id or name), and the sequence with its emails.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_create_sequence_email",
		Method:   "CreateSequenceEmail",
		Title:    "Add Email to Sequence",
		Category: "automation",
		Resource: "sequences",
		Description: `Add an email to a sequence identified by id or exact name.

USE WHEN: User says "add a day-3 follow-up to the Trial sequence".

PARAMETERS:
- sequence_id or sequence_name: Target sequence (one required)
- subject, html: Email content (required)
- delay_interval: minutes, hours, days or months (optional)
- delay_interval_count: Number of units (optional)
- inbox_snippet: Preview text (optional)

RETURNS: The created template, or found=false if no sequence matched.`,
		OpenWorld: true,
	},
	{
		Name:     "bento_list_workflows",
		Method:   "ListWorkflows",
		Title:    "List Workflows",
		Category: "automation",
		Resource: "workflows",
		Description: `List automation workflows, one page at a time.

USE WHEN: User asks "what automations are running", "list our workflows".

NOT FOR: Finding one workflow by name (use bento_get_workflow).

PARAMETERS:
- page: Page number (default 1)

RETURNS: Workflow ids, names and email counts.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_get_workflow",
		Method:   "GetWorkflow",
		Title:    "Get Workflow",
		Category: "automation",
		Resource: "workflows",
		Description: `Find one workflow by id or by exact name and show its emails.

USE WHEN: User says "show the Cart Abandonment workflow".

PARAMETERS:
- workflow_id: Workflow id (takes precedence)
- workflow_name: Exact name, case-insensitive, surrounding spaces ignored

RETURNS: found flag, how it was resolved (id or name), and the workflow with its emails.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// TEMPLATE AND VALIDATION TOOLS
	// ==========================================================================
	{
		Name:     "bento_get_email_template",
		Method:   "GetEmailTemplate",
		Title:    "Get Email Template",
		Category: "templates",
		Resource: "email_templates",
		Description: `Fetch an email template's subject and HTML.

USE WHEN: User wants to read or review an email from a sequence or workflow (ids come from bento_get_sequence / bento_get_workflow).

PARAMETERS:
- template_id: Template id (required)

RETURNS: Template name, subject, HTML and stats. found=false with a message when no template has that id.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "bento_update_email_template",
		Method:   "UpdateEmailTemplate",
		Title:    "Update Email Template",
		Category: "templates",
		Resource: "email_templates",
		Description: `Change an email template's subject and/or HTML. Replaces the previous content.

USE WHEN: User says "fix the typo in the welcome email", "change the subject of template 12".

PARAMETERS:
- template_id: Template id (required)
- subject: New subject (optional)
- html: New HTML (optional; at least one of subject/html)

RETURNS: The updated template, or found=false when no template has that id.`,
		Destructive: true,
		Idempotent:  true,
		OpenWorld:   true,
	},
	{
		Name:     "bento_validate_email",
		Method:   "ValidateEmail",
		Title:    "Validate Email",
		Category: "validation",
		Resource: "validation",
		Description: `Ask Bento whether an email address looks real and deliverable.

USE WHEN: User asks "is this email valid", "check this signup for spam".

PARAMETERS:
- email: Address to check (required)
- name, user_agent, ip: Signup context that improves the check (optional)

RETURNS: valid flag.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
}

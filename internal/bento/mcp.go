package bento

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	apierrors "github.com/olgasafonova/bento-mcp-server/internal/errors"
	"github.com/olgasafonova/bento-mcp-server/internal/resolve"
)

// MCP Tool wrapper methods
// These methods validate arguments, call the client and shape the response.

// GetSubscriberMCP is the MCP wrapper for GetSubscriber
func (c *Client) GetSubscriberMCP(ctx context.Context, args GetSubscriberArgs) (GetSubscriberResult, error) {
	email := strings.TrimSpace(args.Email)
	uuid := strings.TrimSpace(args.UUID)
	switch {
	case email == "" && uuid == "":
		return GetSubscriberResult{}, apierrors.NewValidationError("email", "", "provide email or uuid")
	case email != "" && uuid != "":
		return GetSubscriberResult{}, apierrors.NewValidationError("uuid", "", "provide only one of email or uuid")
	case email != "":
		if err := ValidateEmail("email", email); err != nil {
			return GetSubscriberResult{}, err
		}
	}

	sub, err := c.GetSubscriber(ctx, email, uuid)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return GetSubscriberResult{Found: false, Message: err.Error()}, nil
		}
		return GetSubscriberResult{}, err
	}

	summary := summarizeSubscriber(sub)
	return GetSubscriberResult{Found: true, Subscriber: &summary}, nil
}

// CreateSubscriberMCP is the MCP wrapper for CreateSubscriber
func (c *Client) CreateSubscriberMCP(ctx context.Context, args CreateSubscriberArgs) (CreateSubscriberResult, error) {
	email := strings.TrimSpace(args.Email)
	if err := ValidateEmail("email", email); err != nil {
		return CreateSubscriberResult{}, err
	}

	sub, err := c.CreateSubscriber(ctx, email)
	if err != nil {
		return CreateSubscriberResult{}, err
	}
	return CreateSubscriberResult{Subscriber: summarizeSubscriber(sub)}, nil
}

// ImportSubscribersMCP is the MCP wrapper for ImportSubscribers
func (c *Client) ImportSubscribersMCP(ctx context.Context, args ImportSubscribersArgs) (BatchResult, error) {
	if err := ValidateImportBatch(args.Subscribers); err != nil {
		return BatchResult{}, err
	}

	resp, err := c.ImportSubscribers(ctx, args.Subscribers)
	if err != nil {
		return BatchResult{}, err
	}
	return batchResult(resp, "subscribers"), nil
}

// TagSubscriberMCP adds a tag to a subscriber
func (c *Client) TagSubscriberMCP(ctx context.Context, args SubscriberTagArgs) (CommandResult, error) {
	return c.tagCommand(ctx, CommandAddTag, args)
}

// RemoveSubscriberTagMCP removes a tag from a subscriber
func (c *Client) RemoveSubscriberTagMCP(ctx context.Context, args SubscriberTagArgs) (CommandResult, error) {
	return c.tagCommand(ctx, CommandRemoveTag, args)
}

// SubscribeMCP resubscribes a subscriber
func (c *Client) SubscribeMCP(ctx context.Context, args SubscriptionArgs) (CommandResult, error) {
	return c.subscriptionCommand(ctx, CommandSubscribe, args)
}

// UnsubscribeMCP unsubscribes a subscriber from all marketing email
func (c *Client) UnsubscribeMCP(ctx context.Context, args SubscriptionArgs) (CommandResult, error) {
	return c.subscriptionCommand(ctx, CommandUnsubscribe, args)
}

func (c *Client) tagCommand(ctx context.Context, name string, args SubscriberTagArgs) (CommandResult, error) {
	email := strings.TrimSpace(args.Email)
	if err := ValidateEmail("email", email); err != nil {
		return CommandResult{}, err
	}
	if err := ValidateName("tag", args.Tag); err != nil {
		return CommandResult{}, err
	}
	return c.runCommand(ctx, name, email, strings.TrimSpace(args.Tag))
}

func (c *Client) subscriptionCommand(ctx context.Context, name string, args SubscriptionArgs) (CommandResult, error) {
	email := strings.TrimSpace(args.Email)
	if err := ValidateEmail("email", email); err != nil {
		return CommandResult{}, err
	}
	return c.runCommand(ctx, name, email, "")
}

func (c *Client) runCommand(ctx context.Context, name, email, query string) (CommandResult, error) {
	resp, err := c.RunCommand(ctx, name, email, query)
	if err != nil {
		return CommandResult{}, err
	}
	return CommandResult{
		Command: name,
		Email:   email,
		Success: resp.Failed == 0,
		Failed:  resp.Failed,
	}, nil
}

// TrackEventMCP is the MCP wrapper for TrackEvents
func (c *Client) TrackEventMCP(ctx context.Context, args TrackEventArgs) (BatchResult, error) {
	email := strings.TrimSpace(args.Email)
	if err := ValidateEmail("email", email); err != nil {
		return BatchResult{}, err
	}
	if err := ValidateName("type", args.Type); err != nil {
		return BatchResult{}, err
	}

	resp, err := c.TrackEvents(ctx, []Event{{
		Type:    strings.TrimSpace(args.Type),
		Email:   email,
		Fields:  args.Fields,
		Details: args.Details,
	}})
	if err != nil {
		return BatchResult{}, err
	}
	return batchResult(resp, "events"), nil
}

// ListTagsMCP is the MCP wrapper for ListTags
func (c *Client) ListTagsMCP(ctx context.Context, _ ListTagsArgs) (ListTagsResult, error) {
	tags, err := c.ListTags(ctx)
	if err != nil {
		return ListTagsResult{}, err
	}

	summaries := make([]TagSummary, 0, len(tags))
	for i := range tags {
		summaries = append(summaries, summarizeTag(&tags[i]))
	}
	return ListTagsResult{Tags: summaries, Count: len(summaries)}, nil
}

// CreateTagMCP is the MCP wrapper for CreateTag
func (c *Client) CreateTagMCP(ctx context.Context, args CreateTagArgs) (CreateTagResult, error) {
	if err := ValidateName("name", args.Name); err != nil {
		return CreateTagResult{}, err
	}

	tag, err := c.CreateTag(ctx, strings.TrimSpace(args.Name))
	if err != nil {
		return CreateTagResult{}, err
	}
	return CreateTagResult{Tag: summarizeTag(tag)}, nil
}

// ListFieldsMCP is the MCP wrapper for ListFields
func (c *Client) ListFieldsMCP(ctx context.Context, _ ListFieldsArgs) (ListFieldsResult, error) {
	fields, err := c.ListFields(ctx)
	if err != nil {
		return ListFieldsResult{}, err
	}

	summaries := make([]FieldSummary, 0, len(fields))
	for i := range fields {
		summaries = append(summaries, summarizeField(&fields[i]))
	}
	return ListFieldsResult{Fields: summaries, Count: len(summaries)}, nil
}

// CreateFieldMCP is the MCP wrapper for CreateField
func (c *Client) CreateFieldMCP(ctx context.Context, args CreateFieldArgs) (CreateFieldResult, error) {
	if err := ValidateFieldKey(args.Key); err != nil {
		return CreateFieldResult{}, err
	}

	field, err := c.CreateField(ctx, args.Key)
	if err != nil {
		return CreateFieldResult{}, err
	}
	return CreateFieldResult{Field: summarizeField(field)}, nil
}

// ListBroadcastsMCP is the MCP wrapper for ListBroadcasts
func (c *Client) ListBroadcastsMCP(ctx context.Context, args ListBroadcastsArgs) (ListBroadcastsResult, error) {
	if err := ValidatePage(args.Page); err != nil {
		return ListBroadcastsResult{}, err
	}
	page := max(args.Page, 1)

	broadcasts, err := c.ListBroadcasts(ctx, page)
	if err != nil {
		return ListBroadcastsResult{}, err
	}

	summaries := make([]BroadcastSummary, 0, len(broadcasts))
	for _, b := range broadcasts {
		summaries = append(summaries, BroadcastSummary{
			ID:        b.ID,
			Name:      b.Attributes.Name,
			Subject:   b.Attributes.Subject,
			Type:      b.Attributes.Type,
			CreatedAt: b.Attributes.CreatedAt,
			SendAt:    b.Attributes.SendAt,
			Stats:     b.Attributes.Stats,
		})
	}
	return ListBroadcastsResult{Broadcasts: summaries, Page: page, Count: len(summaries)}, nil
}

// CreateBroadcastMCP is the MCP wrapper for CreateBroadcasts
func (c *Client) CreateBroadcastMCP(ctx context.Context, args CreateBroadcastArgs) (BatchResult, error) {
	if err := ValidateName("name", args.Name); err != nil {
		return BatchResult{}, err
	}
	if err := ValidateName("subject", args.Subject); err != nil {
		return BatchResult{}, err
	}
	if strings.TrimSpace(args.Content) == "" {
		return BatchResult{}, apierrors.NewValidationError("content", "", "content is required")
	}
	if err := ValidateBroadcastType(args.Type); err != nil {
		return BatchResult{}, err
	}
	if args.BatchSizePerHour < 0 {
		return BatchResult{}, apierrors.NewValidationError("batch_size_per_hour", strconv.Itoa(args.BatchSizePerHour), "cannot be negative")
	}

	b := NewBroadcast{
		Name:             args.Name,
		Subject:          args.Subject,
		Content:          args.Content,
		Type:             args.Type,
		InclusiveTags:    args.InclusiveTags,
		ExclusiveTags:    args.ExclusiveTags,
		SegmentID:        args.SegmentID,
		BatchSizePerHour: args.BatchSizePerHour,
	}
	if b.Type == "" {
		b.Type = BroadcastPlain
	}
	if args.FromEmail != "" {
		if err := ValidateEmail("from_email", args.FromEmail); err != nil {
			return BatchResult{}, err
		}
		b.From = &Sender{Email: args.FromEmail, Name: args.FromName}
	}

	resp, err := c.CreateBroadcasts(ctx, []NewBroadcast{b})
	if err != nil {
		return BatchResult{}, err
	}
	return batchResult(resp, "broadcasts"), nil
}

// GetSiteStatsMCP is the MCP wrapper for SiteStats
func (c *Client) GetSiteStatsMCP(ctx context.Context, _ GetSiteStatsArgs) (GetSiteStatsResult, error) {
	stats, err := c.SiteStats(ctx)
	if err != nil {
		return GetSiteStatsResult{}, err
	}
	return GetSiteStatsResult{Stats: *stats}, nil
}

// ListSequencesMCP is the MCP wrapper for ListSequences
func (c *Client) ListSequencesMCP(ctx context.Context, args ListSequencesArgs) (ListSequencesResult, error) {
	if err := ValidatePage(args.Page); err != nil {
		return ListSequencesResult{}, err
	}
	page := max(args.Page, 1)

	seqs, err := c.ListSequences(ctx, page)
	if err != nil {
		return ListSequencesResult{}, err
	}

	summaries := make([]AutomationSummary, 0, len(seqs))
	for _, s := range seqs {
		summaries = append(summaries, summarizeAutomation(s.ID, s.Attributes, false))
	}
	return ListSequencesResult{Sequences: summaries, Page: page, Count: len(summaries)}, nil
}

// GetSequenceMCP finds a sequence by id or exact name
func (c *Client) GetSequenceMCP(ctx context.Context, args GetSequenceArgs) (GetSequenceResult, error) {
	if err := ValidateIdentifier("sequence_id", "sequence_name", args.SequenceID, args.SequenceName); err != nil {
		return GetSequenceResult{}, err
	}

	seq, res, err := c.GetSequence(ctx, args.SequenceID, args.SequenceName)
	if err != nil {
		return GetSequenceResult{}, err
	}
	if seq == nil {
		return GetSequenceResult{
			Found:         false,
			PagesSearched: res.PagesFetched,
			Message:       notFoundMessage("sequence", args.SequenceID, args.SequenceName),
		}, nil
	}

	summary := summarizeAutomation(seq.ID, seq.Attributes, true)
	return GetSequenceResult{
		Found:         true,
		ResolvedBy:    string(res.Source),
		PagesSearched: res.PagesFetched,
		Sequence:      &summary,
	}, nil
}

// CreateSequenceEmailMCP adds an email to a sequence found by id or exact name
func (c *Client) CreateSequenceEmailMCP(ctx context.Context, args CreateSequenceEmailArgs) (CreateSequenceEmailResult, error) {
	if err := ValidateIdentifier("sequence_id", "sequence_name", args.SequenceID, args.SequenceName); err != nil {
		return CreateSequenceEmailResult{}, err
	}
	if err := ValidateName("subject", args.Subject); err != nil {
		return CreateSequenceEmailResult{}, err
	}
	if strings.TrimSpace(args.HTML) == "" {
		return CreateSequenceEmailResult{}, apierrors.NewValidationError("html", "", "html body is required")
	}
	if err := ValidateDelayInterval(args.DelayInterval, args.DelayIntervalCount); err != nil {
		return CreateSequenceEmailResult{}, err
	}

	res, err := c.ResolveSequenceID(ctx, args.SequenceID, args.SequenceName)
	if err != nil {
		return CreateSequenceEmailResult{}, err
	}
	if !res.Found {
		return CreateSequenceEmailResult{
			Found:   false,
			Message: notFoundMessage("sequence", args.SequenceID, args.SequenceName),
		}, nil
	}

	tmpl, err := c.CreateSequenceEmail(ctx, res.ID, SequenceEmail{
		Subject:            args.Subject,
		HTML:               args.HTML,
		DelayInterval:      args.DelayInterval,
		DelayIntervalCount: args.DelayIntervalCount,
		InboxSnippet:       args.InboxSnippet,
	})
	if err != nil {
		return CreateSequenceEmailResult{}, err
	}

	summary := summarizeTemplate(tmpl, false)
	return CreateSequenceEmailResult{
		Found:      true,
		SequenceID: res.ID,
		ResolvedBy: string(res.Source),
		Template:   &summary,
	}, nil
}

// ListWorkflowsMCP is the MCP wrapper for ListWorkflows
func (c *Client) ListWorkflowsMCP(ctx context.Context, args ListWorkflowsArgs) (ListWorkflowsResult, error) {
	if err := ValidatePage(args.Page); err != nil {
		return ListWorkflowsResult{}, err
	}
	page := max(args.Page, 1)

	flows, err := c.ListWorkflows(ctx, page)
	if err != nil {
		return ListWorkflowsResult{}, err
	}

	summaries := make([]AutomationSummary, 0, len(flows))
	for _, w := range flows {
		summaries = append(summaries, summarizeAutomation(w.ID, w.Attributes, false))
	}
	return ListWorkflowsResult{Workflows: summaries, Page: page, Count: len(summaries)}, nil
}

// GetWorkflowMCP finds a workflow by id or exact name
func (c *Client) GetWorkflowMCP(ctx context.Context, args GetWorkflowArgs) (GetWorkflowResult, error) {
	if err := ValidateIdentifier("workflow_id", "workflow_name", args.WorkflowID, args.WorkflowName); err != nil {
		return GetWorkflowResult{}, err
	}

	flow, res, err := c.GetWorkflow(ctx, args.WorkflowID, args.WorkflowName)
	if err != nil {
		return GetWorkflowResult{}, err
	}
	if flow == nil {
		return GetWorkflowResult{
			Found:         false,
			PagesSearched: res.PagesFetched,
			Message:       notFoundMessage("workflow", args.WorkflowID, args.WorkflowName),
		}, nil
	}

	summary := summarizeAutomation(flow.ID, flow.Attributes, true)
	return GetWorkflowResult{
		Found:         true,
		ResolvedBy:    string(res.Source),
		PagesSearched: res.PagesFetched,
		Workflow:      &summary,
	}, nil
}

// GetEmailTemplateMCP is the MCP wrapper for GetEmailTemplate
func (c *Client) GetEmailTemplateMCP(ctx context.Context, args GetEmailTemplateArgs) (EmailTemplateResult, error) {
	id := strings.TrimSpace(args.TemplateID)
	if err := ValidateTemplateID(id); err != nil {
		return EmailTemplateResult{}, err
	}

	tmpl, err := c.GetEmailTemplate(ctx, id)
	return templateResult(tmpl, err)
}

// UpdateEmailTemplateMCP is the MCP wrapper for UpdateEmailTemplate
func (c *Client) UpdateEmailTemplateMCP(ctx context.Context, args UpdateEmailTemplateArgs) (EmailTemplateResult, error) {
	id := strings.TrimSpace(args.TemplateID)
	if err := ValidateTemplateID(id); err != nil {
		return EmailTemplateResult{}, err
	}
	if strings.TrimSpace(args.Subject) == "" && strings.TrimSpace(args.HTML) == "" {
		return EmailTemplateResult{}, apierrors.NewValidationError("subject", "", "provide subject or html to update")
	}
	if len(args.Subject) > MaxNameLength {
		return EmailTemplateResult{}, apierrors.NewValidationError("subject", "", fmt.Sprintf("cannot exceed %d characters", MaxNameLength))
	}

	tmpl, err := c.UpdateEmailTemplate(ctx, id, TemplateUpdate{Subject: args.Subject, HTML: args.HTML})
	return templateResult(tmpl, err)
}

// templateResult maps a missing template to found:false
func templateResult(tmpl *EmailTemplate, err error) (EmailTemplateResult, error) {
	if err != nil {
		if apierrors.IsNotFound(err) {
			return EmailTemplateResult{Found: false, Message: err.Error()}, nil
		}
		return EmailTemplateResult{}, err
	}
	summary := summarizeTemplate(tmpl, true)
	return EmailTemplateResult{Found: true, Template: &summary}, nil
}

// ValidateEmailMCP is the MCP wrapper for ValidateEmail
func (c *Client) ValidateEmailMCP(ctx context.Context, args ValidateEmailArgs) (ValidateEmailResult, error) {
	email := strings.TrimSpace(args.Email)
	if email == "" {
		return ValidateEmailResult{}, apierrors.NewValidationError("email", "", "email is required")
	}

	valid, err := c.ValidateEmail(ctx, ValidationRequest{
		Email:     email,
		Name:      args.Name,
		UserAgent: args.UserAgent,
		IP:        args.IP,
	})
	if err != nil {
		return ValidateEmailResult{}, err
	}
	return ValidateEmailResult{Email: email, Valid: valid}, nil
}

// =============================================================================
// Summaries
// =============================================================================

func summarizeSubscriber(s *Subscriber) SubscriberSummary {
	summary := SubscriberSummary{
		ID:         s.ID,
		UUID:       s.Attributes.UUID,
		Email:      s.Attributes.Email,
		Subscribed: s.Attributes.UnsubscribedAt == nil,
		TagIDs:     s.Attributes.CachedTagIDs,
		Fields:     s.Attributes.Fields,
	}
	if s.Attributes.UnsubscribedAt != nil {
		summary.UnsubscribedAt = *s.Attributes.UnsubscribedAt
	}
	return summary
}

func summarizeTag(t *Tag) TagSummary {
	return TagSummary{
		ID:        t.ID,
		Name:      t.Attributes.Name,
		CreatedAt: t.Attributes.CreatedAt,
		Discarded: t.Attributes.DiscardedAt != nil,
	}
}

func summarizeField(f *Field) FieldSummary {
	return FieldSummary{
		ID:        f.ID,
		Key:       f.Attributes.Key,
		Name:      f.Attributes.Name,
		CreatedAt: f.Attributes.CreatedAt,
	}
}

func summarizeAutomation(id string, attrs AutomationAttributes, withEmails bool) AutomationSummary {
	summary := AutomationSummary{
		ID:         id,
		Name:       attrs.Name,
		CreatedAt:  attrs.CreatedAt,
		EmailCount: len(attrs.EmailTemplates),
	}
	if withEmails {
		for _, t := range attrs.EmailTemplates {
			summary.Emails = append(summary.Emails, TemplateSummary{
				ID:      strconv.Itoa(t.ID),
				Subject: t.Subject,
				Stats:   t.Stats,
			})
		}
	}
	return summary
}

func summarizeTemplate(t *EmailTemplate, withHTML bool) TemplateSummary {
	summary := TemplateSummary{
		ID:      t.ID,
		Name:    t.Attributes.Name,
		Subject: t.Attributes.Subject,
		Stats:   t.Attributes.Stats,
	}
	if withHTML {
		summary.HTML = t.Attributes.HTML
	}
	return summary
}

func batchResult(resp *BatchResponse, noun string) BatchResult {
	return BatchResult{
		Results: resp.Results,
		Failed:  resp.Failed,
		Message: fmt.Sprintf("%d %s accepted, %d failed", resp.Results, noun, resp.Failed),
	}
}

// notFoundMessage names what was searched for. An id that is not in the
// listing is reported by id; otherwise by the searched name.
func notFoundMessage(resource, id, name string) string {
	if id = strings.TrimSpace(id); id != "" {
		return fmt.Sprintf("no %s with id %q", resource, id)
	}
	return fmt.Sprintf("no %s named %q (exact, case-insensitive match; searched up to %d pages)",
		resource, strings.TrimSpace(name), resolve.MaxPages)
}

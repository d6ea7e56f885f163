package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/harishmarimuthu13022003/finance-agent/internal/config"
	"github.com/harishmarimuthu13022003/finance-agent/internal/emails"
	"github.com/harishmarimuthu13022003/finance-agent/internal/replies"
)

// Label applied to fetched messages so they are not returned again.
const processedQuery = "in:inbox is:unread -in:draft"

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
}

// Gmail implements Mailbox over the Gmail API.
type Gmail struct {
	srv    *gmail.Service
	userID string
	logger *slog.Logger
}

// NewGmail builds a Gmail mailbox from stored OAuth credentials. The token
// must already exist; servers never run the interactive authorization flow.
func NewGmail(ctx context.Context, cfg config.MailboxConfig, logger *slog.Logger) (*Gmail, error) {
	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read credentials: %v", ErrNotAuthorized, err)
	}

	oauthConfig, err := google.ConfigFromJSON(b, gmail.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse credentials: %v", ErrNotAuthorized, err)
	}

	token, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read token %s: %v", ErrNotAuthorized, cfg.TokenFile, err)
	}

	httpClient := oauthConfig.Client(ctx, token)
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &Gmail{
		srv:    srv,
		userID: cfg.UserID,
		logger: logger.With("system", "mailbox"),
	}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

// FetchNew lists unread inbox messages, downloads their bodies and
// attachments, and marks them read so a later fetch skips them.
func (g *Gmail) FetchNew(ctx context.Context, limit int64) ([]emails.RawEmail, error) {
	list, err := g.srv.Users.Messages.List(g.userID).
		MaxResults(limit).
		Q(processedQuery).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	fetched := make([]emails.RawEmail, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := g.srv.Users.Messages.Get(g.userID, ref.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			g.logger.Warn("fetch message failed", "message_id", ref.Id, "error", err)
			continue
		}

		raw, err := g.toRawEmail(ctx, msg)
		if err != nil {
			g.logger.Warn("decode message failed", "message_id", ref.Id, "error", err)
			continue
		}
		fetched = append(fetched, *raw)

		_, err = g.srv.Users.Messages.Modify(g.userID, ref.Id, &gmail.ModifyMessageRequest{
			RemoveLabelIds: []string{"UNREAD"},
		}).Context(ctx).Do()
		if err != nil {
			g.logger.Warn("mark read failed", "message_id", ref.Id, "error", err)
		}
	}

	g.logger.Info("mailbox fetch complete", "fetched", len(fetched))
	return fetched, nil
}

// SendReply threads a draft onto the original message and sends it.
func (g *Gmail) SendReply(ctx context.Context, emailID string, draft replies.Draft) error {
	original, err := g.srv.Users.Messages.Get(g.userID, emailID).
		Format("metadata").
		MetadataHeaders("From", "Message-ID").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMessageGone, emailID, err)
	}

	var to, messageID string
	for _, h := range original.Payload.Headers {
		switch h.Name {
		case "From":
			to = h.Value
		case "Message-ID":
			messageID = h.Value
		}
	}
	if to == "" {
		return fmt.Errorf("%w: %s: no sender header", ErrMessageGone, emailID)
	}

	var mime strings.Builder
	fmt.Fprintf(&mime, "To: %s\r\n", to)
	fmt.Fprintf(&mime, "Subject: %s\r\n", draft.Subject)
	if messageID != "" {
		fmt.Fprintf(&mime, "In-Reply-To: %s\r\n", messageID)
		fmt.Fprintf(&mime, "References: %s\r\n", messageID)
	}
	mime.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	mime.WriteString(draft.Body)

	_, err = g.srv.Users.Messages.Send(g.userID, &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(mime.String())),
		ThreadId: original.ThreadId,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}

	g.logger.Info("reply sent", "email_id", emailID, "to", to)
	return nil
}

func (g *Gmail) toRawEmail(ctx context.Context, msg *gmail.Message) (*emails.RawEmail, error) {
	raw := &emails.RawEmail{
		ID:         msg.Id,
		ReceivedAt: time.UnixMilli(msg.InternalDate).UTC(),
	}

	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			raw.Sender = h.Value
		case "Subject":
			raw.Subject = h.Value
		case "Date":
			if t, ok := parseDate(h.Value); ok {
				raw.ReceivedAt = t.UTC()
			}
		}
	}

	raw.Body = plainTextBody(msg.Payload)

	atts, err := g.collectAttachments(ctx, msg.Id, msg.Payload)
	if err != nil {
		return nil, err
	}
	raw.Attachments = atts

	return raw, nil
}

func parseDate(value string) (time.Time, bool) {
	// strip trailing comments like "(UTC)" that some senders append
	if openParen := strings.LastIndex(value, " ("); openParen != -1 {
		if closeParen := strings.LastIndex(value, ")"); closeParen > openParen {
			value = strings.TrimSpace(value[:openParen])
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func plainTextBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.MimeType == "text/plain" && payload.Body != nil && payload.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			return string(data)
		}
	}
	for _, part := range payload.Parts {
		mt := strings.ToLower(part.MimeType)
		if strings.HasPrefix(mt, "text/") || strings.HasPrefix(mt, "multipart/") {
			if body := plainTextBody(part); body != "" {
				return body
			}
		}
	}
	return ""
}

func (g *Gmail) collectAttachments(ctx context.Context, messageID string, payload *gmail.MessagePart) ([]emails.Attachment, error) {
	if payload == nil {
		return nil, nil
	}

	var atts []emails.Attachment
	for _, part := range payload.Parts {
		if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
			body, err := g.srv.Users.Messages.Attachments.Get(g.userID, messageID, part.Body.AttachmentId).
				Context(ctx).
				Do()
			if err != nil {
				return nil, fmt.Errorf("fetch attachment %s: %w", part.Filename, err)
			}

			data, err := base64.URLEncoding.DecodeString(body.Data)
			if err != nil {
				return nil, fmt.Errorf("decode attachment %s: %w", part.Filename, err)
			}

			atts = append(atts, emails.Attachment{
				Filename: part.Filename,
				MimeType: part.MimeType,
				Data:     data,
			})
			continue
		}

		nested, err := g.collectAttachments(ctx, messageID, part)
		if err != nil {
			return nil, err
		}
		atts = append(atts, nested...)
	}

	return atts, nil
}

package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/config"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/ports"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/utils"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/whitelist"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"
)

// Header values written by the filter
const (
	StatusSpam        = "Yes"
	StatusHam         = "No"
	StatusWhitelisted = "No, whitelisted"
	StatusError       = "Unknown"
)

// PostfixFilter implements a Postfix content filter: mail arrives over SMTP,
// is classified, tagged with headers and handed back to Postfix.
type PostfixFilter struct {
	classifier    ports.Classifier
	history       ports.HistoryRecorder
	whitelist     *whitelist.Checker
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	cfg           config.SMTPConfig
	server        *smtp.Server

	// deliver hands the rewritten message back to Postfix
	deliver func(sender string, recipients []string, data []byte) error
}

// NewPostfixFilter creates a new Postfix content filter. history may be nil.
func NewPostfixFilter(
	classifier ports.Classifier,
	history ports.HistoryRecorder,
	checker *whitelist.Checker,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	cfg config.SMTPConfig,
) *PostfixFilter {
	// If subject prefix is not set but modify subject is enabled, use default prefix
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = "[**SPAM**] "
	}

	f := &PostfixFilter{
		classifier:    classifier,
		history:       history,
		whitelist:     checker,
		textProcessor: textProcessor,
		logger:        logger,
		cfg:           cfg,
	}
	f.deliver = f.sendToPostfix
	return f
}

// Start starts listening for mail
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}

	f.logger.Info("Postfix filter starting",
		zap.String("address", f.cfg.ListenAddress),
		zap.Bool("block_spam", f.cfg.BlockSpam),
		zap.Bool("postfix_enabled", f.cfg.PostfixEnabled))

	go func() {
		if err := f.server.Serve(listener); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the filter
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// classificationText is the text the classifier sees for an email.
func (f *PostfixFilter) classificationText(email *core.Email) string {
	text := email.Subject
	if email.Body != "" {
		text += "\n" + email.Body
	}
	return f.textProcessor.PrepareMessage(text, f.cfg.MaxBodySize)
}

// ProcessEmail classifies an email. Whitelisted senders return a nil result.
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.ClassificationResult, error) {
	if f.whitelist != nil && f.whitelist.IsWhitelisted(email.From) {
		f.logger.Info("Skipping spam check for whitelisted domain",
			zap.String("sender", email.From),
			zap.String("action", "whitelist_bypass"))
		return nil, nil
	}

	text := f.classificationText(email)
	result, err := f.classifier.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	if f.cfg.RecordHistory && f.history != nil {
		source := f.history.Record(ctx, text, result.Label)
		f.logger.Debug("Recorded email prediction", zap.String("history_source", string(source)))
	}

	return result, nil
}

// sendToPostfix sends the processed email back to Postfix on the configured port
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.cfg.PostfixAddress, fmt.Sprint(f.cfg.PostfixPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// the message was already accepted
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// tagHeaders returns the headers to prepend for a result.
func (f *PostfixFilter) tagHeaders(result *core.ClassificationResult, whitelisted bool, classifyErr error) []string {
	var headers []string
	add := func(name, value string) {
		if name != "" {
			headers = append(headers, name+": "+value)
		}
	}

	switch {
	case classifyErr != nil:
		add(f.cfg.StatusHeader, StatusError)
		add("X-Spam-Classification-Error", strings.ReplaceAll(classifyErr.Error(), "\n", " "))
	case whitelisted:
		add(f.cfg.StatusHeader, StatusWhitelisted)
		add(f.cfg.LabelHeader, core.LabelNotSpam)
	default:
		status := StatusHam
		if result.IsSpam {
			status = StatusSpam
		}
		add(f.cfg.StatusHeader, status)
		add(f.cfg.LabelHeader, result.Label)
		add(f.cfg.ProcessingIDHeader, result.ProcessingID)
	}
	return headers
}

// prefixedSubject returns the new Subject header value, or "" when the
// subject stays as it is.
func (f *PostfixFilter) prefixedSubject(original string) string {
	decoded := decodeHeader(original)
	if strings.HasPrefix(decoded, f.cfg.SubjectPrefix) {
		return ""
	}
	subject := f.cfg.SubjectPrefix + decoded
	for _, r := range subject {
		if r > 0x7f {
			return mime.QEncoding.Encode("utf-8", subject)
		}
	}
	return subject
}

// rewriteMessage prepends headers, replaces the Subject when newSubject is
// set and drops any incoming copies of the filter's own headers. The header
// order and the body are kept byte for byte.
func (f *PostfixFilter) rewriteMessage(raw []byte, headers []string, newSubject string) []byte {
	headerBlock, body, sep := splitMessage(raw)

	own := map[string]bool{"x-spam-classification-error": true}
	for _, name := range []string{f.cfg.StatusHeader, f.cfg.LabelHeader, f.cfg.ProcessingIDHeader} {
		if name != "" {
			own[strings.ToLower(name)] = true
		}
	}

	var out bytes.Buffer
	for _, h := range headers {
		out.WriteString(h)
		out.WriteString("\r\n")
	}

	subjectWritten := false
	skipping := false
	for _, line := range splitLines(headerBlock) {
		folded := len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
		if folded {
			if !skipping {
				out.WriteString(line)
			}
			continue
		}

		name := strings.ToLower(strings.TrimSpace(line[:max(strings.IndexByte(line, ':'), 0)]))
		skipping = own[name]
		if name == "subject" && newSubject != "" {
			skipping = true
			if !subjectWritten {
				out.WriteString("Subject: " + newSubject + "\r\n")
				subjectWritten = true
			}
		}
		if !skipping {
			out.WriteString(line)
		}
	}

	out.WriteString(sep)
	out.Write(body)
	return out.Bytes()
}

// splitMessage separates the header block (with its line endings) from the
// body, returning the blank-line separator used.
func splitMessage(raw []byte) (string, []byte, string) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return string(raw[:i+2]), raw[i+4:], "\r\n"
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return string(raw[:i+1]), raw[i+2:], "\n"
	}
	return string(raw), nil, "\r\n"
}

// splitLines splits s after each newline, keeping the terminators.
func splitLines(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lines = append(lines, s+"\r\n")
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies, tags and forwards one message
func (s *smtpSession) Data(r io.Reader) error {
	f := s.filter

	rawData, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		f.logger.Error("Failed to parse email message", zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		// classify on the subject alone rather than drop the mail
		f.logger.Warn("Failed to extract text content", zap.Error(err))
	}

	email := &core.Email{
		From:    s.sender,
		To:      s.recipients,
		Subject: decodeHeader(msg.Header.Get("Subject")),
		Body:    body,
		Headers: msg.Header,
	}
	senderDomain := whitelist.Domain(email.From)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	whitelisted := f.whitelist != nil && f.whitelist.IsWhitelisted(email.From)
	result, classifyErr := f.ProcessEmail(ctx, email)
	if classifyErr != nil {
		f.logger.Error("Failed to classify email",
			zap.Error(classifyErr),
			zap.String("sender", email.From),
			zap.String("sender_domain", senderDomain))
	}

	isSpam := classifyErr == nil && result != nil && result.IsSpam
	if isSpam && f.cfg.BlockSpam {
		f.logger.Info("Rejecting spam email",
			zap.String("from", email.From),
			zap.String("sender_domain", senderDomain),
			zap.String("processing_id", result.ProcessingID))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Rejected as spam",
		}
	}

	newSubject := ""
	if isSpam && f.cfg.ModifySubject && f.cfg.SubjectPrefix != "" {
		newSubject = f.prefixedSubject(msg.Header.Get("Subject"))
	}
	modified := f.rewriteMessage(rawData, f.tagHeaders(result, whitelisted, classifyErr), newSubject)

	if f.cfg.PostfixEnabled {
		if err := f.deliver(s.sender, s.recipients, modified); err != nil {
			f.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", email.From))
			return &smtp.SMTPError{
				Code:         451,
				EnhancedCode: smtp.EnhancedCode{4, 3, 0},
				Message:      "Temporary failure re-injecting message",
			}
		}
	} else {
		f.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	fields := []zap.Field{
		zap.String("from", email.From),
		zap.String("sender_domain", senderDomain),
		zap.Bool("is_spam", isSpam),
		zap.Bool("whitelisted", whitelisted),
	}
	if result != nil {
		fields = append(fields, zap.String("label", result.Label), zap.String("processing_id", result.ProcessingID))
	}
	f.logger.Info("Processed email", fields...)

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}

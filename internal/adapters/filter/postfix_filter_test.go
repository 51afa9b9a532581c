package filter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/config"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/core"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/utils"
	"github.com/Gustavo-Sanchez0507/Spam-Classifier/internal/whitelist"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap/zaptest"
)

// keywordClassifier labels anything mentioning "free" as spam.
type keywordClassifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (c *keywordClassifier) Classify(_ context.Context, message string) (*core.ClassificationResult, error) {
	c.mu.Lock()
	c.messages = append(c.messages, message)
	c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	code := 0
	if strings.Contains(strings.ToLower(message), "free") {
		code = core.SpamCode
	}
	return &core.ClassificationResult{
		Message:      message,
		Code:         code,
		Label:        core.LabelFor(code),
		IsSpam:       code == core.SpamCode,
		ProcessingID: "pid-1",
	}, nil
}

type recorder struct {
	predictions []string
}

func (r *recorder) Record(_ context.Context, _ string, prediction string) core.HistorySource {
	r.predictions = append(r.predictions, prediction)
	return core.SourceMemory
}

type delivery struct {
	sender     string
	recipients []string
	data       string
}

func testSMTPConfig() config.SMTPConfig {
	cfg := config.NewFromViper(config.NewEmptyViper()).GetSMTP()
	cfg.ListenAddress = "127.0.0.1:0"
	return cfg
}

func newTestFilter(t *testing.T, cfg config.SMTPConfig, classifier *keywordClassifier) (*PostfixFilter, *[]delivery) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := NewPostfixFilter(
		classifier,
		nil,
		whitelist.NewChecker(cfg.WhitelistedDomains, logger),
		utils.NewTextProcessor(logger),
		logger,
		cfg,
	)
	var delivered []delivery
	f.deliver = func(sender string, recipients []string, data []byte) error {
		delivered = append(delivered, delivery{sender: sender, recipients: recipients, data: string(data)})
		return nil
	}
	return f, &delivered
}

func sendData(t *testing.T, f *PostfixFilter, from string, raw string) error {
	t.Helper()
	s := &smtpSession{filter: f}
	if err := s.Mail(from, nil); err != nil {
		t.Fatalf("Mail: %v", err)
	}
	if err := s.Rcpt("bob@example.net", nil); err != nil {
		t.Fatalf("Rcpt: %v", err)
	}
	return s.Data(strings.NewReader(raw))
}

const spamMessage = "From: prizes@lottery.biz\r\n" +
	"To: bob@example.net\r\n" +
	"Subject: Win now\r\n" +
	"X-Spam-Status: No\r\n" +
	"\r\n" +
	"Claim your FREE cash\r\n"

const hamMessage = "From: alice@example.com\r\n" +
	"To: bob@example.net\r\n" +
	"Subject: Lunch\r\n" +
	"\r\n" +
	"See you at noon\r\n"

func TestDataTagsSpam(t *testing.T) {
	classifier := &keywordClassifier{}
	cfg := testSMTPConfig()
	cfg.ModifySubject = true
	f, delivered := newTestFilter(t, cfg, classifier)

	if err := sendData(t, f, "prizes@lottery.biz", spamMessage); err != nil {
		t.Fatalf("Data: %v", err)
	}
	if len(*delivered) != 1 {
		t.Fatalf("expected one delivery, got %d", len(*delivered))
	}

	got := (*delivered)[0]
	if got.sender != "prizes@lottery.biz" || len(got.recipients) != 1 || got.recipients[0] != "bob@example.net" {
		t.Fatalf("unexpected envelope %+v", got)
	}

	want := "X-Spam-Status: Yes\r\n" +
		"X-Spam-Label: Spam\r\n" +
		"X-Spam-Processing-ID: pid-1\r\n" +
		"From: prizes@lottery.biz\r\n" +
		"To: bob@example.net\r\n" +
		"Subject: [**SPAM**] Win now\r\n" +
		"\r\n" +
		"Claim your FREE cash\r\n"
	if got.data != want {
		t.Fatalf("unexpected rewritten message:\n%q\nwant\n%q", got.data, want)
	}

	if len(classifier.messages) != 1 || classifier.messages[0] != "Win now\nClaim your FREE cash" {
		t.Fatalf("unexpected classifier input %q", classifier.messages)
	}
}

func TestDataTagsHam(t *testing.T) {
	f, delivered := newTestFilter(t, testSMTPConfig(), &keywordClassifier{})

	if err := sendData(t, f, "alice@example.com", hamMessage); err != nil {
		t.Fatalf("Data: %v", err)
	}

	data := (*delivered)[0].data
	if !strings.HasPrefix(data, "X-Spam-Status: No\r\nX-Spam-Label: Not Spam\r\n") {
		t.Fatalf("missing ham headers:\n%s", data)
	}
	if !strings.Contains(data, "Subject: Lunch\r\n") {
		t.Fatalf("subject must be unchanged:\n%s", data)
	}
}

func TestDataBlocksSpam(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.BlockSpam = true
	f, delivered := newTestFilter(t, cfg, &keywordClassifier{})

	err := sendData(t, f, "prizes@lottery.biz", spamMessage)
	var smtpErr *smtp.SMTPError
	if !errors.As(err, &smtpErr) || smtpErr.Code != 550 {
		t.Fatalf("expected 550 rejection, got %v", err)
	}
	if len(*delivered) != 0 {
		t.Fatal("rejected mail must not be delivered")
	}

	// ham still flows when blocking is on
	if err := sendData(t, f, "alice@example.com", hamMessage); err != nil {
		t.Fatalf("Data: %v", err)
	}
	if len(*delivered) != 1 {
		t.Fatalf("expected ham delivery, got %d", len(*delivered))
	}
}

func TestDataWhitelistedSender(t *testing.T) {
	classifier := &keywordClassifier{}
	cfg := testSMTPConfig()
	cfg.BlockSpam = true
	cfg.WhitelistedDomains = []string{"lottery.biz"}
	f, delivered := newTestFilter(t, cfg, classifier)

	if err := sendData(t, f, "prizes@lottery.biz", spamMessage); err != nil {
		t.Fatalf("Data: %v", err)
	}
	if len(classifier.messages) != 0 {
		t.Fatal("whitelisted mail must not be classified")
	}
	if !strings.HasPrefix((*delivered)[0].data, "X-Spam-Status: No, whitelisted\r\n") {
		t.Fatalf("missing whitelist status:\n%s", (*delivered)[0].data)
	}
}

func TestDataClassificationErrorStillDelivers(t *testing.T) {
	classifier := &keywordClassifier{err: core.ErrDimensionMismatch}
	cfg := testSMTPConfig()
	cfg.BlockSpam = true
	f, delivered := newTestFilter(t, cfg, classifier)

	if err := sendData(t, f, "prizes@lottery.biz", spamMessage); err != nil {
		t.Fatalf("Data: %v", err)
	}
	data := (*delivered)[0].data
	if !strings.HasPrefix(data, "X-Spam-Status: Unknown\r\nX-Spam-Classification-Error: ") {
		t.Fatalf("missing error headers:\n%s", data)
	}
	if strings.Contains(data, "X-Spam-Status: No\r\n") {
		t.Fatalf("incoming status header must be dropped:\n%s", data)
	}
}

func TestDataMalformedMessage(t *testing.T) {
	f, delivered := newTestFilter(t, testSMTPConfig(), &keywordClassifier{})

	err := sendData(t, f, "x@y.z", "this is not a header\r\n\r\nbody\r\n")
	var smtpErr *smtp.SMTPError
	if !errors.As(err, &smtpErr) || smtpErr.Code != 554 {
		t.Fatalf("expected 554, got %v", err)
	}
	if len(*delivered) != 0 {
		t.Fatal("malformed mail must not be delivered")
	}
}

func TestDataDeliveryFailure(t *testing.T) {
	f, _ := newTestFilter(t, testSMTPConfig(), &keywordClassifier{})
	f.deliver = func(string, []string, []byte) error { return errors.New("connection refused") }

	err := sendData(t, f, "alice@example.com", hamMessage)
	var smtpErr *smtp.SMTPError
	if !errors.As(err, &smtpErr) || smtpErr.Code != 451 {
		t.Fatalf("expected temporary failure, got %v", err)
	}
}

func TestProcessEmailRecordsHistory(t *testing.T) {
	cfg := testSMTPConfig()
	cfg.RecordHistory = true
	f, _ := newTestFilter(t, cfg, &keywordClassifier{})
	rec := &recorder{}
	f.history = rec

	email := &core.Email{From: "prizes@lottery.biz", Subject: "Free", Body: "cash"}
	result, err := f.ProcessEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}
	if !result.IsSpam {
		t.Fatal("expected spam")
	}
	if len(rec.predictions) != 1 || rec.predictions[0] != core.LabelSpam {
		t.Fatalf("unexpected recorded predictions %v", rec.predictions)
	}
}

func TestProcessEmailTruncatesBody(t *testing.T) {
	classifier := &keywordClassifier{}
	cfg := testSMTPConfig()
	cfg.MaxBodySize = 10
	f, _ := newTestFilter(t, cfg, classifier)

	if _, err := f.ProcessEmail(context.Background(), &core.Email{Subject: "Hello", Body: "a very long body"}); err != nil {
		t.Fatalf("ProcessEmail: %v", err)
	}
	if classifier.messages[0] != "Hello\na ve" {
		t.Fatalf("unexpected classifier input %q", classifier.messages[0])
	}
}

func TestPrefixedSubject(t *testing.T) {
	f, _ := newTestFilter(t, testSMTPConfig(), &keywordClassifier{})

	if got := f.prefixedSubject("Win now"); got != "[**SPAM**] Win now" {
		t.Fatalf("unexpected subject %q", got)
	}
	if got := f.prefixedSubject("[**SPAM**] Win now"); got != "" {
		t.Fatalf("already prefixed subject must be kept, got %q", got)
	}

	encoded := f.prefixedSubject("=?utf-8?q?Gagn=C3=A9?=")
	if !strings.HasPrefix(encoded, "=?utf-8?q?") {
		t.Fatalf("non-ASCII subject must be encoded, got %q", encoded)
	}
	if got := decodeHeader(encoded); got != "[**SPAM**] Gagné" {
		t.Fatalf("unexpected decoded subject %q", got)
	}
}

func TestRewriteMessageFoldedHeaders(t *testing.T) {
	f, _ := newTestFilter(t, testSMTPConfig(), &keywordClassifier{})

	raw := "Subject: part one\n part two\nX-Spam-Label: Not Spam\n\tcontinued\nFrom: a@b.c\n\nbody\n"
	got := string(f.rewriteMessage([]byte(raw), []string{"X-Spam-Status: Yes"}, "[**SPAM**] part one part two"))

	want := "X-Spam-Status: Yes\r\n" +
		"Subject: [**SPAM**] part one part two\r\n" +
		"From: a@b.c\n" +
		"\n" +
		"body\n"
	if got != want {
		t.Fatalf("unexpected rewrite:\n%q\nwant\n%q", got, want)
	}
}

// fakePostfix is an SMTP server standing in for the re-injection port.
type fakePostfix struct {
	mu       sync.Mutex
	from     string
	rcpts    []string
	received chan []byte
}

func (p *fakePostfix) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &fakePostfixSession{p: p}, nil
}

type fakePostfixSession struct {
	p *fakePostfix
}

func (s *fakePostfixSession) Reset()        {}
func (s *fakePostfixSession) Logout() error { return nil }

func (s *fakePostfixSession) Mail(from string, _ *smtp.MailOptions) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.from = from
	return nil
}

func (s *fakePostfixSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	s.p.rcpts = append(s.p.rcpts, to)
	return nil
}

func (s *fakePostfixSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.p.received <- data
	return nil
}

func TestSendToPostfix(t *testing.T) {
	backend := &fakePostfix{received: make(chan []byte, 1)}
	server := smtp.NewServer(backend)
	server.Domain = "localhost"
	server.AllowInsecureAuth = true

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go server.Serve(listener)
	t.Cleanup(func() { server.Close() })

	host, port, _ := net.SplitHostPort(listener.Addr().String())
	cfg := testSMTPConfig()
	cfg.PostfixAddress = host
	cfg.PostfixPort, _ = strconv.Atoi(port)

	logger := zaptest.NewLogger(t)
	f := NewPostfixFilter(&keywordClassifier{}, nil, nil, utils.NewTextProcessor(logger), logger, cfg)

	if err := f.sendToPostfix("a@example.com", []string{"b@example.net"}, []byte(hamMessage)); err != nil {
		t.Fatalf("sendToPostfix: %v", err)
	}

	select {
	case data := <-backend.received:
		if !bytes.Contains(data, []byte("See you at noon")) {
			t.Fatalf("unexpected data %q", data)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for re-injected message")
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if backend.from != "a@example.com" || len(backend.rcpts) != 1 || backend.rcpts[0] != "b@example.net" {
		t.Fatalf("unexpected envelope from=%q rcpts=%v", backend.from, backend.rcpts)
	}
}

func TestStartStop(t *testing.T) {
	f, _ := newTestFilter(t, testSMTPConfig(), &keywordClassifier{})
	if err := f.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

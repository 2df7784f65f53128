// Package mailbox pulls messages from IMAP folders into the source directory as .eml files.
package mailbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/charset"
)

// DefaultBatchSize is the number of messages fetched per UID FETCH command.
const DefaultBatchSize = 50

// maxSubjectRunes bounds the subject part of a file name.
const maxSubjectRunes = 120

func init() {
	// decode non-UTF-8 envelope subjects
	imap.CharsetReader = charset.Reader
}

// Client is the part of an IMAP client session used by Puller.
type Client interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}

// Dialer opens an authenticated session.
type Dialer func(ctx context.Context, host, user, password string) (Client, error)

// Options configures a Puller.
type Options struct {
	Host      string // host:port, TLS
	Email     string
	Password  string
	Folders   []string
	Since     time.Time // zero pulls everything
	Dir       string    // destination directory
	BatchSize int
	Timeout   time.Duration
	Verbose   bool
}

// Result reports one pull.
type Result struct {
	Found   int      `json:"found"`
	Written int      `json:"written"`
	Skipped int      `json:"skipped"` // already present
	Failed  int      `json:"failed"`
	Files   []string `json:"files,omitempty"`
}

// Puller copies messages from IMAP folders to files.
type Puller struct {
	opts Options
	dial Dialer
}

// NewPuller creates a Puller that dials over TLS.
func NewPuller(opts Options) *Puller {
	return NewPullerWithDialer(opts, TLSDialer(opts.Timeout))
}

// NewPullerWithDialer creates a Puller with a custom Dialer.
func NewPullerWithDialer(opts Options, dial Dialer) *Puller {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if len(opts.Folders) == 0 {
		opts.Folders = []string{"INBOX"}
	}
	return &Puller{opts: opts, dial: dial}
}

// TLSDialer returns a Dialer that connects with client.DialTLS and logs in.
func TLSDialer(timeout time.Duration) Dialer {
	return func(ctx context.Context, host, user, password string) (Client, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		serverName, _, _ := strings.Cut(host, ":")
		c, err := client.DialTLS(host, &tls.Config{ServerName: serverName})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
		}
		if timeout > 0 {
			c.Timeout = timeout
		}
		if err := c.Login(user, password); err != nil {
			_ = c.Logout()
			return nil, fmt.Errorf("failed to log in as %s: %w", user, err)
		}
		return c, nil
	}
}

// Pull fetches every message of the configured folders received since opts.Since and
// writes the ones not yet present in opts.Dir. A folder that cannot be read is logged
// and skipped.
func (p *Puller) Pull(ctx context.Context) (Result, error) {
	var res Result
	if err := os.MkdirAll(p.opts.Dir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create %s: %w", p.opts.Dir, err)
	}

	c, err := p.dial(ctx, p.opts.Host, p.opts.Email, p.opts.Password)
	if err != nil {
		return res, err
	}
	defer func() { _ = c.Logout() }()

	for _, folder := range p.opts.Folders {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := p.pullFolder(ctx, c, folder, &res); err != nil {
			log.Printf("[FETCH] folder %s: %v", folder, err)
			continue
		}
	}
	log.Printf("[FETCH] pulled %d messages: %d written, %d already present, %d failed",
		res.Found, res.Written, res.Skipped, res.Failed)
	return res, nil
}

func (p *Puller) pullFolder(ctx context.Context, c Client, folder string, res *Result) error {
	mbox, err := c.Select(folder, true)
	if err != nil {
		return fmt.Errorf("failed to select: %w", err)
	}
	if mbox.Messages == 0 {
		return nil
	}

	criteria := imap.NewSearchCriteria()
	if !p.opts.Since.IsZero() {
		criteria.Since = p.opts.Since
	}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return fmt.Errorf("failed to search: %w", err)
	}
	res.Found += len(uids)
	if p.opts.Verbose {
		log.Printf("[VERBOSE] %s: %d messages", folder, len(uids))
	}

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	for start := 0; start < len(uids); start += p.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+p.opts.BatchSize, len(uids))
		seqset := new(imap.SeqSet)
		seqset.AddNum(uids[start:end]...)

		messages := make(chan *imap.Message, end-start)
		done := make(chan error, 1)
		go func() {
			done <- c.UidFetch(seqset, items, messages)
		}()

		for msg := range messages {
			p.save(msg, section, res)
		}
		if err := <-done; err != nil {
			return fmt.Errorf("failed to fetch: %w", err)
		}
	}
	return nil
}

func (p *Puller) save(msg *imap.Message, section *imap.BodySectionName, res *Result) {
	body := msg.GetBody(section)
	if body == nil {
		for _, literal := range msg.Body {
			body = literal
			break
		}
	}
	if body == nil {
		log.Printf("[FETCH] message uid %d has no body", msg.Uid)
		res.Failed++
		return
	}
	data, err := io.ReadAll(body)
	if err != nil {
		log.Printf("[FETCH] message uid %d: %v", msg.Uid, err)
		res.Failed++
		return
	}

	date, subject := msg.InternalDate, ""
	if msg.Envelope != nil {
		if !msg.Envelope.Date.IsZero() {
			date = msg.Envelope.Date
		}
		subject = msg.Envelope.Subject
	}

	path, exists, err := p.destination(FileName(date, subject), data, msg.Uid)
	if err != nil {
		log.Printf("[FETCH] message uid %d: %v", msg.Uid, err)
		res.Failed++
		return
	}
	if exists {
		res.Skipped++
		return
	}
	if err := writeFile(path, data); err != nil {
		log.Printf("[FETCH] message uid %d: %v", msg.Uid, err)
		res.Failed++
		return
	}
	res.Written++
	res.Files = append(res.Files, path)
	if p.opts.Verbose {
		log.Printf("[VERBOSE] wrote %s", path)
	}
}

// destination returns the path for a message. exists is true when an identical file is
// already there; a different file with the same name gets the uid appended.
func (p *Puller) destination(name string, data []byte, uid uint32) (path string, exists bool, err error) {
	path = filepath.Join(p.opts.Dir, name)
	same, err := sameContent(path, data)
	if err != nil || same {
		return path, same, err
	}
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return path, false, nil
	}

	ext := filepath.Ext(name)
	alt := filepath.Join(p.opts.Dir, fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), uid, ext))
	same, err = sameContent(alt, data)
	return alt, same, err
}

func sameContent(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return bytes.Equal(existing, data), nil
}

func writeFile(path string, data []byte) error {
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

var (
	unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]+`)
	spaces          = regexp.MustCompile(`\s+`)
)

// FileName returns "YYYY-MM-DD_HH-MM - Subject.eml" in local time. The subject is made
// safe for file systems and shortened; a missing subject becomes "No subject".
func FileName(date time.Time, subject string) string {
	subject = unsafeFileChars.ReplaceAllString(subject, "_")
	subject = strings.Trim(spaces.ReplaceAllString(subject, " "), " ._")
	if subject == "" {
		subject = "No subject"
	}
	if r := []rune(subject); len(r) > maxSubjectRunes {
		subject = strings.TrimSpace(string(r[:maxSubjectRunes]))
	}
	if date.IsZero() {
		return subject + ".eml"
	}
	return date.Local().Format("2006-01-02_15-04") + " - " + subject + ".eml"
}

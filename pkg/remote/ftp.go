package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTP reply codes with a meaning for classification.
const (
	replyServiceNotAvailable = 421
	replyCannotOpenDataConn  = 425
	replyTransferAborted     = 426
	replyFileUnavailable     = 550
)

// DefaultFTPTimeout is the idle timeout applied to FTP control and data connections.
const DefaultFTPTimeout = 45 * time.Second

// FTPConfig holds connection settings for the FTP backend.
type FTPConfig struct {
	Host           string        `env:"FTP_HOST"`                             // Host is the FTP server host name.
	User           string        `env:"FTP_USER"`                             // User is the login name.
	Password       string        `env:"FTP_PASS"`                             // Password is the login password.
	LegacyPassword string        `env:"FTP_PASSWORD"`                         // LegacyPassword is read when FTP_PASS is empty.
	Port           int           `env:"FTP_PORT" envDefault:"21"`             // Port is the control connection port.
	Secure         bool          `env:"FTP_SECURE" envDefault:"false"`        // Secure enables explicit FTPS (AUTH TLS).
	RejectUnauth   string        `env:"FTP_TLS_REJECT_UNAUTH" envDefault:"1"` // RejectUnauth is "0" to skip certificate validation; any other value keeps it.
	Timeout        time.Duration `env:"FTP_TIMEOUT" envDefault:"45s"`         // Timeout bounds dialing and idle time on every connection.
}

// VerifyTLS reports whether the server certificate is validated when Secure is set.
func (c FTPConfig) VerifyTLS() bool {
	return strings.TrimSpace(c.RejectUnauth) != "0"
}

func (c FTPConfig) password() string {
	if p := strings.TrimSpace(c.Password); p != "" {
		return p
	}
	return strings.TrimSpace(c.LegacyPassword)
}

// Validate checks that credentials are present and the port is usable.
func (c FTPConfig) Validate() error {
	if strings.TrimSpace(c.Host) == "" || strings.TrimSpace(c.User) == "" || c.password() == "" {
		return ErrMissingCredentials
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Port)
	}
	return nil
}

// FTPDialer opens authenticated FTP sessions.
type FTPDialer struct {
	host     string
	addr     string
	user     string
	password string
	secure   bool
	verify   bool
	timeout  time.Duration
}

// NewFTPDialer validates cfg and returns a dialer. No connection is made.
func NewFTPDialer(cfg FTPConfig) (*FTPDialer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	port := cfg.Port
	if port == 0 {
		port = 21
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultFTPTimeout
	}
	host := strings.TrimSpace(cfg.Host)
	return &FTPDialer{
		host:     host,
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		user:     strings.TrimSpace(cfg.User),
		password: cfg.password(),
		secure:   cfg.Secure,
		verify:   cfg.VerifyTLS(),
		timeout:  timeout,
	}, nil
}

// Dial connects, logs in and switches to binary passive transfers.
func (d *FTPDialer) Dial(ctx context.Context) (Session, error) {
	opts := []ftp.DialOption{
		ftp.DialWithTimeout(d.timeout),
		ftp.DialWithDisabledEPSV(true),
		ftp.DialWithDialFunc(d.dialFunc(ctx)),
	}
	if d.secure {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{
			ServerName:         d.host,
			InsecureSkipVerify: !d.verify, //nolint:gosec // operator opt-out via FTP_TLS_REJECT_UNAUTH=0
			MinVersion:         tls.VersionTLS12,
		}))
	}

	conn, err := ftp.Dial(d.addr, opts...)
	if err != nil {
		return nil, classifyFTP("dial", d.addr, err)
	}
	if err := conn.Login(d.user, d.password); err != nil {
		_ = conn.Quit()
		return nil, classifyFTP("login", "", err)
	}
	return &ftpSession{conn: conn}, nil
}

// dialFunc dials control and data connections, wrapping both with the idle timeout.
func (d *FTPDialer) dialFunc(ctx context.Context) func(network, address string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: d.timeout, KeepAlive: 10 * time.Second}
	return func(network, address string) (net.Conn, error) {
		c, err := dialer.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}
		return &idleConn{Conn: c, timeout: d.timeout}, nil
	}
}

// idleConn pushes the read/write deadline forward on every I/O call, so a
// connection fails only after timeout of inactivity.
type idleConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *idleConn) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

type ftpSession struct {
	conn   *ftp.ServerConn
	closed bool
}

func (s *ftpSession) Size(_ context.Context, p string) (int64, error) {
	size, err := s.conn.FileSize(p)
	if err != nil {
		return 0, classifyFTP("size", p, err)
	}
	return size, nil
}

func (s *ftpSession) Retrieve(_ context.Context, p string, w io.Writer) error {
	resp, err := s.conn.Retr(p)
	if err != nil {
		return classifyFTP("retrieve", p, err)
	}
	_, copyErr := io.Copy(w, resp)
	closeErr := resp.Close()
	if copyErr != nil {
		return classifyFTP("retrieve", p, copyErr)
	}
	return classifyFTP("retrieve", p, closeErr)
}

func (s *ftpSession) Store(_ context.Context, p string, r io.Reader) error {
	return classifyFTP("store", p, s.conn.Stor(p, r))
}

func (s *ftpSession) MakeDirAll(_ context.Context, dir string) error {
	dir = path.Clean("/" + dir)
	if dir == "/" {
		return nil
	}
	current := ""
	for _, part := range strings.Split(strings.TrimPrefix(dir, "/"), "/") {
		current += "/" + part
		if err := s.conn.ChangeDir(current); err == nil {
			continue
		}
		if err := s.conn.MakeDir(current); err != nil {
			return classifyFTP("mkdir", current, err)
		}
	}
	return nil
}

func (s *ftpSession) List(_ context.Context, dir string) ([]Entry, error) {
	items, err := s.conn.List(dir)
	if err != nil {
		return nil, classifyFTP("list", dir, err)
	}
	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		if it.Name == "." || it.Name == ".." {
			continue
		}
		entries = append(entries, Entry{
			Name:    it.Name,
			Type:    ftpEntryType(it.Type),
			Size:    int64(it.Size),
			ModTime: it.Time,
		})
	}
	return entries, nil
}

func (s *ftpSession) ModTime(ctx context.Context, p string) (time.Time, error) {
	if s.conn.IsGetTimeSupported() {
		t, err := s.conn.GetTime(p)
		if err != nil {
			return time.Time{}, classifyFTP("modtime", p, err)
		}
		return t, nil
	}

	// Servers without MDTM: fall back to the listing of the parent directory.
	entries, err := s.List(ctx, path.Dir(p))
	if err != nil {
		return time.Time{}, err
	}
	name := path.Base(p)
	for _, e := range entries {
		if e.Name == name {
			return e.ModTime, nil
		}
	}
	return time.Time{}, &TransportError{Kind: KindNotFound, Op: "modtime", Path: p, Err: errors.New("not listed in parent directory")}
}

func (s *ftpSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Quit()
}

func ftpEntryType(t ftp.EntryType) EntryType {
	switch t {
	case ftp.EntryTypeFile:
		return EntryFile
	case ftp.EntryTypeFolder:
		return EntryDir
	default:
		return EntryOther
	}
}

func classifyFTP(op, p string, err error) error {
	if err == nil {
		return nil
	}
	return newError(ftpKind(err), op, p, err)
}

// ftpKind maps FTP replies and socket errors to a Kind.
func ftpKind(err error) Kind {
	var reply *textproto.Error
	if errors.As(err, &reply) {
		switch reply.Code {
		case replyFileUnavailable:
			return KindNotFound
		case replyServiceNotAvailable, replyCannotOpenDataConn, replyTransferAborted:
			return KindTransient
		default:
			return KindFatal
		}
	}
	return networkKind(err)
}

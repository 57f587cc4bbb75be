// Package remote opens sessions against the storage backend that holds
// docvault documents and retries operations that fail for transient reasons.
//
// # Architecture
//
// A Dialer opens one Session per logical operation; sessions are never
// pooled or shared. Three adapters are provided:
//
//   - FTPDialer speaks FTP or explicit FTPS through github.com/jlaffaye/ftp,
//     in passive mode, with an idle timeout enforced on every connection.
//   - S3Dialer maps the same contract onto an S3 bucket using aws-sdk-go-v2.
//   - LocalDialer serves a directory on the local filesystem; it backs tests
//     and single-host deployments.
//
// Every adapter reports failures as *TransportError carrying a Kind assigned
// once, by the adapter, from the native status or error value:
//
//   - KindTransient: connection reset, broken pipe, not connected, timeouts,
//     and protocol replies announcing a temporary condition (FTP 421/425/426,
//     S3 SlowDown/ServiceUnavailable/5xx).
//   - KindNotFound: the target does not exist. For FTP this is reply 550,
//     which servers also use for permission and invalid-path failures.
//     Callers rely on that conflation to detect absent documents.
//   - KindFatal: everything else.
//
// Manager.Do wraps a unit of work: it dials, runs the work, and closes the
// session on every exit path, including panics. Transient failures close the
// session, wait attempt*BackoffUnit and try again, up to MaxAttempts in
// total. The last error is returned unchanged, so errors.As still reaches
// the *TransportError.
//
// # Usage
//
//	dialer, err := remote.NewFTPDialer(ftpCfg)
//	if err != nil {
//	    return err // remote.ErrMissingCredentials
//	}
//	mgr := remote.NewManager(dialer, remote.WithRetryPolicy(policy), remote.WithLogger(log))
//	size, err := remote.Call(ctx, mgr, "size", func(ctx context.Context, s remote.Session) (int64, error) {
//	    return s.Size(ctx, "/service/atelier_data.json")
//	})
//
// The context is honoured while dialling and between attempts. A transfer
// already in flight on an FTP session runs until it completes or the idle
// timeout fires.
package remote

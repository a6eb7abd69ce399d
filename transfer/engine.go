// Package transfer implements the remote transfer engine: negotiating
// a batch of objects against the Batch API, then pulling or pushing
// each object's content with bounded concurrency and retries.
//
// Grounded on the teacher's cache/http/http.go remote-backend client
// (http.Client reuse, header injection, status-code-to-error mapping)
// and cache/disk/disk.go's worker-pool shape, generalized from a
// single-backend proxy to a multi-object batch negotiation followed by
// per-object transfer workers.
package transfer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/git-lfs/lfscore/batchapi"
	"github.com/git-lfs/lfscore/lfserrors"
	"github.com/git-lfs/lfscore/logging"
	"github.com/git-lfs/lfscore/metric"
	"github.com/git-lfs/lfscore/objectstore"
	"github.com/git-lfs/lfscore/pointer"
	"github.com/git-lfs/lfscore/utils/sha256verifier"
)

// retryAttempts and retryDelay bound a worker's attempts at a single
// object before it gives up and reports that object's error.
const (
	retryAttempts = 3
	retryDelay    = 500 * time.Millisecond

	defaultUserAgent = "gitlfs"
)

// Engine negotiates and executes transfers against one remote's Batch
// API endpoint, reading from and writing to a local object store.
type Engine struct {
	Client  *http.Client
	BaseURL *url.URL
	Store   *objectstore.Store

	AccessToken string
	Headers     map[string]string

	ConcurrencyLimit int
	UserAgent        string

	Progress ProgressFunc
	Loggers  logging.Loggers

	BatchDuration  metric.Histogram
	ObjectsCounter metric.Counter
	BytesCounter   metric.Counter
}

func (e *Engine) client() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return http.DefaultClient
}

func (e *Engine) concurrency() int64 {
	if e.ConcurrencyLimit > 0 {
		return int64(e.ConcurrencyLimit)
	}
	return 1
}

func (e *Engine) batchDuration() metric.Histogram {
	if e.BatchDuration != nil {
		return e.BatchDuration
	}
	return metric.NoOpHistogram()
}

func (e *Engine) objectsCounter() metric.Counter {
	if e.ObjectsCounter != nil {
		return e.ObjectsCounter
	}
	return metric.NoOpCounter()
}

func (e *Engine) bytesCounter() metric.Counter {
	if e.BytesCounter != nil {
		return e.BytesCounter
	}
	return metric.NoOpCounter()
}

func (e *Engine) errorLogger() logging.Logger {
	if e.Loggers.Error != nil {
		return e.Loggers.Error
	}
	return discardLogger{}
}

func (e *Engine) userAgent() string {
	if e.UserAgent != "" {
		return e.UserAgent
	}
	return defaultUserAgent
}

func (e *Engine) accessLogger() logging.Logger {
	if e.Loggers.Access != nil {
		return e.Loggers.Access
	}
	return discardLogger{}
}

type discardLogger struct{}

func (discardLogger) Printf(format string, v ...interface{}) {}

// Pull negotiates a download batch for pointers and fetches every
// object the remote reports as absent from it into the local store,
// with up to ConcurrencyLimit transfers in flight at once. It returns
// the first worker error observed after every worker has finished; a
// batch-level failure (the negotiation request itself) is returned
// immediately without starting any workers.
func (e *Engine) Pull(ctx context.Context, pointers []pointer.Pointer) error {
	resp, err := e.batch(ctx, batchapi.OperationDownload, pointers)
	if err != nil {
		return err
	}

	return e.runWorkers(ctx, resp.Objects, e.pullOne)
}

// Push negotiates an upload batch for pointers and uploads every
// object the remote reports as missing, verifying each upload when the
// remote offers a verify action. Concurrency and error semantics match
// Pull.
func (e *Engine) Push(ctx context.Context, pointers []pointer.Pointer) error {
	resp, err := e.batch(ctx, batchapi.OperationUpload, pointers)
	if err != nil {
		return err
	}

	return e.runWorkers(ctx, resp.Objects, e.pushOne)
}

func (e *Engine) runWorkers(ctx context.Context, objects []batchapi.ResponseObject, work func(context.Context, batchapi.ResponseObject, *progressTracker) error) error {
	var total, totalBytes int64
	for _, o := range objects {
		if o.Actions != nil {
			total++
			totalBytes += o.Size
		}
	}
	tracker := &progressTracker{totalObjects: total, totalBytes: totalBytes, report: e.Progress}

	sem := semaphore.NewWeighted(e.concurrency())
	var g errgroup.Group

	for _, obj := range objects {
		obj := obj
		if obj.Error != nil {
			e.errorLogger().Printf("lfs: object %s: server error %d: %s", obj.OID, obj.Error.Code, obj.Error.Message)
			if err := sem.Acquire(ctx, 1); err != nil {
				_ = g.Wait()
				return err
			}
			g.Go(func() error {
				defer sem.Release(1)
				return lfserrors.New(lfserrors.ObjectError, fmt.Sprintf("%d - %s", obj.Error.Code, obj.Error.Message))
			})
			continue
		}
		if obj.Actions == nil {
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			return work(ctx, obj, tracker)
		})
	}

	return g.Wait()
}

// progressTracker accumulates cumulative counts across concurrent
// workers and fires the caller's ProgressFunc before each unit of work
// begins, matching progress.go's documented semantics.
type progressTracker struct {
	totalObjects, totalBytes     int64
	objectsHandled, bytesHandled atomic.Int64
	report                       ProgressFunc
}

func (t *progressTracker) announce(phase Phase, nextSize int64) {
	if t.report == nil {
		return
	}
	t.report(Progress{
		Phase:          phase,
		TotalObjects:   t.totalObjects,
		TotalBytes:     t.totalBytes,
		ObjectsHandled: t.objectsHandled.Load(),
		BytesHandled:   t.bytesHandled.Load(),
		NextObjectSize: nextSize,
	})
}

func (t *progressTracker) complete(size int64) {
	t.objectsHandled.Add(1)
	t.bytesHandled.Add(size)
}

func (e *Engine) batch(ctx context.Context, op batchapi.Operation, pointers []pointer.Pointer) (*batchapi.Response, error) {
	req := batchapi.Request{
		Operation: op,
		Transfers: []string{batchapi.Transfer},
		HashAlgo:  batchapi.HashAlgo,
		Objects:   make([]batchapi.RequestObject, len(pointers)),
	}
	for i, p := range pointers {
		req.Objects[i] = batchapi.RequestObject{OID: p.Hex(), Size: p.Size}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, lfserrors.Wrap(lfserrors.Batch, err)
	}

	batchURL := *e.BaseURL
	batchURL.Path = batchURL.Path + "/objects/batch"

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, batchURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, lfserrors.Wrap(lfserrors.Batch, err)
	}
	e.setCommonHeaders(httpReq, batchapi.MediaType)

	start := time.Now()
	httpResp, err := e.client().Do(httpReq)
	e.batchDuration().Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, lfserrors.Wrap(lfserrors.Batch, err)
	}
	defer httpResp.Body.Close()

	if err := statusToError(httpResp.StatusCode, lfserrors.Batch); err != nil {
		return nil, err
	}

	var resp batchapi.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, lfserrors.Wrap(lfserrors.Batch, err)
	}
	if len(resp.Objects) == 0 {
		return nil, lfserrors.New(lfserrors.EmptyResponse, "batch response carried zero objects")
	}

	e.accessLogger().Printf("lfs: batch %s: %d object(s)", op, len(resp.Objects))
	return &resp, nil
}

func (e *Engine) setCommonHeaders(req *http.Request, mediaType string) {
	req.Header.Set("Accept", mediaType)
	req.Header.Set("Content-Type", mediaType)
	req.Header.Set("User-Agent", e.userAgent())
	if e.AccessToken != "" {
		req.SetBasicAuth("oauth2", e.AccessToken)
	}
	for k, v := range e.Headers {
		req.Header.Set(k, v)
	}
}

func statusToError(status int, fallback lfserrors.Code) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return lfserrors.Newf(lfserrors.AccessDenied, "remote returned status %d", status)
	case status == http.StatusNotFound:
		return lfserrors.Newf(lfserrors.NotFound, "remote returned status %d", status)
	default:
		return lfserrors.Newf(fallback, "remote returned status %d", status)
	}
}

// withRetries runs fn up to retryAttempts times, sleeping retryDelay
// between attempts, and returns the last observed error.
func withRetries(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

func (e *Engine) pullOne(ctx context.Context, obj batchapi.ResponseObject, tracker *progressTracker) error {
	p, err := objectPointer(obj)
	if err != nil {
		return err
	}

	tracker.announce(Download, obj.Size)

	if e.Store.Has(p) {
		tracker.complete(obj.Size)
		return nil
	}

	action := obj.Actions.Download
	if action == nil {
		return lfserrors.Newf(lfserrors.Download, "object %s: batch response carried no download action", obj.OID)
	}

	err = withRetries(ctx, func() error {
		return e.download(ctx, p, action)
	})
	if err != nil {
		return lfserrors.WrapCause(lfserrors.Download, fmt.Sprintf("object %s: download failed", obj.OID), err)
	}

	e.bytesCounter().Add(float64(obj.Size))
	e.objectsCounter().Inc()
	tracker.complete(obj.Size)
	return nil
}

func (e *Engine) download(ctx context.Context, p pointer.Pointer, action *batchapi.Action) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, action.Href, nil)
	if err != nil {
		return err
	}
	for k, v := range action.Header {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", e.userAgent())

	resp, err := e.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := statusToError(resp.StatusCode, lfserrors.Download); err != nil {
		return err
	}

	path := e.Store.Path(p)
	if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
		return err
	}
	// A prior failed attempt may have left a partial file behind; an
	// exclusive create would then fail even though no valid object is
	// present, so each attempt starts by clearing it.
	_ = os.Remove(path)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0664)
	if err != nil {
		return err
	}

	cw := sha256verifier.New(p.Hex(), p.Size, f)
	if _, err := io.Copy(cw, resp.Body); err != nil {
		cw.Close()
		os.Remove(path)
		return err
	}
	if err := cw.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func (e *Engine) pushOne(ctx context.Context, obj batchapi.ResponseObject, tracker *progressTracker) error {
	p, err := objectPointer(obj)
	if err != nil {
		return err
	}

	tracker.announce(Upload, obj.Size)

	action := obj.Actions.Upload
	if action == nil {
		tracker.complete(obj.Size)
		return nil
	}

	err = withRetries(ctx, func() error {
		return e.upload(ctx, p, action)
	})
	if err != nil {
		return lfserrors.WrapCause(lfserrors.Upload, fmt.Sprintf("object %s: upload failed", obj.OID), err)
	}

	if verify := obj.Actions.Verify; verify != nil {
		tracker.announce(Verify, obj.Size)
		if err := e.verify(ctx, p, verify); err != nil {
			return lfserrors.WrapCause(lfserrors.Verify, fmt.Sprintf("object %s: verify failed", obj.OID), err)
		}
	}

	e.bytesCounter().Add(float64(obj.Size))
	e.objectsCounter().Inc()
	tracker.complete(obj.Size)
	return nil
}

func (e *Engine) upload(ctx context.Context, p pointer.Pointer, action *batchapi.Action) error {
	var buf bytes.Buffer
	if err := e.Store.Load(p, &buf); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, action.Href, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return err
	}
	req.ContentLength = int64(buf.Len())
	for k, v := range action.Header {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", e.userAgent())

	resp, err := e.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return statusToError(resp.StatusCode, lfserrors.Upload)
}

func (e *Engine) verify(ctx context.Context, p pointer.Pointer, action *batchapi.Action) error {
	body, err := json.Marshal(batchapi.VerifyRequest{OID: p.Hex(), Size: p.Size})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action.Href, bytes.NewReader(body))
	if err != nil {
		return err
	}
	e.setCommonHeaders(req, batchapi.MediaType)
	for k, v := range action.Header {
		req.Header.Set(k, v)
	}

	resp, err := e.client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return statusToError(resp.StatusCode, lfserrors.Verify)
}

func objectPointer(obj batchapi.ResponseObject) (pointer.Pointer, error) {
	if len(obj.OID) != hex.EncodedLen(32) {
		return pointer.Pointer{}, lfserrors.Newf(lfserrors.InvalidHashLength, "object oid %q is %d chars, want %d", obj.OID, len(obj.OID), hex.EncodedLen(32))
	}
	raw, err := hex.DecodeString(obj.OID)
	if err != nil {
		return pointer.Pointer{}, lfserrors.WrapCause(lfserrors.Hex, "object "+obj.OID+": malformed oid", err)
	}
	var p pointer.Pointer
	copy(p.Hash[:], raw)
	p.Size = obj.Size
	return p, nil
}
